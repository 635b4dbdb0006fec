package schematic

import (
	"fmt"
	"strings"
)

// KnownGauges reports whether every gauge in gauges is present. Callers pass
// the key set of the injected reference tables.
type KnownGauges func(awg int) bool

// ValidateSegment checks a parser-produced wire segment before it enters the
// engine. Label content is deliberately not checked here; classifying label
// text is the validator's job, not the gate's.
func ValidateSegment(w WireSegment, known KnownGauges) error {
	if strings.TrimSpace(w.ID) == "" {
		return NewValidationError("id", w.ID, ErrMissingID)
	}
	if known != nil && !known(w.Gauge) {
		return NewValidationError("gauge", fmt.Sprintf("%d", w.Gauge), ErrUnknownGauge)
	}
	if w.Start == w.End {
		return NewValidationError("endpoints", w.ID, ErrZeroLengthSegment)
	}
	return nil
}

// ValidateComponent checks a parser-produced component record.
func ValidateComponent(c Component) error {
	if strings.TrimSpace(c.Ref) == "" {
		return NewValidationError("ref", c.Ref, ErrMissingID)
	}
	if !ValidTerminalTypes[c.Terminal] {
		return NewValidationError("terminal", string(c.Terminal), ErrUnknownTerminalType)
	}
	if c.CurrentAmps < 0 {
		return NewValidationError("current_amps", fmt.Sprintf("%g", c.CurrentAmps), ErrNegativeCurrent)
	}
	return nil
}
