package schematic

import (
	"errors"
	"fmt"
)

// Sentinel errors for input validation failures.
var (
	ErrMissingID           = errors.New("missing identifier")
	ErrUnknownTerminalType = errors.New("unknown terminal type")
	ErrUnknownGauge        = errors.New("gauge not in reference tables")
	ErrNegativeCurrent     = errors.New("negative declared current")
	ErrZeroLengthSegment   = errors.New("zero length segment")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schematic: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
