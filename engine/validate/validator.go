package validate

import (
	"fmt"
	"strings"

	"github.com/harnesslab/wirebom/engine/label"
	"github.com/harnesslab/wirebom/engine/schematic"
)

// Config controls one validation run.
type Config struct {
	// Strict aborts on malformed labeling instead of recovering.
	Strict bool
	// OrphanThresholdUnits is the maximum distance from a label to the
	// nearest wire before it is reported as orphaned. Also used as the
	// attach tolerance when resolving endpoints to components.
	OrphanThresholdUnits float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{Strict: true, OrphanThresholdUnits: 10.0}
}

// Result is the outcome of a validation run.
type Result struct {
	Connections []schematic.WireConnection `json:"connections"`
	Findings    []Finding                  `json:"findings"`
	ShouldAbort bool                       `json:"should_abort"`
}

// Validator accumulates findings for a single run. It is not safe for reuse
// across runs; callers processing schematics in parallel need one Validator
// each, sharing only the read-only tables and config.
type Validator struct {
	cfg      Config
	findings []Finding
}

// New creates a Validator for one run.
func New(cfg Config) *Validator {
	if cfg.OrphanThresholdUnits <= 0 {
		cfg.OrphanThresholdUnits = DefaultConfig().OrphanThresholdUnits
	}
	return &Validator{cfg: cfg}
}

// classified pairs a segment with its label classification and the circuit
// id that survived policy recovery.
type classified struct {
	seg      schematic.WireSegment
	class    label.Classification
	circuit  string
	notes    []string
	warnings []string
}

// ValidateAll runs every check over the whole wire set, in input order, and
// returns the validated connections plus all collected findings. When
// ShouldAbort is true no connections are produced and callers must not
// proceed to aggregation or analysis.
func (v *Validator) ValidateAll(segments []schematic.WireSegment, components []schematic.Component) Result {
	wires := make([]classified, len(segments))
	anyLabel := false
	for i, seg := range segments {
		c := label.Classify(seg.LabelTexts())
		wires[i] = classified{seg: seg, class: c, circuit: c.CircuitID, notes: c.Notes}
		if c.CircuitID != "" {
			anyLabel = true
		}
	}

	if !anyLabel && len(wires) > 0 {
		v.checkNoLabelsAnywhere(wires)
	} else {
		v.checkPerWire(wires)
	}
	v.checkDuplicates(wires)
	v.checkOrphanLabels(segments)

	abort := v.cfg.Strict && len(Errors(v.findings)) > 0
	res := Result{Findings: v.findings, ShouldAbort: abort}
	if abort {
		return res
	}
	res.Connections = buildConnections(wires, components, v.cfg.OrphanThresholdUnits)
	return res
}

// checkNoLabelsAnywhere handles the schematic with zero grammar matches.
// Recovery synthesizes UNK{n}A per wire, n being the 1-based input position.
func (v *Validator) checkNoLabelsAnywhere(wires []classified) {
	v.add(Finding{
		Kind:       NoCircuitLabelsFound,
		Message:    fmt.Sprintf("no circuit labels found on any of %d wires", len(wires)),
		Suggestion: "label each wire with a circuit id such as L1A (system letter, circuit number, segment letter)",
	})
	if v.cfg.Strict {
		return
	}
	for i := range wires {
		fallback := fmt.Sprintf("UNK%dA", i+1)
		wires[i].circuit = fallback
		wires[i].warnings = append(wires[i].warnings, "assigned fallback circuit id "+fallback)
	}
}

// checkPerWire flags wires with zero or more than one circuit id. Recovery:
// synthesize a fallback for missing ids, keep the first and demote the rest
// to notes for ambiguous ones.
func (v *Validator) checkPerWire(wires []classified) {
	for i := range wires {
		w := &wires[i]
		switch {
		case w.circuit == "":
			v.add(Finding{
				Kind:       MissingCircuitID,
				Message:    fmt.Sprintf("wire %s has no circuit label", w.seg.ID),
				Suggestion: "add a circuit id label near the wire",
				WireID:     w.seg.ID,
			})
			if !v.cfg.Strict {
				fallback := fmt.Sprintf("UNK%dA", i+1)
				w.circuit = fallback
				w.warnings = append(w.warnings, "assigned fallback circuit id "+fallback)
			}
		case len(w.class.Extra) > 0:
			all := append([]string{w.circuit}, w.class.Extra...)
			v.add(Finding{
				Kind:       MultipleCircuitIDs,
				Message:    fmt.Sprintf("wire %s has multiple circuit labels: %s", w.seg.ID, strings.Join(all, ", ")),
				Suggestion: "keep one circuit id per wire segment",
				WireID:     w.seg.ID,
			})
			if !v.cfg.Strict {
				w.notes = append(w.notes, w.class.Extra...)
				w.warnings = append(w.warnings, "kept first circuit id "+w.circuit)
			}
		}
	}
}

// checkDuplicates counts assigned ids and, in permissive mode, renames every
// occurrence after the first with -2, -3, ... in input order. The first
// occurrence is never touched.
func (v *Validator) checkDuplicates(wires []classified) {
	counts := make(map[string]int)
	for i := range wires {
		if wires[i].circuit != "" {
			counts[wires[i].circuit]++
		}
	}
	reported := make(map[string]bool)
	seen := make(map[string]int)
	for i := range wires {
		id := wires[i].circuit
		if id == "" || counts[id] < 2 {
			continue
		}
		if !reported[id] {
			v.add(Finding{
				Kind:       DuplicateCircuitID,
				Message:    fmt.Sprintf("circuit id %s appears %d times", id, counts[id]),
				Suggestion: "give each wire segment a unique segment letter",
			})
			reported[id] = true
		}
		seen[id]++
		if v.cfg.Strict || seen[id] == 1 {
			continue
		}
		renamed := fmt.Sprintf("%s-%d", id, seen[id])
		wires[i].circuit = renamed
		wires[i].warnings = append(wires[i].warnings, fmt.Sprintf("duplicate of %s, renamed to %s", id, renamed))
	}
}

// checkOrphanLabels reports labels farther than the threshold from every
// segment endpoint and midpoint. Always a warning, reported schematic-wide
// and never attached to a single wire.
func (v *Validator) checkOrphanLabels(segments []schematic.WireSegment) {
	for _, seg := range segments {
		for _, l := range seg.Labels {
			if nearestWirePoint(l.Position, segments) > v.cfg.OrphanThresholdUnits {
				v.add(Finding{
					Kind:       OrphanLabel,
					Message:    fmt.Sprintf("label %q at (%g, %g) is not near any wire", l.Text, l.Position.X, l.Position.Y),
					Suggestion: "move the label next to the wire it describes",
				})
			}
		}
	}
}

// nearestWirePoint returns the minimum distance from p to any segment
// endpoint or midpoint.
func nearestWirePoint(p schematic.Position, segments []schematic.WireSegment) float64 {
	best := -1.0
	for _, seg := range segments {
		for _, q := range []schematic.Position{seg.Start, seg.End, schematic.Midpoint(seg.Start, seg.End)} {
			if d := p.Distance(q); best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

// add assigns severity from the run policy and records the finding.
func (v *Validator) add(f Finding) {
	f.Severity = severityFor(f.Kind, v.cfg.Strict)
	v.findings = append(v.findings, f)
}
