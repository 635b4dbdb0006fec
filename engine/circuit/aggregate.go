// Package circuit groups validated wire connections into circuits and
// resolves one current value per circuit from the connected components.
package circuit

import (
	"fmt"
	"sort"

	"github.com/harnesslab/wirebom/engine/label"
	"github.com/harnesslab/wirebom/engine/schematic"
	"github.com/harnesslab/wirebom/engine/validate"
	"github.com/harnesslab/wirebom/pkg/fn"
)

// Resolution maps circuit keys to their resolved currents. Keys that could
// not be resolved are listed so downstream analysis can skip their wires
// without dropping them from the bill of materials.
type Resolution struct {
	Currents   map[string]float64 `json:"currents"`
	Unresolved []string           `json:"unresolved,omitempty"`
	Findings   []validate.Finding `json:"findings,omitempty"`
}

// CurrentFor returns the resolved current for a circuit id, going through
// the id's circuit key.
func (r Resolution) CurrentFor(circuitID string) (float64, bool) {
	amps, ok := r.Currents[label.CircuitKey(circuitID)]
	return amps, ok
}

// Aggregate groups connections by circuit key (segment letter stripped) and
// resolves each circuit's current: the maximum declared current among
// connected load components, falling back to the maximum among connected
// sources. Wire is sized for the actual expected draw, not for the upstream
// protection rating, so loads win over sources when both are present.
func Aggregate(conns []schematic.WireConnection, components []schematic.Component) Resolution {
	byRef := make(map[string]schematic.Component, len(components))
	for _, c := range components {
		byRef[c.Ref] = c
	}

	groups := fn.GroupBy(conns, func(c schematic.WireConnection) string {
		return label.CircuitKey(c.CircuitID)
	})

	res := Resolution{Currents: make(map[string]float64, len(groups))}
	for _, key := range sortedKeys(groups) {
		connected := connectedComponents(groups[key], byRef)
		amps, ok := resolveCurrent(connected)
		if !ok {
			res.Unresolved = append(res.Unresolved, key)
			res.Findings = append(res.Findings, validate.Finding{
				Kind:       validate.UnresolvedCircuitCurrent,
				Severity:   validate.SeverityWarning,
				Message:    fmt.Sprintf("circuit %s has no connected source or load with a declared current", key),
				Suggestion: "declare a current rating on the circuit's load, or check the wire endpoints",
			})
			continue
		}
		res.Currents[key] = amps
	}
	return res
}

// connectedComponents collects every distinct component touched by the
// circuit's wires, in wire order.
func connectedComponents(conns []schematic.WireConnection, byRef map[string]schematic.Component) []schematic.Component {
	var refs []string
	for _, c := range conns {
		if c.From.Component != "" {
			refs = append(refs, c.From.Component)
		}
		if c.To.Component != "" {
			refs = append(refs, c.To.Component)
		}
	}
	var out []schematic.Component
	for _, ref := range fn.Unique(refs) {
		if comp, ok := byRef[ref]; ok {
			out = append(out, comp)
		}
	}
	return out
}

// resolveCurrent applies the load-first policy.
func resolveCurrent(components []schematic.Component) (float64, bool) {
	loads := fn.Filter(components, func(c schematic.Component) bool {
		return c.Terminal == schematic.TerminalLoad
	})
	if best, ok := fn.MaxBy(loads, func(c schematic.Component) float64 { return c.CurrentAmps }); ok {
		return best.CurrentAmps, true
	}
	sources := fn.Filter(components, func(c schematic.Component) bool {
		return c.Terminal == schematic.TerminalSource
	})
	if best, ok := fn.MaxBy(sources, func(c schematic.Component) float64 { return c.CurrentAmps }); ok {
		return best.CurrentAmps, true
	}
	return 0, false
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
