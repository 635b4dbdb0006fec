package validate

import (
	"strconv"

	"github.com/harnesslab/wirebom/engine/schematic"
)

// endpointResolver assigns wire endpoints to components by proximity. Pins
// are handed out per component in attach order, so identical input always
// yields identical pin numbers.
type endpointResolver struct {
	components []schematic.Component
	tolerance  float64
	attached   map[string]int
}

func newEndpointResolver(components []schematic.Component, tolerance float64) *endpointResolver {
	return &endpointResolver{
		components: components,
		tolerance:  tolerance,
		attached:   make(map[string]int),
	}
}

// resolve returns the endpoint for a wire end at p: the nearest component
// within the tolerance, or a blank endpoint when nothing is close enough.
func (r *endpointResolver) resolve(p schematic.Position) schematic.Endpoint {
	bestIdx := -1
	bestDist := 0.0
	for i, c := range r.components {
		d := p.Distance(c.Position.Planar())
		if d > r.tolerance {
			continue
		}
		if bestIdx < 0 || d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	if bestIdx < 0 {
		return schematic.Endpoint{}
	}
	ref := r.components[bestIdx].Ref
	r.attached[ref]++
	return schematic.Endpoint{Component: ref, Pin: strconv.Itoa(r.attached[ref])}
}

// buildConnections materializes the validated wires, one connection per
// segment, in input order. Connections are created here once and never
// mutated afterwards.
func buildConnections(wires []classified, components []schematic.Component, tolerance float64) []schematic.WireConnection {
	resolver := newEndpointResolver(components, tolerance)
	conns := make([]schematic.WireConnection, 0, len(wires))
	for _, w := range wires {
		warnings := w.warnings
		from := resolver.resolve(w.seg.Start)
		to := resolver.resolve(w.seg.End)
		if from.Component == "" || to.Component == "" {
			warnings = append(warnings, "endpoint not attached to any component")
		}
		conns = append(conns, schematic.WireConnection{
			CircuitID:    w.circuit,
			From:         from,
			To:           to,
			Gauge:        w.seg.Gauge,
			Color:        w.seg.Color,
			LengthInches: w.seg.LengthInches(),
			WireType:     w.seg.WireType,
			Notes:        w.notes,
			Warnings:     warnings,
		})
	}
	return conns
}
