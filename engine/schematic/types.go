// Package schematic defines the core records exchanged between the schematic
// parser, the validation/analysis engine, and the report renderers. It acts as
// the validation gate at engine entry points.
package schematic

import "math"

// Position is a 2D point in schematic units (one unit = one inch).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another position.
func (p Position) Distance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Position) Position {
	return Position{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Position3 is a 3D point; Z carries the schematic sheet/layer offset.
type Position3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Planar projects the position onto the schematic plane.
func (p Position3) Planar() Position {
	return Position{X: p.X, Y: p.Y}
}

// Label is a free text annotation placed on the schematic by the drafter.
// Produced by the parser, never mutated by the engine.
type Label struct {
	Text     string   `json:"text"`
	Position Position `json:"position"`
}

// WireSegment is a single drawn wire run between two schematic points.
// Labels are kept in drawing order; that order drives every deterministic
// fallback and rename the validator performs.
type WireSegment struct {
	ID       string   `json:"id"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
	Gauge    int      `json:"gauge"` // AWG
	Color    string   `json:"color"`
	WireType string   `json:"wire_type"`
	Labels   []Label  `json:"labels"`
}

// LengthInches returns the drawn length of the segment.
func (w WireSegment) LengthInches() float64 {
	return w.Start.Distance(w.End)
}

// LabelTexts returns the label texts in drawing order.
func (w WireSegment) LabelTexts() []string {
	texts := make([]string, len(w.Labels))
	for i, l := range w.Labels {
		texts[i] = l.Text
	}
	return texts
}

// TerminalType classifies how a component participates in a circuit.
type TerminalType string

const (
	TerminalSource    TerminalType = "source"
	TerminalLoad      TerminalType = "load"
	TerminalReference TerminalType = "reference"
)

// ValidTerminalTypes is the set of recognised terminal types.
var ValidTerminalTypes = map[TerminalType]bool{
	TerminalSource: true, TerminalLoad: true, TerminalReference: true,
}

// Component is a schematic part with a declared current rating.
type Component struct {
	Ref         string       `json:"ref"`
	Value       string       `json:"value,omitempty"`
	Description string       `json:"description,omitempty"`
	Datasheet   string       `json:"datasheet,omitempty"`
	Terminal    TerminalType `json:"terminal"`
	CurrentAmps float64      `json:"current_amps"`
	Position    Position3    `json:"position"`
}

// Endpoint names one end of a validated wire: the component it lands on and
// the pin it was assigned on that component.
type Endpoint struct {
	Component string `json:"component"`
	Pin       string `json:"pin"`
}

// WireConnection is a validated wire ready for the bill of materials.
// Created once by the validator and never mutated; a duplicate circuit id in
// permissive mode produces a new renamed record, not an edit of the original.
type WireConnection struct {
	CircuitID    string   `json:"circuit_id"`
	From         Endpoint `json:"from"`
	To           Endpoint `json:"to"`
	Gauge        int      `json:"gauge"`
	Color        string   `json:"color"`
	LengthInches float64  `json:"length_inches"`
	WireType     string   `json:"wire_type"`
	Notes        []string `json:"notes,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// WireAnalysis holds the electrical figures for one analyzed connection.
// All values are full precision; rounding happens at presentation.
type WireAnalysis struct {
	CircuitID          string  `json:"circuit_id"`
	CurrentAmps        float64 `json:"current_amps"`
	Gauge              int     `json:"gauge"`
	LengthInches       float64 `json:"length_inches"`
	ResistanceOhms     float64 `json:"resistance_ohms"`
	VoltageDropVolts   float64 `json:"voltage_drop_volts"`
	VoltageDropPercent float64 `json:"voltage_drop_percent"`
	AmpacityAmps       float64 `json:"ampacity_amps"`
	UtilizationPercent float64 `json:"utilization_percent"`
	PowerLossWatts     float64 `json:"power_loss_watts"`
}

// Overloaded reports whether the conductor is undersized for its current.
func (a WireAnalysis) Overloaded() bool {
	return a.UtilizationPercent > 100
}
