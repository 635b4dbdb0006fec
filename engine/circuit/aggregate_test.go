package circuit

import (
	"reflect"
	"testing"

	"github.com/harnesslab/wirebom/engine/schematic"
	"github.com/harnesslab/wirebom/engine/validate"
)

func conn(id, from, to string) schematic.WireConnection {
	return schematic.WireConnection{
		CircuitID: id,
		From:      schematic.Endpoint{Component: from, Pin: "1"},
		To:        schematic.Endpoint{Component: to, Pin: "1"},
	}
}

func comp(ref string, t schematic.TerminalType, amps float64) schematic.Component {
	return schematic.Component{Ref: ref, Terminal: t, CurrentAmps: amps}
}

func TestAggregate_SegmentsShareCircuit(t *testing.T) {
	conns := []schematic.WireConnection{
		conn("L1A", "BAT1", "SW1"),
		conn("L1B", "SW1", "LAMP1"),
	}
	comps := []schematic.Component{
		comp("BAT1", schematic.TerminalSource, 100),
		comp("SW1", schematic.TerminalReference, 0),
		comp("LAMP1", schematic.TerminalLoad, 7.5),
	}

	res := Aggregate(conns, comps)
	if len(res.Currents) != 1 {
		t.Fatalf("currents = %v, want single circuit L1", res.Currents)
	}
	// Load current wins over the 100 A source.
	if got := res.Currents["L1"]; got != 7.5 {
		t.Fatalf("L1 current = %g, want 7.5", got)
	}
}

func TestAggregate_LoadMaxWins(t *testing.T) {
	conns := []schematic.WireConnection{
		conn("P2A", "BAT1", "PUMP1"),
		conn("P2B", "BAT1", "PUMP2"),
	}
	comps := []schematic.Component{
		comp("BAT1", schematic.TerminalSource, 60),
		comp("PUMP1", schematic.TerminalLoad, 12),
		comp("PUMP2", schematic.TerminalLoad, 18),
	}

	res := Aggregate(conns, comps)
	if got := res.Currents["P2"]; got != 18 {
		t.Fatalf("P2 current = %g, want max load 18", got)
	}
}

func TestAggregate_SourceFallback(t *testing.T) {
	conns := []schematic.WireConnection{conn("B1A", "BAT1", "BUS1")}
	comps := []schematic.Component{
		comp("BAT1", schematic.TerminalSource, 60),
		comp("BUS1", schematic.TerminalReference, 0),
	}

	res := Aggregate(conns, comps)
	if got := res.Currents["B1"]; got != 60 {
		t.Fatalf("B1 current = %g, want source fallback 60", got)
	}
}

func TestAggregate_Unresolved(t *testing.T) {
	conns := []schematic.WireConnection{
		conn("G4A", "LUG1", "LUG2"), // reference-only circuit
		conn("X9A", "GHOST", ""),    // component missing from the list
	}
	comps := []schematic.Component{
		comp("LUG1", schematic.TerminalReference, 0),
		comp("LUG2", schematic.TerminalReference, 0),
	}

	res := Aggregate(conns, comps)
	if len(res.Currents) != 0 {
		t.Fatalf("currents = %v, want none", res.Currents)
	}
	if !reflect.DeepEqual(res.Unresolved, []string{"G4", "X9"}) {
		t.Fatalf("unresolved = %v", res.Unresolved)
	}
	for _, f := range res.Findings {
		if f.Kind != validate.UnresolvedCircuitCurrent {
			t.Fatalf("finding kind = %s", f.Kind)
		}
		if f.Severity != validate.SeverityWarning {
			t.Fatalf("unresolved current must stay a warning, got %s", f.Severity)
		}
	}
	if len(res.Findings) != 2 {
		t.Fatalf("findings = %v", res.Findings)
	}
}

func TestAggregate_RenamedDuplicateJoinsCircuit(t *testing.T) {
	conns := []schematic.WireConnection{
		conn("G3A", "BAT1", "LAMP1"),
		conn("G3A-2", "BAT1", "LAMP1"),
	}
	comps := []schematic.Component{
		comp("BAT1", schematic.TerminalSource, 60),
		comp("LAMP1", schematic.TerminalLoad, 5),
	}

	res := Aggregate(conns, comps)
	if len(res.Currents) != 1 {
		t.Fatalf("currents = %v, renamed duplicate must share key G3", res.Currents)
	}
	if amps, ok := res.CurrentFor("G3A-2"); !ok || amps != 5 {
		t.Fatalf("CurrentFor(G3A-2) = %g, %v", amps, ok)
	}
}
