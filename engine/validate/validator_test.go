package validate

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/harnesslab/wirebom/engine/schematic"
)

// seg builds a horizontal test segment with labels sitting on its midpoint.
func seg(id string, y float64, labels ...string) schematic.WireSegment {
	w := schematic.WireSegment{
		ID:    id,
		Start: schematic.Position{X: 0, Y: y},
		End:   schematic.Position{X: 48, Y: y},
		Gauge: 14,
		Color: "red",
	}
	for _, text := range labels {
		w.Labels = append(w.Labels, schematic.Label{Text: text, Position: schematic.Position{X: 24, Y: y}})
	}
	return w
}

func testComponents() []schematic.Component {
	return []schematic.Component{
		{Ref: "BAT1", Terminal: schematic.TerminalSource, CurrentAmps: 30, Position: schematic.Position3{X: 0, Y: 0}},
		{Ref: "LAMP1", Terminal: schematic.TerminalLoad, CurrentAmps: 5, Position: schematic.Position3{X: 48, Y: 0}},
	}
}

func circuitIDs(conns []schematic.WireConnection) []string {
	ids := make([]string, len(conns))
	for i, c := range conns {
		ids[i] = c.CircuitID
	}
	return ids
}

func TestValidateAll_CleanSchematic(t *testing.T) {
	segs := []schematic.WireSegment{seg("w1", 0, "L1A"), seg("w2", 2, "L2A")}
	res := New(DefaultConfig()).ValidateAll(segs, testComponents())

	if res.ShouldAbort {
		t.Fatalf("clean schematic should not abort: %v", res.Findings)
	}
	if got := circuitIDs(res.Connections); !reflect.DeepEqual(got, []string{"L1A", "L2A"}) {
		t.Fatalf("circuit ids = %v", got)
	}
	if len(res.Findings) != 0 {
		t.Fatalf("unexpected findings: %v", res.Findings)
	}
}

func TestValidateAll_DuplicateRename_Permissive(t *testing.T) {
	segs := []schematic.WireSegment{
		seg("w1", 0, "G3A"),
		seg("w2", 2, "G1A"),
		seg("w3", 4, "G3A"),
	}
	res := New(Config{Strict: false, OrphanThresholdUnits: 10}).ValidateAll(segs, testComponents())

	if res.ShouldAbort {
		t.Fatal("permissive mode must not abort")
	}
	want := []string{"G3A", "G1A", "G3A-2"}
	if got := circuitIDs(res.Connections); !reflect.DeepEqual(got, want) {
		t.Fatalf("circuit ids = %v, want %v", got, want)
	}
	dups := findByKind(res.Findings, DuplicateCircuitID)
	if len(dups) != 1 {
		t.Fatalf("want one duplicate finding, got %v", res.Findings)
	}
	if dups[0].Severity != SeverityWarning {
		t.Fatalf("duplicate severity = %s, want warning", dups[0].Severity)
	}
}

func TestValidateAll_DuplicateIsError_Strict(t *testing.T) {
	segs := []schematic.WireSegment{seg("w1", 0, "G3A"), seg("w2", 2, "G3A")}
	res := New(DefaultConfig()).ValidateAll(segs, testComponents())

	if !res.ShouldAbort {
		t.Fatal("strict duplicate must abort")
	}
	if len(res.Connections) != 0 {
		t.Fatalf("aborted run produced %d connections", len(res.Connections))
	}
	dups := findByKind(res.Findings, DuplicateCircuitID)
	if len(dups) != 1 || dups[0].Severity != SeverityError {
		t.Fatalf("findings = %v", res.Findings)
	}
}

func TestValidateAll_NoLabels_Permissive(t *testing.T) {
	var segs []schematic.WireSegment
	for i := 0; i < 7; i++ {
		segs = append(segs, seg(fmt.Sprintf("w%d", i+1), float64(i)))
	}
	res := New(Config{Strict: false, OrphanThresholdUnits: 10}).ValidateAll(segs, testComponents())

	if res.ShouldAbort {
		t.Fatal("permissive mode must not abort")
	}
	want := []string{"UNK1A", "UNK2A", "UNK3A", "UNK4A", "UNK5A", "UNK6A", "UNK7A"}
	if got := circuitIDs(res.Connections); !reflect.DeepEqual(got, want) {
		t.Fatalf("circuit ids = %v, want %v", got, want)
	}
	if got := findByKind(res.Findings, NoCircuitLabelsFound); len(got) != 1 {
		t.Fatalf("want one schematic-wide finding, got %v", res.Findings)
	}
	// The schematic-wide check replaces per-wire missing findings.
	if got := findByKind(res.Findings, MissingCircuitID); len(got) != 0 {
		t.Fatalf("unexpected per-wire findings: %v", got)
	}
}

func TestValidateAll_NoLabels_Strict(t *testing.T) {
	segs := []schematic.WireSegment{seg("w1", 0), seg("w2", 2)}
	res := New(DefaultConfig()).ValidateAll(segs, testComponents())

	if !res.ShouldAbort {
		t.Fatal("strict mode with no labels must abort")
	}
	if len(res.Connections) != 0 {
		t.Fatal("aborted run must produce no connections")
	}
}

func TestValidateAll_MissingID_Permissive(t *testing.T) {
	segs := []schematic.WireSegment{seg("w1", 0, "L1A"), seg("w2", 2, "just a note")}
	res := New(Config{Strict: false, OrphanThresholdUnits: 10}).ValidateAll(segs, testComponents())

	want := []string{"L1A", "UNK2A"}
	if got := circuitIDs(res.Connections); !reflect.DeepEqual(got, want) {
		t.Fatalf("circuit ids = %v, want %v", got, want)
	}
	if got := res.Connections[1].Notes; !reflect.DeepEqual(got, []string{"just a note"}) {
		t.Fatalf("notes = %v", got)
	}
}

func TestValidateAll_MultipleIDs_Permissive(t *testing.T) {
	segs := []schematic.WireSegment{seg("w1", 0, "L1A", "L1B", "spare")}
	res := New(Config{Strict: false, OrphanThresholdUnits: 10}).ValidateAll(segs, testComponents())

	if got := circuitIDs(res.Connections); !reflect.DeepEqual(got, []string{"L1A"}) {
		t.Fatalf("circuit ids = %v", got)
	}
	// Surplus ids are demoted to notes after the free-text labels.
	if got := res.Connections[0].Notes; !reflect.DeepEqual(got, []string{"spare", "L1B"}) {
		t.Fatalf("notes = %v", got)
	}
	if got := findByKind(res.Findings, MultipleCircuitIDs); len(got) != 1 || got[0].WireID != "w1" {
		t.Fatalf("findings = %v", res.Findings)
	}
}

func TestValidateAll_OrphanLabel_NeverPerWire(t *testing.T) {
	far := schematic.Label{Text: "floating note", Position: schematic.Position{X: 500, Y: 500}}
	s := seg("w1", 0, "L1A")
	s.Labels = append(s.Labels, far)

	for _, strict := range []bool{true, false} {
		res := New(Config{Strict: strict, OrphanThresholdUnits: 10}).ValidateAll(
			[]schematic.WireSegment{s}, testComponents())

		orphans := findByKind(res.Findings, OrphanLabel)
		if len(orphans) != 1 {
			t.Fatalf("strict=%v: want one orphan finding, got %v", strict, res.Findings)
		}
		if orphans[0].Severity != SeverityWarning {
			t.Fatalf("strict=%v: orphan severity = %s, must stay a warning", strict, orphans[0].Severity)
		}
		if orphans[0].WireID != "" {
			t.Fatalf("strict=%v: orphan finding attached to wire %q", strict, orphans[0].WireID)
		}
		if res.ShouldAbort {
			t.Fatalf("strict=%v: orphan label alone must not abort", strict)
		}
	}
}

func TestValidateAll_Idempotent(t *testing.T) {
	segs := []schematic.WireSegment{
		seg("w1", 0, "G3A"),
		seg("w2", 2),
		seg("w3", 4, "G3A", "G3B"),
	}
	cfg := Config{Strict: false, OrphanThresholdUnits: 10}
	first := New(cfg).ValidateAll(segs, testComponents())
	for i := 0; i < 5; i++ {
		got := New(cfg).ValidateAll(segs, testComponents())
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}

func TestValidateAll_EndpointResolution(t *testing.T) {
	segs := []schematic.WireSegment{seg("w1", 0, "L1A")}
	res := New(DefaultConfig()).ValidateAll(segs, testComponents())

	c := res.Connections[0]
	if c.From.Component != "BAT1" || c.To.Component != "LAMP1" {
		t.Fatalf("endpoints = %+v / %+v", c.From, c.To)
	}
	if c.From.Pin != "1" || c.To.Pin != "1" {
		t.Fatalf("pins = %q / %q", c.From.Pin, c.To.Pin)
	}
	if c.LengthInches != 48 {
		t.Fatalf("length = %g, want 48", c.LengthInches)
	}
}

func TestValidateAll_UnattachedEndpointWarned(t *testing.T) {
	s := seg("w1", 300, "L1A") // far from every component
	res := New(DefaultConfig()).ValidateAll([]schematic.WireSegment{s}, testComponents())

	// The label sits on its own wire so it is not orphaned; only the
	// endpoints are too far from every component.
	if len(res.Connections) != 1 {
		t.Fatalf("connections = %v, findings = %v", res.Connections, res.Findings)
	}
	found := false
	for _, w := range res.Connections[0].Warnings {
		if w == "endpoint not attached to any component" {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v", res.Connections[0].Warnings)
	}
}

func findByKind(findings []Finding, k Kind) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}
