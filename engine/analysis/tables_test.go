package analysis

import "testing"

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables()
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	r, ok := tables.ResistancePerFoot(12)
	if !ok || r != 0.001588 {
		t.Fatalf("12 AWG resistance = %v, %v", r, ok)
	}
	a, ok := tables.Ampacity(12)
	if !ok || a != 25 {
		t.Fatalf("12 AWG ampacity = %v, %v", a, ok)
	}
	if tables.Knows(13) {
		t.Fatal("odd gauge 13 must not be known")
	}
	if gauges := tables.Gauges(); gauges[0] != 0 || gauges[len(gauges)-1] != 20 {
		t.Fatalf("gauges = %v", gauges)
	}
}

func TestTables_EveryGaugeInBothTables(t *testing.T) {
	tables := MustLoadTables()
	for _, g := range tables.Gauges() {
		if !tables.Knows(g) {
			t.Errorf("gauge %d missing from one table", g)
		}
	}
}

func TestNewTables_CopiesInput(t *testing.T) {
	r := map[int]float64{10: 0.001}
	a := map[int]float64{10: 30}
	tables := NewTables(r, a)
	r[10] = 99 // mutating the caller's map must not leak in
	if got, _ := tables.ResistancePerFoot(10); got != 0.001 {
		t.Fatalf("resistance = %v, tables must copy their input", got)
	}
}
