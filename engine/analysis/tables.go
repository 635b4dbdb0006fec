// Package analysis computes per-wire electrical figures (resistance, voltage
// drop, ampacity utilization, power loss) from resolved circuit currents.
package analysis

import (
	"fmt"
	"sort"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed awg.yaml
var awgYAML []byte

// Tables holds the AWG reference data, keyed by gauge. Loaded once and
// treated as immutable; safe to share across concurrent runs.
type Tables struct {
	resistancePerFoot map[int]float64
	ampacity          map[int]float64
}

type tableFile struct {
	Gauges []struct {
		AWG               int     `yaml:"awg"`
		ResistancePerFoot float64 `yaml:"resistance_per_foot"`
		Ampacity          float64 `yaml:"ampacity"`
	} `yaml:"gauges"`
}

// NewTables builds tables from explicit maps. Tests use this to substitute
// synthetic values.
func NewTables(resistancePerFoot, ampacity map[int]float64) *Tables {
	r := make(map[int]float64, len(resistancePerFoot))
	for k, v := range resistancePerFoot {
		r[k] = v
	}
	a := make(map[int]float64, len(ampacity))
	for k, v := range ampacity {
		a[k] = v
	}
	return &Tables{resistancePerFoot: r, ampacity: a}
}

// LoadTables parses the embedded AWG reference data.
func LoadTables() (*Tables, error) {
	var f tableFile
	if err := yaml.Unmarshal(awgYAML, &f); err != nil {
		return nil, fmt.Errorf("analysis: parse awg tables: %w", err)
	}
	t := &Tables{
		resistancePerFoot: make(map[int]float64, len(f.Gauges)),
		ampacity:          make(map[int]float64, len(f.Gauges)),
	}
	for _, g := range f.Gauges {
		if g.ResistancePerFoot <= 0 || g.Ampacity <= 0 {
			return nil, fmt.Errorf("analysis: awg %d has non-positive table values", g.AWG)
		}
		t.resistancePerFoot[g.AWG] = g.ResistancePerFoot
		t.ampacity[g.AWG] = g.Ampacity
	}
	return t, nil
}

// MustLoadTables is LoadTables for program init paths; the embedded file is
// part of the binary, so a parse failure is a build defect.
func MustLoadTables() *Tables {
	t, err := LoadTables()
	if err != nil {
		panic(err)
	}
	return t
}

// Knows reports whether the gauge appears in both tables.
func (t *Tables) Knows(awg int) bool {
	_, r := t.resistancePerFoot[awg]
	_, a := t.ampacity[awg]
	return r && a
}

// ResistancePerFoot returns ohms per foot for the gauge.
func (t *Tables) ResistancePerFoot(awg int) (float64, bool) {
	v, ok := t.resistancePerFoot[awg]
	return v, ok
}

// Ampacity returns the bundled ampacity for the gauge.
func (t *Tables) Ampacity(awg int) (float64, bool) {
	v, ok := t.ampacity[awg]
	return v, ok
}

// Gauges returns the known gauges, largest wire (smallest AWG number) first.
func (t *Tables) Gauges() []int {
	out := make([]int, 0, len(t.resistancePerFoot))
	for g := range t.resistancePerFoot {
		out = append(out, g)
	}
	sort.Ints(out)
	return out
}
