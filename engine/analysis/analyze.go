package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/harnesslab/wirebom/engine/circuit"
	"github.com/harnesslab/wirebom/engine/schematic"
	"github.com/harnesslab/wirebom/pkg/fn"
)

// Summary aggregates the whole run's electrical picture.
type Summary struct {
	TotalPowerLossWatts    float64                  `json:"total_power_loss_watts"`
	MeanUtilizationPercent float64                  `json:"mean_utilization_percent"`
	WorstVoltageDrop       *schematic.WireAnalysis  `json:"worst_voltage_drop,omitempty"`
	Overloaded             []schematic.WireAnalysis `json:"overloaded,omitempty"`
	HighDrop               []schematic.WireAnalysis `json:"high_drop,omitempty"`
}

// Analyzer computes per-wire electrical figures. The tables and config are
// read-only; one Analyzer may serve concurrent runs.
type Analyzer struct {
	tables *Tables
	cfg    Config
}

// New creates an Analyzer.
func New(tables *Tables, cfg Config) *Analyzer {
	return &Analyzer{tables: tables, cfg: cfg.withDefaults()}
}

// Analyze computes one WireAnalysis per connection with a resolved circuit
// current. Wires on unresolved circuits (or with a gauge missing from the
// tables) are skipped here; the aggregator has already surfaced a finding
// for them, and they stay in the bill of materials.
//
// Voltage drop convention: the wire length is the drawn one-way run, and the
// return conductor is assumed to match it, so the drop is computed over the
// round trip: drop = current x resistance x 2. The dedicated fixture in
// analyze_test.go pins this down with a hand-computed value.
func (a *Analyzer) Analyze(conns []schematic.WireConnection, res circuit.Resolution) ([]schematic.WireAnalysis, Summary) {
	var analyses []schematic.WireAnalysis
	for _, c := range conns {
		amps, ok := res.CurrentFor(c.CircuitID)
		if !ok {
			continue
		}
		perFoot, ok := a.tables.ResistancePerFoot(c.Gauge)
		if !ok {
			continue
		}
		ampacity, ok := a.tables.Ampacity(c.Gauge)
		if !ok {
			continue
		}

		resistance := perFoot * (c.LengthInches / 12)
		dropVolts := amps * resistance * 2
		analyses = append(analyses, schematic.WireAnalysis{
			CircuitID:          c.CircuitID,
			CurrentAmps:        amps,
			Gauge:              c.Gauge,
			LengthInches:       c.LengthInches,
			ResistanceOhms:     resistance,
			VoltageDropVolts:   dropVolts,
			VoltageDropPercent: 100 * dropVolts / a.cfg.SystemVoltage,
			AmpacityAmps:       ampacity,
			UtilizationPercent: 100 * amps / ampacity,
			PowerLossWatts:     amps * amps * resistance,
		})
	}
	return analyses, a.summarize(analyses)
}

func (a *Analyzer) summarize(analyses []schematic.WireAnalysis) Summary {
	if len(analyses) == 0 {
		return Summary{}
	}

	losses := fn.Map(analyses, func(w schematic.WireAnalysis) float64 { return w.PowerLossWatts })
	utils := fn.Map(analyses, func(w schematic.WireAnalysis) float64 { return w.UtilizationPercent })

	s := Summary{
		TotalPowerLossWatts:    floats.Sum(losses),
		MeanUtilizationPercent: stat.Mean(utils, nil),
		Overloaded:             fn.Filter(analyses, schematic.WireAnalysis.Overloaded),
		HighDrop: fn.Filter(analyses, func(w schematic.WireAnalysis) bool {
			return w.VoltageDropPercent > a.cfg.MaxVoltageDropPercent
		}),
	}

	// Worst drop, ties broken by circuit id ascending: sort by id first so
	// MaxBy's first-wins tie behavior lands on the smallest id.
	byID := make([]schematic.WireAnalysis, len(analyses))
	copy(byID, analyses)
	sort.Slice(byID, func(i, j int) bool { return byID[i].CircuitID < byID[j].CircuitID })
	if worst, ok := fn.MaxBy(byID, func(w schematic.WireAnalysis) float64 { return w.VoltageDropPercent }); ok {
		s.WorstVoltageDrop = &worst
	}
	return s
}
