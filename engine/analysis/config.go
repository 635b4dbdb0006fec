package analysis

// Config is the run configuration shared by the validator and analyzer.
// Immutable once constructed; safe to share across concurrent runs.
type Config struct {
	// Strict aborts on malformed labeling instead of warning and recovering.
	Strict bool `json:"strict"`
	// OrphanThresholdUnits is the label-to-wire distance limit in schematic
	// units before a label counts as orphaned.
	OrphanThresholdUnits float64 `json:"orphan_threshold_units"`
	// MaxVoltageDropPercent flags wires whose drop exceeds this share of the
	// system voltage.
	MaxVoltageDropPercent float64 `json:"max_voltage_drop_percent"`
	// SystemVoltage is the nominal bus voltage, caller-specified (12 for a
	// battery-only system, 14 with the alternator charging).
	SystemVoltage float64 `json:"system_voltage"`
}

// DefaultConfig returns the documented defaults: strict, 10 unit orphan
// threshold, 5 percent drop limit, 12 volt system.
func DefaultConfig() Config {
	return Config{
		Strict:                true,
		OrphanThresholdUnits:  10.0,
		MaxVoltageDropPercent: 5.0,
		SystemVoltage:         12.0,
	}
}

// withDefaults fills zero values so a partially populated Config behaves.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.OrphanThresholdUnits <= 0 {
		c.OrphanThresholdUnits = d.OrphanThresholdUnits
	}
	if c.MaxVoltageDropPercent <= 0 {
		c.MaxVoltageDropPercent = d.MaxVoltageDropPercent
	}
	if c.SystemVoltage <= 0 {
		c.SystemVoltage = d.SystemVoltage
	}
	return c
}
