package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/harnesslab/wirebom/engine/analysis"
	"github.com/harnesslab/wirebom/engine/bom"
	"github.com/harnesslab/wirebom/engine/schematic"
)

var (
	permissive bool
	outPath    string
	voltage    float64
	maxDrop    float64
	orphanDist float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <schematic-file>",
	Short: "Validate a schematic and produce its wire bill of materials",
	Long: `Read a parsed schematic (JSON with wire segments and components),
validate its circuit labels, resolve wire endpoints, and analyze each
circuit for voltage drop and ampacity.

Strict validation aborts on label errors; --permissive recovers with
generated ids and renames instead.

Examples:
  wirebom analyze schematic.json
  wirebom analyze --permissive --voltage 24 schematic.json
  wirebom analyze --out bom.json schematic.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&permissive, "permissive", false,
		"recover from label errors instead of aborting")
	analyzeCmd.Flags().StringVarP(&outPath, "out", "o", "",
		"write the full report JSON to this file (default prints a summary)")
	analyzeCmd.Flags().Float64Var(&voltage, "voltage", 12,
		"system voltage")
	analyzeCmd.Flags().Float64Var(&maxDrop, "max-drop", 5,
		"voltage drop warning threshold, percent")
	analyzeCmd.Flags().Float64Var(&orphanDist, "orphan-distance", 10,
		"label to wire distance before a label counts as orphaned, inches")
}

// SchematicFile is the JSON input for analyze.
type SchematicFile struct {
	ID         string                  `json:"id,omitempty"`
	Segments   []schematic.WireSegment `json:"segments"`
	Components []schematic.Component   `json:"components"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read schematic: %w", err)
	}
	var sch SchematicFile
	if err := json.Unmarshal(data, &sch); err != nil {
		return fmt.Errorf("parse schematic: %w", err)
	}

	tables, err := analysis.LoadTables()
	if err != nil {
		return fmt.Errorf("load gauge tables: %w", err)
	}

	logDst := io.Discard
	if verbose {
		logDst = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logDst, nil))

	engine := bom.New(tables, analysis.Config{
		Strict:                !permissive,
		OrphanThresholdUnits:  orphanDist,
		MaxVoltageDropPercent: maxDrop,
		SystemVoltage:         voltage,
	}, logger)

	report, err := engine.Run(context.Background(), sch.Segments, sch.Components)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", filename, err)
	}

	if outPath != "" {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("report written to %s\n", outPath)
	}

	printSummary(report)

	if report.Aborted {
		return fmt.Errorf("validation aborted with %d errors", countSeverity(report, "error"))
	}
	return nil
}

func printSummary(report bom.Report) {
	fmt.Printf("Run %s\n", report.RunID)
	if report.Aborted {
		fmt.Println("Status: ABORTED")
	} else {
		fmt.Printf("Wires: %d, analyzed: %d\n", len(report.Connections), len(report.Analyses))
		fmt.Printf("Total power loss: %.2f W\n", report.Summary.TotalPowerLossWatts)
		fmt.Printf("Mean conductor utilization: %.1f%%\n", report.Summary.MeanUtilizationPercent)
		if w := report.Summary.WorstVoltageDrop; w != nil {
			fmt.Printf("Worst voltage drop: %s at %.2f%% (%.3f V)\n",
				w.CircuitID, w.VoltageDropPercent, w.VoltageDropVolts)
		}
		for _, a := range report.Summary.Overloaded {
			fmt.Printf("OVERLOADED: %s carries %.1f A on %d AWG (%.0f%% of ampacity)\n",
				a.CircuitID, a.CurrentAmps, a.Gauge, a.UtilizationPercent)
		}
		for _, a := range report.Summary.HighDrop {
			fmt.Printf("HIGH DROP: %s drops %.2f%% (limit exceeded)\n",
				a.CircuitID, a.VoltageDropPercent)
		}
	}
	for _, f := range report.Findings {
		fmt.Printf("[%s] %s\n", f.Severity, f.Message)
	}
}

func countSeverity(report bom.Report, severity string) int {
	n := 0
	for _, f := range report.Findings {
		if string(f.Severity) == severity {
			n++
		}
	}
	return n
}
