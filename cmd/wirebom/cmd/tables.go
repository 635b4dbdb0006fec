package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harnesslab/wirebom/engine/analysis"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show the wire gauge resistance and ampacity tables",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	tables, err := analysis.LoadTables()
	if err != nil {
		return err
	}

	fmt.Printf("%-5s %-22s %s\n", "AWG", "Resistance (ohm/ft)", "Ampacity (A, bundled)")
	for _, awg := range tables.Gauges() {
		res, _ := tables.ResistancePerFoot(awg)
		amp, _ := tables.Ampacity(awg)
		fmt.Printf("%-5d %-22.6f %.1f\n", awg, res, amp)
	}
	return nil
}
