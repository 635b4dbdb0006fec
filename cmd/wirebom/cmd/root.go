package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "wirebom",
	Short: "Schematic wire bill-of-materials generator",
	Long: `wirebom validates labeled wire segments from an electrical schematic,
groups them into circuits, and produces a wire bill of materials with
voltage drop and ampacity analysis.

Examples:
  wirebom analyze schematic.json                     # Validate and analyze a schematic
  wirebom analyze --permissive --out bom.json sch.json
  wirebom tables                                     # Show the wire gauge tables`,
	Version: "1.2.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
