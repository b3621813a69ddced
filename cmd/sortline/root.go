// Package main provides the command-line interface of the sortline
// simulator.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sortline",
	Short: "Sortline simulates a mode-driven sortation line.",
	Long: `Sortline simulates a sortation line built from an intake loop, ` +
		`a serpentine belt grid, a drain line, and an unload loop with ` +
		`scheduled depot service. The line runs in COLLECT, DRAIN, or ` +
		`HANG mode and can be observed and controlled over HTTP.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}

	atexit.Exit(0)
}
