package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags.
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "indigo",
	Short: "Replay action scenarios against a typed state store",
	Long: `Indigo is a typed, extensible state store for Go.

The indigo command loads YAML scenarios, dispatches their actions through
reducers and listeners, and checks the resulting state.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&output, "output", textFormat, "Output format (text, json, yaml)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
