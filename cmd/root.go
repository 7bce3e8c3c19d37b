// Package cmd contains the maintly CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "maintly",
	Short: "Conversational maintenance copilot for industrial machines",
	Long: `Maintly watches machine telemetry, tracks failure-risk predictions and
answers operator questions in plain language: maintenance
recommendations, risk explanations and top-risk rankings, each grounded
in the machine's recent sensor data.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".maintly.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
