package cmd

import (
	"github.com/spf13/cobra"

	"github.com/maintly/maintly/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize maintly configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure maintly and generates a .maintly.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
