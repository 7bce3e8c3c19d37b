package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/progress"
	"github.com/maintly/maintly/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo fleet with telemetry, predictions and anomalies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if err := seed.Run(cmd.Context(), database, progress.NewReporter()); err != nil {
			return err
		}
		fmt.Println("Demo fleet loaded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
