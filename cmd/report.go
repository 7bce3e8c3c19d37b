package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/machines"
	"github.com/maintly/maintly/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a fleet health report",
	Long:  `Collects the fleet's current risk state, recent anomalies and latest recommendations into a standalone HTML report.`,
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

		data, err := report.Collect(cmd.Context(), machines.NewStore(database))
		if err != nil {
			return err
		}

		page, err := report.HTML(data)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportOut, page, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}

		fmt.Printf("Report written to %s (%d machines)\n", reportOut, len(data.Machines))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "fleet-report.html", "output HTML file")
	rootCmd.AddCommand(reportCmd)
}
