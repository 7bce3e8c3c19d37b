package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maintly/maintly/internal/agent"
	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/machines"
	mcpserver "github.com/maintly/maintly/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the maintenance copilot and machine reads as tools.`,
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

		engine, memory, err := buildEngine(cfg, database)
		if err != nil {
			return err
		}

		var idx agent.SimilarityIndex
		if memory != nil {
			idx = memory
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "maintly MCP server started on stdio (db=%s)\n", cfg.DBPath)

		srv := mcpserver.NewServer(engine, machines.NewStore(database), agent.NewStore(database), idx)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
