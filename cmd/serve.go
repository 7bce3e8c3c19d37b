package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maintly/maintly/internal/agent"
	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/server"
)

var serveAllowAll bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the maintly HTTP server",
	Long:  `Starts the HTTP API: machine telemetry reads, maintenance tickets, the chat agent and its WebSocket channel.`,
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
		srv := server.New(server.Config{Port: cfg.Port, AllowAll: serveAllowAll}, database, engine, idx)

		// Persist the similarity index on shutdown.
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			if memory != nil {
				if err := memory.Persist(cfg.DataDir); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: persisting similarity index: %v\n", err)
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
