// Package server wires the HTTP surface: middleware, CORS, health check
// and the feature-package route registrations.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maintly/maintly/internal/agent"
	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/machines"
	"github.com/maintly/maintly/internal/tickets"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server is the maintly HTTP server.
type Server struct {
	cfg        Config
	db         *db.DB
	engine     *agent.Engine
	memory     agent.SimilarityIndex
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all routes registered. memory may be nil when
// the similarity index is disabled.
func New(cfg Config, database *db.DB, engine *agent.Engine, memory agent.SimilarityIndex) *Server {
	s := &Server{
		cfg:    cfg,
		db:     database,
		engine: engine,
		memory: memory,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	machines.RegisterRoutes(r, machines.NewStore(s.db))
	tickets.RegisterRoutes(r, tickets.NewStore(s.db))
	agent.RegisterRoutes(r, s.engine, s.memory)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("maintly server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
