package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/maintly/maintly/internal/agent"
	"github.com/maintly/maintly/internal/config"
	"github.com/maintly/maintly/internal/db"
	"github.com/maintly/maintly/internal/embeddings"
	"github.com/maintly/maintly/internal/llm"
	"github.com/maintly/maintly/internal/vectordb"
)

// loadConfig loads and validates the config, providing a friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `maintly init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildEngine assembles the chat engine and its optional similarity index
// from config. The returned memory is nil when no embedder can be built.
func buildEngine(cfg *config.Config, database *db.DB) (*agent.Engine, *vectordb.RecommendationMemory, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	inference := agent.NewOrchestrator(provider, cfg.Model,
		time.Duration(cfg.Agent.TimeoutSeconds)*time.Second)

	memory := buildMemory(cfg)

	pol := agent.NewPolicy(cfg.Agent.MaxTopK, cfg.Agent.DefaultTopK,
		cfg.Agent.MaxWindowDays, cfg.Agent.DefaultWindowDays)

	var indexer agent.RecommendationIndexer
	if memory != nil {
		indexer = memory
	}
	engine := agent.NewEngine(agent.NewStore(database), inference, indexer, pol,
		cfg.Agent.ContextHours, cfg.Agent.AnomalyLimit)
	return engine, memory, nil
}

// buildMemory creates the recommendation similarity index, restoring any
// persisted state from the data dir. A missing embedder key only disables
// the index.
func buildMemory(cfg *config.Config) *vectordb.RecommendationMemory {
	embProvider := cfg.EmbeddingProvider
	if embProvider == "" {
		embProvider = cfg.Provider
	}
	embedder, err := embeddings.NewEmbedder(string(embProvider), cfg.EmbeddingModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: similarity index disabled: %v\n", err)
		return nil
	}

	memory, err := vectordb.NewRecommendationMemory(embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: similarity index disabled: %v\n", err)
		return nil
	}
	if err := memory.Load(cfg.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load similarity index: %v\n", err)
	}
	return memory
}
