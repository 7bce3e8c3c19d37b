// Package config loads and validates the maintly configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for the config file by default.
const DefaultPath = ".maintly.yml"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (MAINTLY_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: MAINTLY_PROVIDER -> provider, etc.
	if err := k.Load(env.Provider("MAINTLY_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MAINTLY_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, google, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingProvider != "" && !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q", c.EmbeddingProvider)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}

	a := c.Agent
	if a.MaxTopK <= 0 || a.MaxWindowDays <= 0 {
		return fmt.Errorf("agent bounds must be positive")
	}
	if a.DefaultTopK <= 0 || a.DefaultTopK > a.MaxTopK {
		return fmt.Errorf("agent default_top_k %d must be in [1, %d]", a.DefaultTopK, a.MaxTopK)
	}
	if a.DefaultWindowDays <= 0 || a.DefaultWindowDays > a.MaxWindowDays {
		return fmt.Errorf("agent default_window_days %d must be in [1, %d]", a.DefaultWindowDays, a.MaxWindowDays)
	}
	if a.TimeoutSeconds <= 0 {
		return fmt.Errorf("agent timeout_seconds must be positive")
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for the
// API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
