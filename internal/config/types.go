package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// AgentConfig bounds the chat agent's parameter resolution and context
// assembly.
type AgentConfig struct {
	MaxTopK           int `yaml:"max_top_k" koanf:"max_top_k"`
	DefaultTopK       int `yaml:"default_top_k" koanf:"default_top_k"`
	MaxWindowDays     int `yaml:"max_window_days" koanf:"max_window_days"`
	DefaultWindowDays int `yaml:"default_window_days" koanf:"default_window_days"`
	ContextHours      int `yaml:"context_hours" koanf:"context_hours"`
	AnomalyLimit      int `yaml:"anomaly_limit" koanf:"anomaly_limit"`
	TimeoutSeconds    int `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// Config is the top-level maintly configuration, corresponding to
// .maintly.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	DBPath            string       `yaml:"db_path" koanf:"db_path"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	Port              int          `yaml:"port" koanf:"port"`
	Agent             AgentConfig  `yaml:"agent" koanf:"agent"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Model:             "gemini-2.5-flash",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DBPath:            "maintly.db",
		DataDir:           ".maintly",
		Port:              8080,
		Agent: AgentConfig{
			MaxTopK:           20,
			DefaultTopK:       5,
			MaxWindowDays:     90,
			DefaultWindowDays: 7,
			ContextHours:      72,
			AnomalyLimit:      5,
			TimeoutSeconds:    20,
		},
	}
}
