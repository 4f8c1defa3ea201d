// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DOCTALK_* prefix, DATABASE_URL override)
//  2. Config file (~/.doctalk/config.yaml, or ./config.yaml)
//  3. Default values
//
// Categories:
//   - AI: provider, chat model, embedder model, call timeout
//   - Retrieval: chunk size/overlap, retriever depth, relevance thresholds
//   - Catalog: PostgreSQL connection for the document catalog
//   - Tracing: OTLP agent endpoint
//
// Sensitive values (passwords, API keys) are never logged.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation, checked with errors.Is.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the chat model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model name is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidThreshold indicates a relevance threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("invalid relevance threshold")

	// ErrInvalidChunking indicates chunk size/overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidRetrieverDocs indicates the retriever depth is out of range.
	ErrInvalidRetrieverDocs = errors.New("invalid retriever depth")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidTimeout indicates the model call timeout is non-positive.
	ErrInvalidTimeout = errors.New("invalid model call timeout")
)

// Supported AI providers.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration.
type Config struct {
	// AI provider settings
	Provider      string `mapstructure:"provider"`
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`
	OllamaHost    string `mapstructure:"ollama_host"`
	Language      string `mapstructure:"language"`

	// ModelTimeoutSec bounds every external model call (rewrite, synthesis,
	// suggestions, embeddings). A timeout is a generation error, not a crash.
	ModelTimeoutSec int `mapstructure:"model_timeout_sec"`

	// Retrieval settings
	ChunkSize         int     `mapstructure:"chunk_size"`
	ChunkOverlap      int     `mapstructure:"chunk_overlap"`
	RetrieverDocs     int     `mapstructure:"retriever_docs"`
	ThresholdDocs     float64 `mapstructure:"relevance_threshold_docs"`
	ThresholdPrompt   float64 `mapstructure:"relevance_threshold_prompt"`
	HistoryDepth      int     `mapstructure:"history_depth"`
	MaxContextTokens  int     `mapstructure:"max_context_tokens"`
	MaxSuggestions    int     `mapstructure:"max_suggestions"`
	IndexSubdirectory string  `mapstructure:"index_subdirectory"`

	// Catalog (PostgreSQL). CatalogEnabled gates the whole subsystem so the
	// pipeline can run without a database.
	CatalogEnabled   bool   `mapstructure:"catalog_enabled"`
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// HTTP server
	ServerAddr string `mapstructure:"server_addr"`

	// KnowledgeRoots restricts API-supplied folder paths to these root
	// directories. Empty means unrestricted, the right default for the
	// local CLI.
	KnowledgeRoots []string `mapstructure:"knowledge_roots"`

	// Tracing (OTLP exporter to a local agent)
	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AgentHost   string `mapstructure:"agent_host"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

// ModelTimeout returns the per-call timeout as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutSec) * time.Second
}

// Load reads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	setDefaults()

	configDir, err := configDirPath()
	if err == nil {
		viper.AddConfigPath(configDir)
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("DOCTALK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine: defaults + env apply.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers viper defaults for every setting.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", "gemini-embedding-001")
	viper.SetDefault("ollama_host", "http://localhost:11434")
	viper.SetDefault("language", "en")
	viper.SetDefault("model_timeout_sec", 60)

	viper.SetDefault("chunk_size", 1000)
	viper.SetDefault("chunk_overlap", 100)
	viper.SetDefault("retriever_docs", 5)
	viper.SetDefault("relevance_threshold_docs", 0.7)
	viper.SetDefault("relevance_threshold_prompt", 0.8)
	viper.SetDefault("history_depth", 10)
	viper.SetDefault("max_context_tokens", 128000)
	viper.SetDefault("max_suggestions", 3)
	viper.SetDefault("index_subdirectory", "vector_store")

	viper.SetDefault("catalog_enabled", false)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "doctalk")
	viper.SetDefault("postgres_password", "")
	viper.SetDefault("postgres_db_name", "doctalk")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("server_addr", "127.0.0.1:3500")
	viper.SetDefault("knowledge_roots", []string{})

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.agent_host", "localhost:4318")
	viper.SetDefault("tracing.service_name", "doctalk")
	viper.SetDefault("tracing.environment", "dev")
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (expected gemini, ollama or openai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}

	for _, th := range []float64{c.ThresholdDocs, c.ThresholdPrompt} {
		if th < 0 || th > 1 {
			return fmt.Errorf("%w: %v is outside [0, 1]", ErrInvalidThreshold, th)
		}
	}

	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, c.ChunkSize, c.ChunkOverlap)
	}

	if c.RetrieverDocs < 1 || c.RetrieverDocs > 50 {
		return fmt.Errorf("%w: %d (expected 1..50)", ErrInvalidRetrieverDocs, c.RetrieverDocs)
	}

	if c.ModelTimeoutSec <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, c.ModelTimeoutSec)
	}

	if c.CatalogEnabled {
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
		}
	}

	return nil
}

// configDirPath returns ~/.doctalk, creating it if needed.
func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".doctalk")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}
