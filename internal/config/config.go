// Package config holds govreporter configuration: YAML file settings with
// environment overlays for secrets and chunking budgets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"govreporter/internal/chunking"
)

// Config holds all govreporter configuration.
type Config struct {
	// Qdrant vector store connection
	Qdrant QdrantConfig `yaml:"qdrant"`

	// OpenAI models for embeddings and metadata extraction
	OpenAI OpenAIConfig `yaml:"openai"`

	// Ingestion pipeline settings
	Ingest IngestConfig `yaml:"ingest"`

	// Chunking budgets per document type
	Chunking ChunkingConfig `yaml:"chunking"`

	// Filesystem layout
	Paths PathsConfig `yaml:"paths"`
}

// QdrantConfig configures the vector store connection.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	UseTLS bool   `yaml:"use_tls"`
	APIKey string `yaml:"api_key"`
}

// OpenAIConfig configures the embedding and chat models.
type OpenAIConfig struct {
	EmbeddingModel string `yaml:"embedding_model"` // Default: text-embedding-3-small
	ChatModel      string `yaml:"chat_model"`      // Default: gpt-4o-mini
}

// IngestConfig configures the ingestion orchestrator.
type IngestConfig struct {
	BatchSize       int `yaml:"batch_size"`        // Documents per batch (default 50)
	UpsertBatchSize int `yaml:"upsert_batch_size"` // Points per Qdrant upsert (default 100)
	WorkerCount     int `yaml:"worker_count"`      // Parallel document workers (default 1)
}

// ChunkingConfig holds per-document-type token budgets.
type ChunkingConfig struct {
	SCOTUS chunking.Config `yaml:"scotus"`
	EO     chunking.Config `yaml:"eo"`
}

// PathsConfig configures the filesystem layout.
type PathsConfig struct {
	ProgressDir string `yaml:"progress_dir"` // SQLite progress trackers
}

// DefaultConfig returns sensible defaults. Chunking budgets pick up
// SCOTUS_*/EO_* environment overrides.
func DefaultConfig() Config {
	return Config{
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		OpenAI: OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
		},
		Ingest: IngestConfig{
			BatchSize:       50,
			UpsertBatchSize: 100,
			WorkerCount:     1,
		},
		Chunking: ChunkingConfig{
			SCOTUS: chunking.SCOTUSConfig(),
			EO:     chunking.EOConfig(),
		},
		Paths: PathsConfig{
			ProgressDir: filepath.Join("data", "progress"),
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks config sanity.
func (c Config) Validate() error {
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be positive: %d", c.Ingest.BatchSize)
	}
	if c.Ingest.UpsertBatchSize <= 0 {
		return fmt.Errorf("ingest.upsert_batch_size must be positive: %d", c.Ingest.UpsertBatchSize)
	}
	if c.Ingest.WorkerCount <= 0 {
		return fmt.Errorf("ingest.worker_count must be positive: %d", c.Ingest.WorkerCount)
	}
	if err := c.Chunking.SCOTUS.Validate(); err != nil {
		return fmt.Errorf("chunking.scotus: %w", err)
	}
	if err := c.Chunking.EO.Validate(); err != nil {
		return fmt.Errorf("chunking.eo: %w", err)
	}
	return nil
}

// =============================================================================
// REQUIRED SECRETS
// =============================================================================

// Environment variable names for upstream credentials.
const (
	EnvCourtListenerToken = "COURT_LISTENER_API_TOKEN"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
)

// CourtListenerToken returns the CourtListener API token. Absence is a
// construction-time error naming the variable.
func CourtListenerToken() (string, error) {
	return requireEnv(EnvCourtListenerToken)
}

// OpenAIAPIKey returns the OpenAI API key. Absence is a construction-time
// error naming the variable.
func OpenAIAPIKey() (string, error) {
	return requireEnv(EnvOpenAIAPIKey)
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is not set", name)
	}
	return v, nil
}
