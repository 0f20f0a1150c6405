// Package config loads engine configuration from a JSON file with
// environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/embeddings"
)

type Config struct {
	Workspace   string            `json:"workspace" env:"OPENCLAW_WORKSPACE"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	Retrieval   RetrievalConfig   `json:"retrieval"`
	Maintenance MaintenanceConfig `json:"maintenance"`
}

// EmbeddingConfig selects exactly one provider backend. Provider is the
// tag: "gateway" needs no credentials, "hosted" requires APIKey.
type EmbeddingConfig struct {
	Provider       string `json:"provider" env:"OPENCLAW_EMBEDDING_PROVIDER"`
	BaseURL        string `json:"base_url" env:"OPENCLAW_EMBEDDING_BASE_URL"`
	APIKey         string `json:"api_key" env:"OPENCLAW_EMBEDDING_API_KEY"`
	Model          string `json:"model" env:"OPENCLAW_EMBEDDING_MODEL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"OPENCLAW_EMBEDDING_TIMEOUT_SECONDS"`
}

type RetrievalConfig struct {
	TopK           int     `json:"top_k" env:"OPENCLAW_RETRIEVAL_TOP_K"`
	CandidatePool  int     `json:"candidate_pool" env:"OPENCLAW_RETRIEVAL_CANDIDATE_POOL"`
	SemanticWeight float64 `json:"semantic_weight" env:"OPENCLAW_RETRIEVAL_SEMANTIC_WEIGHT"`
}

type MaintenanceConfig struct {
	Enabled  bool   `json:"enabled" env:"OPENCLAW_MAINTENANCE_ENABLED"`
	Schedule string `json:"schedule" env:"OPENCLAW_MAINTENANCE_SCHEDULE"`
}

// DefaultConfig returns the engine defaults used when no file or
// environment overrides are present.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Workspace: filepath.Join(home, ".openclaw"),
		Embedding: EmbeddingConfig{
			Provider:       string(embeddings.KindGateway),
			Model:          "nomic-embed-text",
			TimeoutSeconds: 5,
		},
		Retrieval: RetrievalConfig{
			TopK:           10,
			CandidatePool:  50,
			SemanticWeight: 0.6,
		},
		Maintenance: MaintenanceConfig{
			Enabled:  false,
			Schedule: "0 4 * * *",
		},
	}
}

// Load reads configPath (if it exists), applies environment overrides,
// then validates. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch embeddings.Kind(c.Embedding.Provider) {
	case embeddings.KindGateway:
	case embeddings.KindHosted:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("config: hosted embedding provider requires api_key")
		}
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}

	if w := c.Retrieval.SemanticWeight; w < 0 || w > 1 {
		return fmt.Errorf("config: semantic_weight %v outside [0,1]", w)
	}

	if c.Maintenance.Enabled {
		if !gronx.New().IsValid(c.Maintenance.Schedule) {
			return fmt.Errorf("config: invalid maintenance schedule %q", c.Maintenance.Schedule)
		}
	}
	return nil
}

// EmbeddingProvider builds the configured provider backend.
func (c *Config) EmbeddingProvider() (embeddings.Provider, error) {
	return embeddings.New(embeddings.Config{
		Kind:    embeddings.Kind(c.Embedding.Provider),
		BaseURL: c.Embedding.BaseURL,
		APIKey:  c.Embedding.APIKey,
		Model:   c.Embedding.Model,
		Timeout: time.Duration(c.Embedding.TimeoutSeconds) * time.Second,
	})
}
