// Package config loads and validates rankfuse configuration from YAML
// files and RANKFUSE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rankfuse/rankfuse/internal/errors"
)

// Config is the complete rankfuse configuration.
type Config struct {
	Search     SearchConfig     `yaml:"search"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Store      StoreConfig      `yaml:"store"`
	LogLevel   string           `yaml:"log_level"`
}

// SearchConfig configures fusion parameters.
// Values are configurable via:
//  1. Config file (--config flag)
//  2. Env vars (RANKFUSE_ALPHA, RANKFUSE_RRF_CONSTANT) - highest priority
type SearchConfig struct {
	// Alpha is the semantic weight (0.0-1.0); 1-alpha weights lexical.
	Alpha float64 `yaml:"alpha"`

	// RRFConstant is the fusion smoothing parameter (k).
	// Default: 60 (industry standard used by Azure AI Search, OpenSearch).
	RRFConstant int `yaml:"rrf_constant"`

	// TopK is the default result count.
	TopK int `yaml:"top_k"`
}

// RerankConfig configures the cross-encoder reranking stage.
type RerankConfig struct {
	Enabled   bool   `yaml:"enabled"`
	FinalTopK int    `yaml:"final_top_k"`
	OnError   string `yaml:"on_error"` // "fail" or "fallback"
	Endpoint  string `yaml:"endpoint"` // empty selects the offline term-overlap model
	Model     string `yaml:"model"`
	Timeout   string `yaml:"timeout"` // duration string, e.g. "30s"
}

// TimeoutDuration parses the rerank timeout, falling back to 30s.
func (c RerankConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// StoreConfig configures the HNSW vector index.
type StoreConfig struct {
	M        int `yaml:"m"`
	EfSearch int `yaml:"ef_search"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Alpha:       0.5,
			RRFConstant: 60,
			TopK:        10,
		},
		Rerank: RerankConfig{
			Enabled:   false,
			FinalTopK: 5,
			OnError:   "fail",
			Timeout:   "30s",
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Dimensions: 256,
			CacheSize:  1000,
		},
		Store: StoreConfig{
			M:        16,
			EfSearch: 20,
		},
		LogLevel: "info",
	}
}

// Load reads the config file at path (defaults apply when path is empty),
// applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.New(errors.ErrCodeConfigNotFound,
					fmt.Sprintf("config file not found: %s", path), err)
			}
			return nil, errors.ConfigError("failed to read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.ConfigError("failed to parse config file", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies RANKFUSE_* environment variable overrides.
// Env vars win over file values so deployments can tune without edits.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RANKFUSE_ALPHA"); v != "" {
		if a, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && a >= 0 && a <= 1 {
			c.Search.Alpha = a
		}
	}
	if v := os.Getenv("RANKFUSE_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("RANKFUSE_RERANK_ENDPOINT"); v != "" {
		c.Rerank.Endpoint = v
	}
	if v := os.Getenv("RANKFUSE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate rejects out-of-range values before a session is built.
func (c *Config) Validate() error {
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return errors.InvalidConfig(fmt.Sprintf("search.alpha must be in [0,1], got %g", c.Search.Alpha))
	}
	if c.Search.RRFConstant <= 0 {
		return errors.InvalidConfig(fmt.Sprintf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant))
	}
	if c.Search.TopK <= 0 {
		return errors.InvalidConfig(fmt.Sprintf("search.top_k must be positive, got %d", c.Search.TopK))
	}
	if c.Rerank.FinalTopK < 0 {
		return errors.InvalidConfig(fmt.Sprintf("rerank.final_top_k must not be negative, got %d", c.Rerank.FinalTopK))
	}
	switch c.Rerank.OnError {
	case "", "fail", "fallback":
	default:
		return errors.InvalidConfig(fmt.Sprintf("rerank.on_error must be fail or fallback, got %q", c.Rerank.OnError))
	}
	if c.Rerank.Timeout != "" {
		if _, err := time.ParseDuration(c.Rerank.Timeout); err != nil {
			return errors.InvalidConfig(fmt.Sprintf("rerank.timeout is not a duration: %q", c.Rerank.Timeout))
		}
	}
	if c.Embeddings.Provider != "static" {
		return errors.InvalidConfig(fmt.Sprintf("unknown embeddings provider %q", c.Embeddings.Provider))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return errors.InvalidConfig(fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	return nil
}
