// Package config loads runtime configuration for the chronograph
// server: environment variables (via a .env file when present) layered
// with an optional YAML override file, environment taking precedence.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/chronograph/internal/logging"
)

// Config is the full set of runtime-tunable settings (SPEC_FULL.md
// AMBIENT STACK).
type Config struct {
	StatePath        string `yaml:"state-path"`
	EmbeddingURL     string `yaml:"embedding-url"`
	EmbeddingModel   string `yaml:"embedding-model"`
	MaxContentBytes  int    `yaml:"max-content-bytes"`
	MaxBulkDocuments int    `yaml:"max-bulk-documents"`
	DefaultMaxNodes  int    `yaml:"default-max-nodes"`
	DefaultMaxEdges  int    `yaml:"default-max-edges"`
}

// Defaults returns the configuration's baseline values, applied before
// any file or environment override.
func Defaults() Config {
	return Config{
		StatePath:        "./chronograph.db",
		EmbeddingURL:     "http://localhost:11434",
		EmbeddingModel:   "all-minilm",
		MaxContentBytes:  2 * 1024 * 1024,
		MaxBulkDocuments: 1000,
		DefaultMaxNodes:  100,
		DefaultMaxEdges:  500,
	}
}

// Load builds a Config from defaults, an optional YAML file at
// configPath, and CHRONOGRAPH_* environment variables, in that
// precedence order (env highest). A missing configPath or .env file is
// not an error; both are optional layers.
func Load(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debug("config", "no .env file loaded: %v", err)
	}

	cfg := Defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else {
			logging.Debug("config", "no config file at %q: %v", configPath, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHRONOGRAPH_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("CHRONOGRAPH_EMBEDDING_URL"); v != "" {
		cfg.EmbeddingURL = v
	}
	if v := os.Getenv("CHRONOGRAPH_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := envInt("CHRONOGRAPH_MAX_CONTENT_BYTES"); v > 0 {
		cfg.MaxContentBytes = v
	}
	if v := envInt("CHRONOGRAPH_MAX_BULK_DOCUMENTS"); v > 0 {
		cfg.MaxBulkDocuments = v
	}
	if v := envInt("CHRONOGRAPH_DEFAULT_MAX_NODES"); v > 0 {
		cfg.DefaultMaxNodes = v
	}
	if v := envInt("CHRONOGRAPH_DEFAULT_MAX_EDGES"); v > 0 {
		cfg.DefaultMaxEdges = v
	}
}

func envInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
