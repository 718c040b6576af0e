// Package config provides configuration loading and structs for the newsrec server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smartnews/newsrec/internal/catalog"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                  `yaml:"debug"`
	Server    ServerConfig          `yaml:"server"`
	Data      DataConfig            `yaml:"data"`
	Columns   catalog.ColumnAliases `yaml:"columns"`
	Search    SearchConfig          `yaml:"search"`
	Recommend RecommendConfig       `yaml:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DataConfig holds paths for the three read-only engine inputs and the
// hot-reload switch.
type DataConfig struct {
	// CatalogPath is the article catalog (.csv or .xlsx).
	CatalogPath string `yaml:"catalog_path"`
	// SimilarityPath is the precomputed N×N similarity matrix (.csv).
	SimilarityPath string `yaml:"similarity_path"`
	// InteractionsPath is the engagement log (.csv, .xlsx, .db or .sqlite).
	InteractionsPath string `yaml:"interactions_path"`
	// Watch enables rebuilding the engine when a data file changes.
	// The rebuilt engine is swapped in atomically. Defaults to false.
	Watch *bool `yaml:"watch"`
}

// WatchOrDefault returns whether data files are watched; defaults to false
// when unset.
func (d *DataConfig) WatchOrDefault() bool {
	if d.Watch != nil {
		return *d.Watch
	}
	return false
}

// SearchConfig holds keyword search settings.
type SearchConfig struct {
	// Limit caps results per search request.
	Limit int `yaml:"limit"`
	// FallbackSize is the number of articles in the degenerate-query sample.
	FallbackSize int `yaml:"fallback_size"`
	// FallbackSeed seeds the fallback sample so it is reproducible across calls.
	FallbackSeed int64 `yaml:"fallback_seed"`
}

// RecommendConfig holds hybrid recommendation weights.
type RecommendConfig struct {
	// Alpha weights the explicit rating signal.
	Alpha float64 `yaml:"alpha"`
	// Beta weights the per-user-normalized time-spent signal.
	Beta float64 `yaml:"beta"`
	// TopK is the default number of recommendations per request.
	TopK int `yaml:"top_k"`
}

// Load reads and parses the config file at path, expands data paths
// relative to the config directory, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Data.CatalogPath = expandPath(cfg.Data.CatalogPath, configDir)
	cfg.Data.SimilarityPath = expandPath(cfg.Data.SimilarityPath, configDir)
	cfg.Data.InteractionsPath = expandPath(cfg.Data.InteractionsPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Relative paths are resolved
// against configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(configDir, path)
}
