package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type GraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type EmbeddingConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type ImportConfig struct {
	DryRun              bool    `toml:"dry_run"`
	EnableVectorSearch  bool    `toml:"enable_vector_search"`
	EnableHumanReview   bool    `toml:"enable_human_review"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	BatchSize           int     `toml:"batch_size"`
	Concurrency         int     `toml:"concurrency"`
}

type ResolverConfig struct {
	// UniqueKeys are property keys treated as unique identifiers during
	// constraint matching.
	UniqueKeys []string `toml:"unique_keys"`
	// FuzzyScanLimit bounds how many same-type nodes the fuzzy step loads.
	FuzzyScanLimit int `toml:"fuzzy_scan_limit"`
}

type ConfidenceConfig struct {
	AutoMergeThreshold  float64 `toml:"auto_merge_threshold"`
	AutoRejectThreshold float64 `toml:"auto_reject_threshold"`
	RichnessBonus       float64 `toml:"richness_bonus"`
	SparsityPenalty     float64 `toml:"sparsity_penalty"`
	GenericityPenalty   float64 `toml:"genericity_penalty"`
}

type Config struct {
	Graph      GraphConfig      `toml:"graph"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Import     ImportConfig     `toml:"import"`
	Resolver   ResolverConfig   `toml:"resolver"`
	Confidence ConfidenceConfig `toml:"confidence"`
}

// Default returns the configuration used when no file is present. The
// confidence modifier magnitudes are hand-tuned starting points, kept
// configurable rather than hard-coded.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{URI: "bolt://localhost:7687"},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          "text-embedding-3-small",
			TimeoutSeconds: 15,
		},
		Import: ImportConfig{
			EnableVectorSearch:  true,
			EnableHumanReview:   true,
			SimilarityThreshold: 0.85,
			BatchSize:           50,
			Concurrency:         4,
		},
		Resolver: ResolverConfig{
			UniqueKeys:     []string{"email", "ssn", "serial_number", "license_plate", "vin"},
			FuzzyScanLimit: 500,
		},
		Confidence: ConfidenceConfig{
			AutoMergeThreshold:  0.9,
			AutoRejectThreshold: 0.3,
			RichnessBonus:       0.1,
			SparsityPenalty:     0.2,
			GenericityPenalty:   0.15,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
