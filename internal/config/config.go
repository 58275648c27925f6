package config

import (
	"time"
)

// Config holds the tunables for an ingestion run.
// It can be loaded from codegraph.yml with environment variable overrides.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Walk      WalkConfig      `yaml:"walk" mapstructure:"walk"`
}

// StoreConfig configures the graph-store HTTP client.
type StoreConfig struct {
	Host           string        `yaml:"host" mapstructure:"host"`                         // requests go to http://{host}:{port}
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`                   // per-request timeout
	MaxIdleConns   int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`     // idle connections kept per host
	RequestsPerSec int           `yaml:"requests_per_sec" mapstructure:"requests_per_sec"` // token bucket refill rate
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	Model          string        `yaml:"model" mapstructure:"model"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxIdleConns   int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	RequestsPerMin int           `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// ChunkingConfig defines how entity text is chunked for embedding.
type ChunkingConfig struct {
	TargetSize int `yaml:"target_size" mapstructure:"target_size"` // max bytes per chunk
}

// PipelineConfig bounds the embedding dispatcher.
type PipelineConfig struct {
	QueueCapacity  int           `yaml:"queue_capacity" mapstructure:"queue_capacity"`   // embedding job channel buffer
	MaxConcurrent  int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`   // in-flight embedding jobs
	UpdateInterval time.Duration `yaml:"update_interval" mapstructure:"update_interval"` // staleness gate for update mode
}

// WalkConfig controls directory traversal.
type WalkConfig struct {
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns skipped during the walk
}

// Default returns a configuration with the stock defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Host:           "localhost",
			Timeout:        90 * time.Second,
			MaxIdleConns:   500,
			RequestsPerSec: 100,
		},
		Embedding: EmbeddingConfig{
			Model:          "gemini-embedding-001",
			Timeout:        30 * time.Second,
			MaxIdleConns:   3000,
			RequestsPerMin: 4000,
		},
		Chunking: ChunkingConfig{
			TargetSize: 2048,
		},
		Pipeline: PipelineConfig{
			QueueCapacity:  1000,
			MaxConcurrent:  100,
			UpdateInterval: 5 * time.Second,
		},
		Walk: WalkConfig{
			Ignore: []string{".git"},
		},
	}
}
