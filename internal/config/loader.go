package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CODEGRAPH_*)
// 2. Config file (codegraph.yml in the working directory)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("codegraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CODEGRAPH")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g. CODEGRAPH_PIPELINE_MAX_CONCURRENT)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable; defaults + env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with the stock defaults.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("store.host", defaults.Store.Host)
	v.SetDefault("store.timeout", defaults.Store.Timeout)
	v.SetDefault("store.max_idle_conns", defaults.Store.MaxIdleConns)
	v.SetDefault("store.requests_per_sec", defaults.Store.RequestsPerSec)

	v.SetDefault("embedding.model", defaults.Embedding.Model)
	v.SetDefault("embedding.timeout", defaults.Embedding.Timeout)
	v.SetDefault("embedding.max_idle_conns", defaults.Embedding.MaxIdleConns)
	v.SetDefault("embedding.requests_per_min", defaults.Embedding.RequestsPerMin)

	v.SetDefault("chunking.target_size", defaults.Chunking.TargetSize)

	v.SetDefault("pipeline.queue_capacity", defaults.Pipeline.QueueCapacity)
	v.SetDefault("pipeline.max_concurrent", defaults.Pipeline.MaxConcurrent)
	v.SetDefault("pipeline.update_interval", defaults.Pipeline.UpdateInterval)

	v.SetDefault("walk.ignore", defaults.Walk.Ignore)
}

// validate rejects configurations the pipeline cannot run with.
func validate(cfg *Config) error {
	if cfg.Chunking.TargetSize <= 0 {
		return fmt.Errorf("chunking.target_size must be positive, got %d", cfg.Chunking.TargetSize)
	}
	if cfg.Pipeline.QueueCapacity <= 0 {
		return fmt.Errorf("pipeline.queue_capacity must be positive, got %d", cfg.Pipeline.QueueCapacity)
	}
	if cfg.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline.max_concurrent must be positive, got %d", cfg.Pipeline.MaxConcurrent)
	}
	if cfg.Store.RequestsPerSec <= 0 {
		return fmt.Errorf("store.requests_per_sec must be positive, got %d", cfg.Store.RequestsPerSec)
	}
	if cfg.Embedding.RequestsPerMin <= 0 {
		return fmt.Errorf("embedding.requests_per_min must be positive, got %d", cfg.Embedding.RequestsPerMin)
	}
	return nil
}
