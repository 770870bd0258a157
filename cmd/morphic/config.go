package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML runtime configuration.
type Config struct {
	Parallel struct {
		Enabled      bool `yaml:"enabled"`
		NumWorkers   int  `yaml:"num_workers"`
		MinChunkSize int  `yaml:"min_chunk_size"`
	} `yaml:"parallel"`
	Vmap struct {
		FallbackEnabled bool `yaml:"fallback_enabled"`
		FallbackWarning bool `yaml:"fallback_warning"`
	} `yaml:"vmap"`
}

// defaultConfig mirrors the interpreter defaults.
func defaultConfig() Config {
	var cfg Config
	cfg.Parallel.Enabled = false
	cfg.Vmap.FallbackEnabled = true
	return cfg
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Parallel.NumWorkers < 0 {
		return cfg, fmt.Errorf("config %s: num_workers must be >= 0", path)
	}
	return cfg, nil
}
