package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/CTAG07/Byblis/pkg/blocks"
	"github.com/CTAG07/Byblis/pkg/component"
	"github.com/natefinch/atomic"
)

// AppConfig holds the tool-level settings that don't belong to either
// engine.
type AppConfig struct {
	LogLevel string `json:"log_level"`

	// TemplateDir is the directory the block-template engine loads from.
	TemplateDir string `json:"template_dir"`

	// DatabasePath points at the shared SQLite database backing the
	// distributed cache and durable storage tiers. Empty disables both
	// tiers; the engine then runs on memory and filesystem alone.
	DatabasePath string `json:"database_path"`
}

// Config is the top-level configuration struct that aggregates all other
// configs.
type Config struct {
	App        *AppConfig        `json:"app_config"`
	Components *component.Config `json:"component_config"`
	Blocks     *blocks.Config    `json:"blocks_config"`
}

// DefaultAppConfig creates an application configuration with default values.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel:     "info",
		TemplateDir:  "./data/templates",
		DatabasePath: "./data/byblis.db?_journal_mode=WAL&_busy_timeout=5000",
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	componentCfg := component.DefaultConfig()
	componentCfg.SearchPaths = []string{"./data/components"}
	blocksCfg := blocks.DefaultConfig()

	config := &Config{
		App:        DefaultAppConfig(),
		Components: &componentCfg,
		Blocks:     &blocksCfg,
	}

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the tool can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
