// Package config handles render configuration loading.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all render settings
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds resolution and sampling settings
type RenderConfig struct {
	Width           int   `yaml:"width"`
	Height          int   `yaml:"height"`
	SamplesPerPixel int   `yaml:"samples_per_pixel"`
	TileSize        int   `yaml:"tile_size"`
	Workers         int   `yaml:"workers"` // 0 = one per CPU
	Seed            int64 `yaml:"seed"`
}

// OutputConfig holds output file paths. Empty paths disable that output
type OutputConfig struct {
	PNGPath string `yaml:"png_path"`
	PFMPath string `yaml:"pfm_path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:           800,
			Height:          600,
			SamplesPerPixel: 16,
			TileSize:        32,
			Workers:         0,
			Seed:            1,
		},
		Output: OutputConfig{
			PNGPath: "render.png",
			PFMPath: "render.pfm",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Load returns the defaults merged with the YAML file at path. An empty
// path returns the defaults unchanged
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// validate rejects settings the renderer cannot run with
func (c *Config) validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.SamplesPerPixel <= 0 {
		return fmt.Errorf("invalid samples_per_pixel %d", c.Render.SamplesPerPixel)
	}
	return nil
}
