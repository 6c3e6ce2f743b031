// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// Config represents the full configuration for a timelapse export.
type Config struct {
	// Input/Output
	URL        string `yaml:"url"`
	OutputPath string `yaml:"output"`

	// Map
	MapMode            string `yaml:"map_mode"`
	Tag                string `yaml:"tag"`
	ShowSecondaryColor bool   `yaml:"show_secondary_color"`

	// Date range. Empty strings mean the save's own bounds.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Interval  string `yaml:"interval"`

	// Encoding
	FPS                int `yaml:"fps"`
	FreezeFrameSeconds int `yaml:"freeze_frame_seconds"`

	// Tooling
	FFmpegPath string `yaml:"ffmpeg_path"`
	ChromePath string `yaml:"chrome_path"`
	Headless   bool   `yaml:"headless"`
	FontPath   string `yaml:"font_path"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		MapMode:            "political",
		ShowSecondaryColor: true,
		Interval:           string(ports.IntervalYear),
		FPS:                10,
		FreezeFrameSeconds: 8,
		Headless:           true,
		LogLevel:           "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("config: url is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("config: output is required")
	}
	if _, ok := ports.ParseDateInterval(c.Interval); !ok {
		return fmt.Errorf("config: invalid interval %q (year, month, week or day)", c.Interval)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("config: fps must be positive")
	}
	if c.FreezeFrameSeconds < 0 {
		return fmt.Errorf("config: freeze_frame_seconds must not be negative")
	}
	return nil
}
