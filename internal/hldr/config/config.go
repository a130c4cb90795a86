// Package config loads detector settings from YAML files.
//
// The only algorithmic tunable is the window capacity; retention and log
// level are operational settings made explicit here so deployments do not
// have to recompile to change them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kolkov/hldrdetector/internal/hldr/history"
	"github.com/kolkov/hldrdetector/internal/hldr/logging"
)

// Config is the on-disk detector configuration.
type Config struct {
	// WindowCapacity bounds each thread's comparison window.
	WindowCapacity int `yaml:"window_capacity"`

	// RetainLimit bounds the history backing sequence beyond the window;
	// 0 retains all completed views.
	RetainLimit int `yaml:"retain_limit"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings: window of 5, unbounded retention,
// info-level logging.
func Default() Config {
	return Config{
		WindowCapacity: history.DefaultWindowCapacity,
		RetainLimit:    0,
		LogLevel:       "info",
	}
}

// Load reads path, overlays it onto the defaults, and validates the
// result. Unknown keys are rejected so typos surface instead of silently
// falling back to defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		// An empty file means "all defaults".
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if c.WindowCapacity < 1 {
		return fmt.Errorf("window_capacity must be at least 1, got %d", c.WindowCapacity)
	}
	if c.RetainLimit < 0 {
		return fmt.Errorf("retain_limit must not be negative, got %d", c.RetainLimit)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
