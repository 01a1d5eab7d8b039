// Package config loads the actionflow runtime configuration.
//
// Configuration is read from a TOML file and overridden by ACTIONFLOW_*
// environment variables:
//
//	[input]
//	tick_rate = 60
//	actuation = 0.5
//	log_level = "info"
//	keymap_paths = ["keymaps"]
//	watch = true
//	metrics_enabled = true
//	activate = ["gameplay"]
//
// ACTIONFLOW_INPUT_TICK_RATE=120 overrides input.tick_rate. List settings
// accept comma-separated values from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/actionflow/internal/logging"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "ACTIONFLOW_"

// Limits for validated settings.
const (
	MinTickRate = 1
	MaxTickRate = 1000
)

// Config is the runtime configuration.
type Config struct {
	Input InputConfig `toml:"input" mapstructure:"input"`
}

// InputConfig configures the input handler and its keymaps.
type InputConfig struct {
	// TickRate is the number of handler ticks per second.
	TickRate int `toml:"tick_rate" mapstructure:"tick_rate"`

	// Actuation is the default threshold of built-in conditions.
	Actuation float32 `toml:"actuation" mapstructure:"actuation"`

	// MaxDelta caps the delta of a single tick.
	MaxDelta time.Duration `toml:"max_delta" mapstructure:"max_delta"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `toml:"log_level" mapstructure:"log_level"`

	// KeymapPaths are directories searched for keymap files.
	KeymapPaths []string `toml:"keymap_paths" mapstructure:"keymap_paths"`

	// Defaults registers the built-in gameplay and menu keymaps before
	// files are loaded.
	Defaults bool `toml:"defaults" mapstructure:"defaults"`

	// Activate lists the contexts activated at startup.
	Activate []string `toml:"activate" mapstructure:"activate"`

	// Watch reloads keymap files when they change.
	Watch bool `toml:"watch" mapstructure:"watch"`

	// MetricsEnabled enables handler metrics.
	MetricsEnabled bool `toml:"metrics_enabled" mapstructure:"metrics_enabled"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			TickRate:       60,
			Actuation:      0.5,
			MaxDelta:       250 * time.Millisecond,
			LogLevel:       "info",
			KeymapPaths:    []string{"keymaps"},
			Defaults:       true,
			Activate:       []string{"gameplay"},
			Watch:          false,
			MetricsEnabled: true,
		},
	}
}

// TickInterval returns the duration of one tick.
func (c *Config) TickInterval() time.Duration {
	if c.Input.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Input.TickRate)
}

// Level returns the parsed log level, or info if it is invalid.
func (c *Config) Level() logging.Level {
	level, _ := logging.ParseLevel(c.Input.LogLevel)
	return level
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	in := c.Input
	if in.TickRate < MinTickRate || in.TickRate > MaxTickRate {
		errs = append(errs, &ValidationError{
			Path:    "input.tick_rate",
			Message: fmt.Sprintf("must be between %d and %d", MinTickRate, MaxTickRate),
			Value:   in.TickRate,
		})
	}
	if in.Actuation <= 0 || in.Actuation > 1 {
		errs = append(errs, &ValidationError{
			Path:    "input.actuation",
			Message: "must be in (0, 1]",
			Value:   in.Actuation,
		})
	}
	if in.MaxDelta < 0 {
		errs = append(errs, &ValidationError{
			Path:    "input.max_delta",
			Message: "must not be negative",
			Value:   in.MaxDelta,
		})
	}
	if _, ok := logging.ParseLevel(in.LogLevel); !ok {
		errs = append(errs, &ValidationError{
			Path:    "input.log_level",
			Message: "must be debug, info, warn or error",
			Value:   in.LogLevel,
		})
	}
	for i, name := range in.Activate {
		if name == "" {
			errs = append(errs, &ValidationError{
				Path:    fmt.Sprintf("input.activate[%d]", i),
				Message: "must not be empty",
				Value:   name,
			})
		}
	}
	return errors.Join(errs...)
}
