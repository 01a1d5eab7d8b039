package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/actionflow/internal/config/loader"
)

// Load reads the configuration at path, applies environment overrides and
// validates the result. An empty path loads defaults plus environment.
// A path that does not exist is an error.
func Load(path string) (*Config, error) {
	var sources []loader.Loader
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		sources = append(sources, loader.NewTOMLLoader(path))
	}
	sources = append(sources, loader.NewEnvLoader(EnvPrefix))
	return LoadFrom(sources...)
}

// LoadFrom merges the sources in order over the defaults, later sources
// winning, and validates the result.
func LoadFrom(sources ...loader.Loader) (*Config, error) {
	merged := make(map[string]any)
	for _, src := range sources {
		data, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, data)
	}

	cfg := DefaultConfig()
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays data onto cfg. Lists replace the defaults rather than
// merging with them. Unknown keys are errors.
func decode(data map[string]any, cfg *Config) error {
	if len(data) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// durationHook accepts "250ms" style strings and TOML integers of
// milliseconds for duration settings.
func durationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return time.ParseDuration(v)
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	}
	return data, nil
}
