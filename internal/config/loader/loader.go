// Package loader reads configuration sources into nested maps.
//
// Each source (a TOML file, the environment) produces a map[string]any
// keyed by section and setting name. Maps are merged with DeepMerge, later
// sources overriding earlier ones, and decoded into typed configuration by
// the config package.
package loader

import (
	"io/fs"
	"os"
)

// Loader is the interface for configuration sources.
type Loader interface {
	// Load reads configuration from the source and returns a map.
	// Returns nil, nil if the source doesn't exist.
	Load() (map[string]any, error)
}

// FileSystem is the file access used by file loaders. fstest.MapFS
// satisfies it in tests.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
