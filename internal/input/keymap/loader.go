package keymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/actionflow/internal/logging"
)

// ErrUnsupportedFormat is returned for keymap files with an unknown
// extension.
var ErrUnsupportedFormat = errors.New("unsupported keymap format")

// Format is a keymap file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath returns the format for a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Loader loads keymaps from configuration files.
type Loader struct {
	// searchPaths are directories to search for keymap files.
	searchPaths []string
	log         *logging.Logger
}

// NewLoader creates a new keymap loader. A nil logger discards warnings.
func NewLoader(log *logging.Logger) *Loader {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{log: log.WithComponent("keymap")}
}

// AddSearchPath adds a directory to search for keymap files.
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// SearchPaths returns the configured directories.
func (l *Loader) SearchPaths() []string {
	return append([]string(nil), l.searchPaths...)
}

// LoadFile loads a keymap, choosing the decoder from the file extension.
// The keymap's Source is set to path.
func (l *Loader) LoadFile(path string) (*Keymap, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	km, err := l.LoadReader(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	km.Source = path
	return km, nil
}

// LoadReader decodes a keymap in the given format.
func (l *Loader) LoadReader(r io.Reader, format Format) (*Keymap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading keymap: %w", err)
	}
	return Unmarshal(data, format)
}

// Unmarshal decodes a keymap in the given format. Unknown fields are
// rejected so typos surface as errors.
func Unmarshal(data []byte, format Format) (*Keymap, error) {
	var km Keymap
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&km); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&km); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&km); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &km, nil
}

// Marshal encodes a keymap in the given format.
func Marshal(km *Keymap, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(km, "", "  ")
	case FormatTOML:
		return toml.Marshal(km)
	case FormatYAML:
		return yaml.Marshal(km)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// SaveFile writes a keymap, choosing the encoder from the file extension.
func (k *Keymap) SaveFile(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(k, format)
	if err != nil {
		return fmt.Errorf("marshaling keymap: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing keymap file: %w", err)
	}
	return nil
}

// Files returns the keymap files in the search paths, sorted within each
// directory.
func (l *Loader) Files() []string {
	var files []string
	for _, dir := range l.searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			l.log.Warn("reading keymap directory %s: %v", dir, err)
			continue
		}
		var matched []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, err := FormatFromPath(e.Name()); err == nil {
				matched = append(matched, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(matched)
		files = append(files, matched...)
	}
	return files
}

// LoadAll loads all keymaps from the search paths. Files that fail to
// decode are logged and skipped.
func (l *Loader) LoadAll() ([]*Keymap, error) {
	var keymaps []*Keymap
	for _, path := range l.Files() {
		km, err := l.LoadFile(path)
		if err != nil {
			l.log.Warn("skipping keymap: %v", err)
			continue
		}
		keymaps = append(keymaps, km)
	}
	return keymaps, nil
}

// LoadAndRegister loads all keymaps and registers them.
func (l *Loader) LoadAndRegister(registry *Registry) error {
	keymaps, err := l.LoadAll()
	if err != nil {
		return err
	}

	for _, km := range keymaps {
		if err := registry.Register(km); err != nil {
			return fmt.Errorf("registering keymap %q: %w", km.Name, err)
		}
	}

	return nil
}
