// Package file persists collection stats as a human-readable file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/store"
)

// Format is the encoding used on disk.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from the file extension. Anything that is not
// .yaml/.yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Backend stores the whole record in a single file, fully rewritten on save.
type Backend struct {
	path   string
	format Format
}

// New creates a file backend for path
func New(path string) *Backend {
	return &Backend{
		path:   path,
		format: FormatFor(path),
	}
}

func (b *Backend) Name() string { return "file" }

// Load reads and decodes the stats file.
func (b *Backend) Load(_ context.Context) (*domain.StatsPatch, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read stats file: %w", err)
	}

	var patch domain.StatsPatch
	switch b.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &patch)
	default:
		err = json.Unmarshal(data, &patch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode stats file %s: %w", b.path, err)
	}

	return &patch, nil
}

// Save encodes stats and atomically replaces the file.
func (b *Backend) Save(_ context.Context, stats domain.CollectionStats) error {
	var (
		data []byte
		err  error
	)
	switch b.format {
	case FormatYAML:
		data, err = yaml.Marshal(stats)
	default:
		data, err = json.MarshalIndent(stats, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	return writeAtomic(b.path, data)
}

// defaultFileMode applies when the stats file does not exist yet.
const defaultFileMode os.FileMode = 0o644

// writeAtomic writes to a temp file in the target directory, then renames it
// into place so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp stats file: %w", err)
	}
	tmpName := tmp.Name()

	// CreateTemp uses 0600; keep the mode of the file being replaced.
	mode := defaultFileMode
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set stats file mode: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp stats file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp stats file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace stats file: %w", err)
	}
	return nil
}
