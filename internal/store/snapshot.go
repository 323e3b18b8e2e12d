// Package store persists simulation output: lattice snapshots for resuming
// runs, in-memory frame logs and a SQLite archive of recorded frames.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"chem-ca/internal/core"
)

// SnapshotVersion is the current snapshot layout.
const SnapshotVersion = 1

// ErrBadSnapshot reports a snapshot whose shape does not match its data.
var ErrBadSnapshot = errors.New("store: malformed snapshot")

// Snapshot is a point-in-time capture of a lattice. Concentrations are stored
// flat in row-major order, x outermost.
type Snapshot struct {
	Version        int       `json:"version" yaml:"version"`
	Width          int       `json:"width" yaml:"width"`
	Height         int       `json:"height" yaml:"height"`
	Molecules      []string  `json:"molecules" yaml:"molecules"`
	Clock          float64   `json:"clock" yaml:"clock"`
	Events         int       `json:"events" yaml:"events"`
	Seed           int64     `json:"seed" yaml:"seed"`
	Concentrations []float64 `json:"concentrations" yaml:"concentrations,flow"`
}

// NewSnapshot copies lat into a Snapshot.
func NewSnapshot(lat *core.Lattice, molecules []string, clock float64, events int, seed int64) Snapshot {
	return Snapshot{
		Version:        SnapshotVersion,
		Width:          lat.W,
		Height:         lat.H,
		Molecules:      append([]string(nil), molecules...),
		Clock:          clock,
		Events:         events,
		Seed:           seed,
		Concentrations: append([]float64(nil), lat.Values()...),
	}
}

// Validate checks that the concentration buffer matches the declared shape.
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, s.Version)
	}
	if s.Width <= 0 || s.Height <= 0 || len(s.Molecules) == 0 {
		return fmt.Errorf("%w: empty lattice %dx%d with %d molecules", ErrBadSnapshot, s.Width, s.Height, len(s.Molecules))
	}
	if want := s.Width * s.Height * len(s.Molecules); len(s.Concentrations) != want {
		return fmt.Errorf("%w: %d concentrations, want %d", ErrBadSnapshot, len(s.Concentrations), want)
	}
	return nil
}

// Lattice returns a fresh lattice holding the snapshot's concentrations.
func (s Snapshot) Lattice() (*core.Lattice, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	buf := append([]float64(nil), s.Concentrations...)
	return core.WrapLattice(s.Width, s.Height, len(s.Molecules), buf), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// SaveSnapshot writes s as YAML or JSON depending on the file extension. The
// file is written to a temporary name first and renamed into place.
func SaveSnapshot(path string, s Snapshot) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and validates a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	var s Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return s, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}
