// Package config loads run configurations for the chem-ca tools.
// A configuration starts from Default, is overlaid by a YAML file and then by
// CHEMCA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is a complete description of one simulation run.
type Config struct {
	// Network is the path to a reaction system file (text, YAML or JSON).
	Network string `yaml:"network,omitempty" json:"network,omitempty"`
	// Preset names a built-in system; used when Network is empty.
	Preset string `yaml:"preset,omitempty" json:"preset,omitempty"`

	Lattice LatticeConfig `yaml:"lattice" json:"lattice"`
	Initial InitialConfig `yaml:"initial" json:"initial"`
	Time    TimeConfig    `yaml:"time" json:"time"`
	Events  EventsConfig  `yaml:"events" json:"events"`

	Seed        int64 `yaml:"seed" json:"seed"`
	Incremental bool  `yaml:"incremental" json:"incremental"`

	Store   StoreConfig   `yaml:"store" json:"store"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Sweep   SweepConfig   `yaml:"sweep" json:"sweep"`
	Serve   ServeConfig   `yaml:"serve" json:"serve"`
}

// LatticeConfig sets the lattice dimensions.
type LatticeConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// InitialConfig describes the starting concentrations. Uniform amounts are
// put on every site; Scatter amounts are distributed one unit at a time over
// random sites.
type InitialConfig struct {
	Uniform map[string]float64 `yaml:"uniform,omitempty" json:"uniform,omitempty"`
	Scatter map[string]int     `yaml:"scatter,omitempty" json:"scatter,omitempty"`
	// Snapshot restores a saved lattice instead of building one.
	Snapshot string `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`
}

// TimeConfig drives a continuous-time run from Start to End, recording a
// frame every Output time units.
type TimeConfig struct {
	Start  float64 `yaml:"start" json:"start"`
	End    float64 `yaml:"end" json:"end"`
	Output float64 `yaml:"output" json:"output"`
}

// EventsConfig switches the run to event counting when Total is positive,
// recording a frame every Output events.
type EventsConfig struct {
	Total  int `yaml:"total" json:"total"`
	Output int `yaml:"output" json:"output"`
}

// StoreConfig selects where frames are persisted.
type StoreConfig struct {
	// Path of the SQLite database; empty keeps frames in memory.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Snapshot, when set, receives the final lattice (.json or .yaml).
	Snapshot string `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`
}

// LoggingConfig sets the log verbosity: "info", "debug", "trace" or "warn".
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// SweepConfig controls replicate runs.
type SweepConfig struct {
	Replicates int `yaml:"replicates" json:"replicates"`
	Workers    int `yaml:"workers" json:"workers"`
}

// ServeConfig controls the live streaming server.
type ServeConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// Rate is the number of frames pushed per second.
	Rate int `yaml:"rate" json:"rate"`
	// EventsPerFrame is the number of reaction events between frames.
	EventsPerFrame int `yaml:"events_per_frame" json:"events_per_frame"`
}

// Default returns a configuration for the decay preset on a small lattice.
func Default() *Config {
	return &Config{
		Preset:  "decay",
		Lattice: LatticeConfig{Width: 16, Height: 16},
		Time:    TimeConfig{Start: 0, End: 10, Output: 1},
		Seed:    1337,
		Logging: LoggingConfig{Level: "info"},
		Sweep:   SweepConfig{Replicates: 8, Workers: 4},
		Serve:   ServeConfig{Addr: ":8080", Rate: 10, EventsPerFrame: 100},

		Incremental: true,
	}
}

// Load reads a YAML file over the defaults and applies environment overrides.
// An empty path yields the defaults with overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// envResolver binds one environment variable to a config field.
type envResolver struct {
	name   string
	setter func(*Config, string) error
}

var envResolvers = []envResolver{
	{"CHEMCA_NETWORK", func(c *Config, v string) error { c.Network = v; return nil }},
	{"CHEMCA_PRESET", func(c *Config, v string) error { c.Preset = v; return nil }},
	{"CHEMCA_SEED", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			c.Seed = n
		}
		return err
	}},
	{"CHEMCA_WIDTH", func(c *Config, v string) error { return setInt(&c.Lattice.Width, v) }},
	{"CHEMCA_HEIGHT", func(c *Config, v string) error { return setInt(&c.Lattice.Height, v) }},
	{"CHEMCA_END", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			c.Time.End = f
		}
		return err
	}},
	{"CHEMCA_STORE", func(c *Config, v string) error { c.Store.Path = v; return nil }},
	{"CHEMCA_LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"CHEMCA_WORKERS", func(c *Config, v string) error { return setInt(&c.Sweep.Workers, v) }},
	{"CHEMCA_ADDR", func(c *Config, v string) error { c.Serve.Addr = v; return nil }},
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err == nil {
		*dst = n
	}
	return err
}

// ApplyEnv overlays CHEMCA_* environment variables. Values that fail to parse
// are ignored and reported in the returned slice of variable names.
func (c *Config) ApplyEnv() []string {
	var bad []string
	for _, r := range envResolvers {
		v := os.Getenv(r.name)
		if v == "" {
			continue
		}
		if err := r.setter(c, v); err != nil {
			bad = append(bad, r.name)
		}
	}
	return bad
}

// EventMode reports whether the run counts events instead of time.
func (c *Config) EventMode() bool { return c.Events.Total > 0 }

// Validate checks the configuration for values the driver cannot run.
func (c *Config) Validate() error {
	if c.Network == "" && c.Preset == "" {
		return fmt.Errorf("%w: either network or preset must be set", ErrInvalid)
	}
	if c.Lattice.Width <= 0 || c.Lattice.Height <= 0 {
		return fmt.Errorf("%w: lattice %dx%d must have positive dimensions", ErrInvalid, c.Lattice.Width, c.Lattice.Height)
	}
	if c.EventMode() {
		if c.Events.Output < 0 {
			return fmt.Errorf("%w: events.output must be non-negative, got %d", ErrInvalid, c.Events.Output)
		}
	} else {
		t := c.Time
		if math.IsNaN(t.Start) || math.IsNaN(t.End) || math.IsInf(t.Start, 0) || math.IsInf(t.End, 0) {
			return fmt.Errorf("%w: time bounds must be finite", ErrInvalid)
		}
		if t.End < t.Start {
			return fmt.Errorf("%w: time.end %g is before time.start %g", ErrInvalid, t.End, t.Start)
		}
		if !(t.Output > 0) {
			return fmt.Errorf("%w: time.output must be positive, got %g", ErrInvalid, t.Output)
		}
	}
	for name, v := range c.Initial.Uniform {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: initial amount of %s is %g", ErrInvalid, name, v)
		}
	}
	for name, n := range c.Initial.Scatter {
		if n < 0 {
			return fmt.Errorf("%w: scattered amount of %s is %d", ErrInvalid, name, n)
		}
	}
	if c.Sweep.Replicates < 0 || c.Sweep.Workers < 0 {
		return fmt.Errorf("%w: sweep replicates and workers must be non-negative", ErrInvalid)
	}
	if c.Serve.Rate < 0 || c.Serve.EventsPerFrame < 0 {
		return fmt.Errorf("%w: serve rate and events_per_frame must be non-negative", ErrInvalid)
	}
	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: invalid log level %q (valid: info, debug, trace, warn)", ErrInvalid, c.Logging.Level)
	}
	return nil
}
