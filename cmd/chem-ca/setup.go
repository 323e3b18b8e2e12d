package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"chem-ca/internal/config"
	"chem-ca/internal/core"
	"chem-ca/internal/crs"
	"chem-ca/internal/logging"
	"chem-ca/internal/sims/chem"
	"chem-ca/internal/ssa"
	"chem-ca/internal/store"
)

var errUnknownPreset = errors.New("unknown preset")

// addRunFlags registers the flags shared by every command that simulates.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("preset", "", "Built-in reaction system (see 'chem-ca presets')")
	f.String("network", "", "Reaction system file (.crs text, .yaml or .json)")
	f.Int64("seed", 0, "Random seed")
	f.Int("width", 0, "Lattice width")
	f.Int("height", 0, "Lattice height")
	f.Float64("end", 0, "Simulated time to stop at")
	f.Float64("output", 0, "Simulated time between recorded frames")
	f.Int("events", 0, "Run this many reaction events instead of until --end")
	f.Int("every", 0, "Events between recorded frames in event mode")
	f.String("restore", "", "Start from a saved lattice snapshot")
	f.Bool("full-rebuild", false, "Rebuild the propensity grid after every event")
}

// session is everything a simulating command needs, resolved from the
// configuration file, the environment and the flags.
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	name    string
	sys     *crs.System
	net     *ssa.Network
	initial chem.Initial

	snapshot *store.Snapshot
}

func loadSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	bad := cfg.ApplyEnv()
	applyFlags(cmd, cfg)

	log := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	for _, name := range bad {
		log.Warn("ignoring unparsable environment override", "var", name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log}
	if err := s.resolveSystem(); err != nil {
		return nil, err
	}
	if s.net, err = s.sys.Compile(); err != nil {
		return nil, err
	}
	if cfg.Initial.Snapshot != "" {
		snap, err := store.LoadSnapshot(cfg.Initial.Snapshot)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(snap.Molecules, s.sys.Molecules) {
			return nil, fmt.Errorf("snapshot %s holds molecules %v, system has %v", cfg.Initial.Snapshot, snap.Molecules, s.sys.Molecules)
		}
		cfg.Lattice.Width, cfg.Lattice.Height = snap.Width, snap.Height
		s.snapshot = &snap
	}
	log.Debug("session ready", "system", s.name, "molecules", len(s.sys.Molecules),
		"reactions", len(s.sys.Reactions), "lattice", [2]int{cfg.Lattice.Width, cfg.Lattice.Height})
	return s, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Logging.Level, _ = f.GetString("log-level")
	}
	if f.Lookup("preset") == nil {
		return
	}
	if f.Changed("preset") {
		cfg.Preset, _ = f.GetString("preset")
		cfg.Network = ""
	}
	if f.Changed("network") {
		cfg.Network, _ = f.GetString("network")
	}
	if f.Changed("seed") {
		cfg.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("width") {
		cfg.Lattice.Width, _ = f.GetInt("width")
	}
	if f.Changed("height") {
		cfg.Lattice.Height, _ = f.GetInt("height")
	}
	if f.Changed("end") {
		cfg.Time.End, _ = f.GetFloat64("end")
	}
	if f.Changed("output") {
		cfg.Time.Output, _ = f.GetFloat64("output")
	}
	if f.Changed("events") {
		cfg.Events.Total, _ = f.GetInt("events")
	}
	if f.Changed("every") {
		cfg.Events.Output, _ = f.GetInt("every")
	}
	if f.Changed("restore") {
		cfg.Initial.Snapshot, _ = f.GetString("restore")
	}
	if full, _ := f.GetBool("full-rebuild"); full {
		cfg.Incremental = false
	}
}

func (s *session) resolveSystem() error {
	cfg := s.cfg
	custom := chem.Initial{Uniform: cfg.Initial.Uniform, Scatter: cfg.Initial.Scatter}
	hasCustom := len(custom.Uniform) > 0 || len(custom.Scatter) > 0

	if cfg.Network != "" {
		sys, err := crs.LoadFile(cfg.Network)
		if err != nil {
			return err
		}
		s.name = filepath.Base(cfg.Network)
		s.sys = sys
		s.initial = custom
		return nil
	}

	p, ok := chem.LookupPreset(cfg.Preset)
	if !ok {
		return fmt.Errorf("%w %q (have %v)", errUnknownPreset, cfg.Preset, chem.PresetNames())
	}
	sys, err := p.System()
	if err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	s.name, s.sys, s.initial = p.Name, sys, p.Initial
	if hasCustom {
		s.initial = custom
	}
	return nil
}

// lattice returns a fresh starting lattice and clock for one run.
func (s *session) lattice(seed int64) (*core.Lattice, float64, error) {
	if s.snapshot != nil {
		lat, err := s.snapshot.Lattice()
		return lat, s.snapshot.Clock, err
	}
	lat, err := s.initial.Build(s.sys, s.cfg.Lattice.Width, s.cfg.Lattice.Height, seed)
	return lat, s.cfg.Time.Start, err
}

// stop is the stop condition of a whole run.
func (s *session) stop() ssa.Stop {
	if s.cfg.EventMode() {
		return ssa.RunFor(s.cfg.Events.Total)
	}
	return ssa.RunUntil(s.cfg.Time.End)
}

func (s *session) networkText() string {
	var buf bytes.Buffer
	if err := crs.WriteText(&buf, s.sys); err != nil {
		return ""
	}
	return buf.String()
}
