// Package chem runs reaction systems on a lattice as interactive simulations.
package chem

import (
	"fmt"
	"log/slog"

	"chem-ca/internal/core"
	"chem-ca/internal/crs"
	"chem-ca/internal/logging"
	"chem-ca/internal/ssa"
	pcore "chem-ca/pkg/core"
)

// World advances a compiled reaction system over a lattice a chunk at a time.
type World struct {
	name    string
	cfg     Config
	sys     *crs.System
	initial Initial

	base *ssa.Network
	net  *ssa.Network

	lat   *core.Lattice
	cells []uint8
	rng   *pcore.RNG

	clock  float64
	events int
	status ssa.Status
	err    error

	log *slog.Logger
}

// New builds a World for a registered preset and resets it with cfg.Seed.
func New(p Preset, cfg Config) (*World, error) {
	sys, err := p.System()
	if err != nil {
		return nil, err
	}
	return NewFromSystem(p.Name, sys, p.Initial, cfg)
}

// NewFromSystem builds a World for an arbitrary reaction system.
func NewFromSystem(name string, sys *crs.System, initial Initial, cfg Config) (*World, error) {
	net, err := sys.Compile()
	if err != nil {
		return nil, err
	}
	if cfg.RateScale <= 0 {
		cfg.RateScale = 1
	}
	w := &World{
		name:    name,
		cfg:     cfg,
		sys:     sys,
		initial: initial,
		base:    net,
		net:     cloneNetwork(net),
		log:     logging.Discard(),
	}
	w.scaleRates()
	if err := w.reset(cfg.Seed); err != nil {
		return nil, err
	}
	return w, nil
}

// SetLogger routes engine diagnostics to l.
func (w *World) SetLogger(l *slog.Logger) { w.log = logging.OrDiscard(l) }

// Name identifies the simulation.
func (w *World) Name() string { return w.name }

// Size returns the lattice dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.cfg.Width, H: w.cfg.Height} }

// Cells exposes the dominant species of every site, row-major, as species
// index plus one. Empty sites are zero.
func (w *World) Cells() []uint8 { return w.cells }

// Reset rebuilds the initial lattice and rewinds the clock.
func (w *World) Reset(seed int64) {
	if err := w.reset(seed); err != nil {
		w.err = err
		w.log.Error("reset failed", "sim", w.name, "error", err)
	}
}

func (w *World) reset(seed int64) error {
	lat, err := w.initial.Build(w.sys, w.cfg.Width, w.cfg.Height, seed)
	if err != nil {
		return err
	}
	w.cfg.Seed = seed
	w.cfg.Width, w.cfg.Height = lat.W, lat.H
	w.lat = lat
	w.rng = pcore.NewRNG(seed)
	w.clock, w.events = 0, 0
	w.status, w.err = ssa.TimeReached, nil
	if len(w.cells) != lat.Sites() {
		w.cells = make([]uint8, lat.Sites())
	}
	w.paint()
	return nil
}

// Restore replaces the lattice and clock, e.g. with a saved snapshot. The
// lattice must match the system's molecule count; the world adopts its size.
func (w *World) Restore(lat *core.Lattice, clock float64, events int) error {
	if lat == nil || lat.Species != len(w.sys.Molecules) {
		return fmt.Errorf("chem: restore lattice does not match %d molecules", len(w.sys.Molecules))
	}
	if len(lat.Values()) != lat.Sites()*lat.Species {
		return fmt.Errorf("chem: restore lattice buffer has %d values, want %d", len(lat.Values()), lat.Sites()*lat.Species)
	}
	w.lat = lat
	w.cfg.Width, w.cfg.Height = lat.W, lat.H
	w.clock, w.events = clock, events
	w.status, w.err = ssa.TimeReached, nil
	if len(w.cells) != lat.Sites() {
		w.cells = make([]uint8, lat.Sites())
	}
	w.paint()
	return nil
}

// Step executes one chunk of the simulation. A failed or exhausted world
// stays put until Reset.
func (w *World) Step() {
	if w.err != nil || w.status == ssa.Exhausted {
		return
	}
	stop := ssa.RunFor(w.cfg.EventsPerStep)
	if w.cfg.TimePerStep > 0 {
		stop = ssa.RunUntil(w.clock + w.cfg.TimePerStep)
	}
	res, err := ssa.Advance(ssa.Request{
		Start:   w.clock,
		Stop:    stop,
		Seed:    w.rng.Seed(),
		Lattice: w.lat,
		Network: w.net,
		Options: ssa.Options{Incremental: w.cfg.Incremental, Logger: w.log},
	})
	w.clock = res.Clock
	w.events += res.Events
	if err != nil {
		w.err = fmt.Errorf("step at clock %g: %w", w.clock, err)
		w.log.Error("step failed", "sim", w.name, "error", err)
		return
	}
	w.status = res.Status
	if res.Status == ssa.Exhausted {
		w.log.Info("no reaction can fire", "sim", w.name, "clock", w.clock, "events", w.events)
	}
	w.paint()
}

func (w *World) paint() {
	s := w.lat.Species
	for x := 0; x < w.lat.W; x++ {
		for y := 0; y < w.lat.H; y++ {
			site := w.lat.Site(x, y)
			best, top := -1, 0.0
			for m := 0; m < s; m++ {
				if site[m] > top {
					best, top = m, site[m]
				}
			}
			v := uint8(0)
			if best >= 0 {
				v = uint8(min(best+1, 255))
			}
			w.cells[y*w.lat.W+x] = v
		}
	}
}

// Clock reports the simulated time.
func (w *World) Clock() float64 { return w.clock }

// Events reports the number of reaction events since the last Reset.
func (w *World) Events() int { return w.events }

// Status reports how the last Step ended.
func (w *World) Status() ssa.Status { return w.status }

// Err returns the error that halted the world, if any.
func (w *World) Err() error { return w.err }

// SpeciesNames lists the molecules in lattice order.
func (w *World) SpeciesNames() []string { return w.sys.Molecules }

// SpeciesTotals sums every molecule over the lattice.
func (w *World) SpeciesTotals() []float64 { return w.lat.Totals() }

// Lattice exposes the live lattice. Callers must not retain it across Step.
func (w *World) Lattice() *core.Lattice { return w.lat }

// System returns the reaction system being simulated.
func (w *World) System() *crs.System { return w.sys }

func (w *World) scaleRates() {
	for r, k := range w.base.Rates {
		w.net.Rates[r] = k * w.cfg.RateScale
	}
}

func cloneNetwork(n *ssa.Network) *ssa.Network {
	c := ssa.NewNetwork(n.Species, n.Reactions)
	copy(c.Rates, n.Rates)
	copy(c.Kinds, n.Kinds)
	copy(c.Stoichiometry, n.Stoichiometry)
	copy(c.Catalysts, n.Catalysts)
	return c
}

var (
	_ core.Sim             = (*World)(nil)
	_ core.ClockReporter   = (*World)(nil)
	_ core.SpeciesReporter = (*World)(nil)
)
