package core

import "sort"

// Size describes the dimensions of a simulation lattice.
type Size struct {
	W int
	H int
}

// Sim defines the minimal contract a lattice simulation must implement to be
// driven by the viewer and the headless tools.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

// ClockReporter is implemented by sims that track simulated time and the
// number of reaction events executed so far.
type ClockReporter interface {
	Clock() float64
	Events() int
}

// SpeciesReporter is implemented by sims that can report per-species totals
// over the whole lattice.
type SpeciesReporter interface {
	SpeciesNames() []string
	SpeciesTotals() []float64
}

// Factory constructs a Sim using an optional configuration map.
type Factory func(cfg map[string]string) Sim

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}

// SimNames lists the registered simulations in alphabetical order.
func SimNames() []string {
	names := make([]string, 0, len(sims))
	for name := range sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
