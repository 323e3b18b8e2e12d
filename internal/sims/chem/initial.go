package chem

import (
	"fmt"

	"chem-ca/internal/core"
	"chem-ca/internal/crs"
	pcore "chem-ca/pkg/core"
)

// Initial describes the starting abundances of a lattice.
type Initial struct {
	// Uniform sets the same count at every site.
	Uniform map[string]float64 `yaml:"uniform,omitempty" json:"uniform,omitempty"`
	// Scatter places the given total number of molecules on uniformly random
	// sites, on top of Uniform.
	Scatter map[string]int `yaml:"scatter,omitempty" json:"scatter,omitempty"`
}

// Build allocates a w×h lattice for sys and fills it. The seed only drives
// the scattered placement.
func (in Initial) Build(sys *crs.System, w, h int, seed int64) (*core.Lattice, error) {
	index := sys.MoleculeIndex()
	lat := core.NewLattice(w, h, len(sys.Molecules))

	for _, name := range sortedNames(in.Uniform) {
		m, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("initial uniform: %w %q", crs.ErrUnknownMolecule, name)
		}
		v := in.Uniform[name]
		if v < 0 {
			return nil, fmt.Errorf("initial uniform %q: negative count %g", name, v)
		}
		for x := 0; x < lat.W; x++ {
			for y := 0; y < lat.H; y++ {
				lat.Site(x, y)[m] = v
			}
		}
	}

	rng := pcore.NewRNG(seed)
	for _, name := range sortedNames(in.Scatter) {
		m, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("initial scatter: %w %q", crs.ErrUnknownMolecule, name)
		}
		pcore.Scatter(rng, lat.Sites(), in.Scatter[name], func(site int) {
			lat.Site(site/lat.H, site%lat.H)[m]++
		})
	}
	return lat, nil
}
