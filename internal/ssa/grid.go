package ssa

import (
	"math"

	"chem-ca/internal/core"
)

// MaxSites bounds the number of lattice sites a single propensity grid may
// cover.
const MaxSites = 1 << 26

// Grid caches the summed propensity of every lattice site and the grand
// total. Site values use the same x-major order as the lattice.
type Grid struct {
	w, h  int
	site  []float64
	total float64
}

// NewGrid allocates an empty grid for a w×h lattice.
func NewGrid(w, h int) (*Grid, error) {
	if w <= 0 || h <= 0 || w > MaxSites/h {
		return nil, ErrAllocation
	}
	return &Grid{w: w, h: h, site: make([]float64, w*h)}, nil
}

// BuildGrid allocates a grid and fills it from the current lattice counts.
func BuildGrid(net *Network, lat *core.Lattice) (*Grid, error) {
	g, err := NewGrid(lat.W, lat.H)
	if err != nil {
		return nil, err
	}
	g.Rebuild(net, lat)
	return g, nil
}

// Total returns the sum of all site propensities.
func (g *Grid) Total() float64 { return g.total }

// Site returns the cached propensity of site (x, y).
func (g *Grid) Site(x, y int) float64 { return g.site[x*g.h+y] }

// Rebuild recomputes every site from scratch.
func (g *Grid) Rebuild(net *Network, lat *core.Lattice) {
	for x := 0; x < g.w; x++ {
		for y := 0; y < g.h; y++ {
			g.site[x*g.h+y] = SitePropensity(net, lat.Site(x, y))
		}
	}
	g.resum()
}

// Refresh recomputes only site (x, y). Sites never exchange molecules, so
// after an event at (x, y) this yields exactly the values Rebuild would.
func (g *Grid) Refresh(net *Network, lat *core.Lattice, x, y int) {
	g.site[x*g.h+y] = SitePropensity(net, lat.Site(x, y))
	g.resum()
}

// resum always adds site values in row-major order so that Refresh and
// Rebuild produce bit-identical totals.
func (g *Grid) resum() {
	total := 0.0
	for _, v := range g.site {
		total += v
	}
	g.total = total
}

func (g *Grid) valid() bool {
	return !math.IsNaN(g.total) && !math.IsInf(g.total, 0) && g.total >= 0
}

// SitePropensity sums the propensity of every reaction at one site.
func SitePropensity(net *Network, site []float64) float64 {
	sum := 0.0
	for r := 0; r < net.Reactions; r++ {
		sum += net.Propensity(r, site)
	}
	return sum
}
