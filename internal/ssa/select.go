package ssa

import (
	"chem-ca/internal/core"
	pcore "chem-ca/pkg/core"
)

// pick scans weights 0..n-1 in order and returns the first index whose
// cumulative sum reaches target. If rounding keeps the running sum below
// target the last index with a strictly positive weight is returned, and -1
// if no weight is positive.
func pick(n int, weight func(i int) float64, target float64) int {
	sum := 0.0
	last := -1
	for i := 0; i < n; i++ {
		w := weight(i)
		if w > 0 {
			last = i
		}
		sum += w
		if sum >= target && w > 0 {
			return i
		}
	}
	return last
}

// Select draws a (site, reaction) pair with probability proportional to its
// propensity. The site is chosen first from the cached grid, then the
// reaction from propensities recomputed at that site. It consumes exactly
// two draws from rng.
func (g *Grid) Select(rng *pcore.RNG, net *Network, lat *core.Lattice) (x, y, r int, err error) {
	target := rng.Unit() * g.total
	i := pick(len(g.site), func(i int) float64 { return g.site[i] }, target)
	if i < 0 {
		return 0, 0, 0, ErrInvalidState
	}
	x, y = i/g.h, i%g.h

	site := lat.Site(x, y)
	target = rng.Unit() * g.site[i]
	r = pick(net.Reactions, func(r int) float64 { return net.Propensity(r, site) }, target)
	if r < 0 {
		return 0, 0, 0, ErrInvalidState
	}
	return x, y, r, nil
}
