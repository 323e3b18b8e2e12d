package ui

import (
	"math"
	"strconv"

	"chem-ca/internal/core"
)

// Readout is the run summary shown at the top of the HUD.
type Readout struct {
	Clock    float64
	Events   int
	HasClock bool

	Names  []string
	Totals []float64
}

// ReadoutOf collects whatever clock and species information sim reports.
func ReadoutOf(sim core.Sim) Readout {
	var r Readout
	if c, ok := sim.(core.ClockReporter); ok {
		r.Clock, r.Events, r.HasClock = c.Clock(), c.Events(), true
	}
	if s, ok := sim.(core.SpeciesReporter); ok {
		r.Names, r.Totals = s.SpeciesNames(), s.SpeciesTotals()
	}
	return r
}

// FormatCount renders a molecule count compactly: exact below ten thousand,
// then with a k/M/G suffix.
func FormatCount(v float64) string {
	a := math.Abs(v)
	switch {
	case a < 1e4:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case a < 1e6:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "k"
	case a < 1e9:
		return strconv.FormatFloat(v/1e6, 'f', 2, 64) + "M"
	default:
		return strconv.FormatFloat(v/1e9, 'f', 2, 64) + "G"
	}
}

// SpeciesIntensity writes the abundance of species m at every site into out,
// row-major and scaled so the fullest site is 1. It returns out resized to
// the lattice.
func SpeciesIntensity(lat *core.Lattice, m int, out []float32) []float32 {
	n := lat.Sites()
	if cap(out) < n {
		out = make([]float32, n)
	}
	out = out[:n]
	if m < 0 || m >= lat.Species {
		clear(out)
		return out
	}
	top := 0.0
	for x := 0; x < lat.W; x++ {
		for y := 0; y < lat.H; y++ {
			v := lat.Site(x, y)[m]
			if v > top {
				top = v
			}
			out[y*lat.W+x] = float32(v)
		}
	}
	if top <= 0 {
		clear(out)
		return out
	}
	inv := float32(1 / top)
	for i, v := range out {
		if v < 0 {
			v = 0
		}
		out[i] = v * inv
	}
	return out
}
