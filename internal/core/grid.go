package core

// Lattice stores per-site molecule counts for a W×H grid of sites. Values are
// laid out with x outermost, then y, then species, so the counts of one site
// are contiguous: index = (x*H + y)*Species + m.
type Lattice struct {
	W, H    int
	Species int
	data    []float64
}

// NewLattice allocates a zeroed lattice with the given dimensions.
func NewLattice(w, h, species int) *Lattice {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	if species < 0 {
		species = 0
	}
	return &Lattice{W: w, H: h, Species: species, data: make([]float64, w*h*species)}
}

// WrapLattice adopts an existing buffer without copying it. The caller keeps
// ownership; the lattice mutates it in place. The buffer length is not
// checked here, see the ssa package for validated entry points.
func WrapLattice(w, h, species int, buf []float64) *Lattice {
	return &Lattice{W: w, H: h, Species: species, data: buf}
}

// Values exposes the backing slice so callers can read/write counts directly.
func (l *Lattice) Values() []float64 { return l.data }

// Sites returns the number of lattice sites.
func (l *Lattice) Sites() int { return l.W * l.H }

// Index returns the linear slice index for species m at site (x, y).
func (l *Lattice) Index(x, y, m int) int { return (x*l.H+y)*l.Species + m }

// Site returns the counts of every species at (x, y). The slice aliases the
// backing buffer.
func (l *Lattice) Site(x, y int) []float64 {
	base := l.Index(x, y, 0)
	return l.data[base : base+l.Species : base+l.Species]
}

// Totals sums every species over all sites.
func (l *Lattice) Totals() []float64 {
	out := make([]float64, l.Species)
	for i, v := range l.data {
		out[i%l.Species] += v
	}
	return out
}

// Clone returns a deep copy of the lattice.
func (l *Lattice) Clone() *Lattice {
	return &Lattice{W: l.W, H: l.H, Species: l.Species, data: append([]float64(nil), l.data...)}
}

// Clear fills the lattice with zeros.
func (l *Lattice) Clear() {
	for i := range l.data {
		l.data[i] = 0
	}
}
