package ssa

import "math"

// PropensityKind selects the kinetic law used for a reaction.
type PropensityKind int

const (
	// Standard is mass action with linear catalytic enhancement.
	Standard PropensityKind = 0
	// Replicator is the replicator-composition tag of the text format. It has
	// no kinetic law here and contributes zero propensity.
	Replicator PropensityKind = 1
)

// Network is the dense, compiled form of a reaction system. Row r of
// Stoichiometry and Catalysts holds the coefficients of reaction r for every
// species.
type Network struct {
	Species   int
	Reactions int

	Rates         []float64
	Kinds         []PropensityKind
	Stoichiometry []float64
	Catalysts     []float64
}

// NewNetwork allocates a zeroed network with standard kinetics for every
// reaction.
func NewNetwork(species, reactions int) *Network {
	if species < 0 {
		species = 0
	}
	if reactions < 0 {
		reactions = 0
	}
	return &Network{
		Species:       species,
		Reactions:     reactions,
		Rates:         make([]float64, reactions),
		Kinds:         make([]PropensityKind, reactions),
		Stoichiometry: make([]float64, reactions*species),
		Catalysts:     make([]float64, reactions*species),
	}
}

// Row returns the stoichiometric coefficients of reaction r.
func (n *Network) Row(r int) []float64 {
	return n.Stoichiometry[r*n.Species : (r+1)*n.Species]
}

// CatalystRow returns the catalyst coefficients of reaction r.
func (n *Network) CatalystRow(r int) []float64 {
	return n.Catalysts[r*n.Species : (r+1)*n.Species]
}

// Validate checks that every table has the size implied by Species and
// Reactions.
func (n *Network) Validate() error {
	if n == nil {
		return invalidArg("nil network")
	}
	if n.Species <= 0 {
		return invalidArg("species count %d must be positive", n.Species)
	}
	if n.Reactions <= 0 {
		return invalidArg("reaction count %d must be positive", n.Reactions)
	}
	if len(n.Rates) != n.Reactions {
		return invalidArg("%d rate constants for %d reactions", len(n.Rates), n.Reactions)
	}
	if len(n.Kinds) != n.Reactions {
		return invalidArg("%d propensity kinds for %d reactions", len(n.Kinds), n.Reactions)
	}
	want := n.Reactions * n.Species
	if len(n.Stoichiometry) != want {
		return invalidArg("stoichiometry has %d entries, want %d", len(n.Stoichiometry), want)
	}
	if len(n.Catalysts) != want {
		return invalidArg("catalyst matrix has %d entries, want %d", len(n.Catalysts), want)
	}
	return nil
}

// Propensity returns the rate of reaction r at a site holding the given
// counts. Consumed species enter as count^|coefficient|; catalysts add
// coefficient*count to the enhancement factor.
func (n *Network) Propensity(r int, site []float64) float64 {
	if n.Kinds[r] != Standard {
		return 0
	}
	a := n.Rates[r]
	enhance := 0.0
	stoich := n.Row(r)
	cat := n.CatalystRow(r)
	for m, c := range site {
		if nu := stoich[m]; nu < 0 {
			a *= math.Pow(c, -nu)
		}
		if k := cat[m]; k > 0 {
			enhance += k * c
		}
	}
	return a * (1 + enhance)
}

// Apply adds the stoichiometry of reaction r to the site counts. Counts are
// allowed to go negative.
func (n *Network) Apply(r int, site []float64) {
	for m, nu := range n.Row(r) {
		site[m] += nu
	}
}
