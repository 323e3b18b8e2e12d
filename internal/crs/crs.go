// Package crs describes chemical reaction systems: the molecules of a
// network, its reactions with their stoichiometry, rate constants and
// catalysts, and the file formats those systems are stored in.
//
// A System is the editable, named form. Compile turns it into the dense
// matrices consumed by the ssa engine.
package crs

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"chem-ca/internal/ssa"
)

var (
	// ErrInvalidSystem reports a structurally broken reaction system.
	ErrInvalidSystem = errors.New("crs: invalid reaction system")
	// ErrUnknownMolecule reports a reference to a molecule that is not declared.
	ErrUnknownMolecule = errors.New("crs: unknown molecule")
	// ErrUnknownPropensity reports a propensity name with no kinetic law tag.
	ErrUnknownPropensity = errors.New("crs: unknown propensity")
)

// Propensity names understood by Compile.
const (
	PropensityStandard   = "STD"
	PropensityReplicator = "RCM"
)

var propensityKinds = map[string]ssa.PropensityKind{
	PropensityStandard:   ssa.Standard,
	PropensityReplicator: ssa.Replicator,
}

// Term is a molecule together with its stoichiometric coefficient.
type Term struct {
	Molecule int
	Coeff    int
}

// Catalyst is a molecule that enhances a reaction without being consumed.
type Catalyst struct {
	Molecule int
	Constant float64
}

// Reaction is one reaction of a System, referring to molecules by index.
type Reaction struct {
	ID         int
	Reactants  []Term
	Products   []Term
	Constant   float64
	Propensity string
	Catalysts  []Catalyst
}

// System is a set of named molecules and the reactions between them.
type System struct {
	Molecules []string
	Reactions []Reaction
}

// Normalize orders reactants, products and catalysts by molecule index and
// merges duplicates. Duplicate reactant or product coefficients add up; for
// duplicate catalysts the first constant wins.
func (r *Reaction) Normalize() {
	r.Reactants = mergeTerms(r.Reactants)
	r.Products = mergeTerms(r.Products)

	sort.SliceStable(r.Catalysts, func(i, j int) bool { return r.Catalysts[i].Molecule < r.Catalysts[j].Molecule })
	out := r.Catalysts[:0]
	for _, c := range r.Catalysts {
		if n := len(out); n > 0 && out[n-1].Molecule == c.Molecule {
			continue
		}
		out = append(out, c)
	}
	r.Catalysts = out
	if r.Propensity == "" {
		r.Propensity = PropensityStandard
	}
}

func mergeTerms(terms []Term) []Term {
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Molecule < terms[j].Molecule })
	out := terms[:0]
	for _, t := range terms {
		if n := len(out); n > 0 && out[n-1].Molecule == t.Molecule {
			out[n-1].Coeff += t.Coeff
			continue
		}
		out = append(out, t)
	}
	return out
}

// MoleculeIndex maps molecule names to their index.
func (s *System) MoleculeIndex() map[string]int {
	idx := make(map[string]int, len(s.Molecules))
	for i, m := range s.Molecules {
		idx[m] = i
	}
	return idx
}

// Validate checks that reaction IDs are dense, that every referenced
// molecule exists and that coefficients and constants are usable.
func (s *System) Validate() error {
	if len(s.Molecules) == 0 {
		return fmt.Errorf("%w: no molecules", ErrInvalidSystem)
	}
	if len(s.Reactions) == 0 {
		return fmt.Errorf("%w: no reactions", ErrInvalidSystem)
	}
	seen := make(map[string]struct{}, len(s.Molecules))
	for i, m := range s.Molecules {
		if m == "" {
			return fmt.Errorf("%w: molecule %d has an empty name", ErrInvalidSystem, i)
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: duplicate molecule %q", ErrInvalidSystem, m)
		}
		seen[m] = struct{}{}
	}

	n := len(s.Molecules)
	for i, r := range s.Reactions {
		if r.ID != i {
			return fmt.Errorf("%w: reaction at position %d has ID %d", ErrInvalidSystem, i, r.ID)
		}
		if math.IsNaN(r.Constant) || math.IsInf(r.Constant, 0) {
			return fmt.Errorf("%w: reaction %d has a non-finite rate constant", ErrInvalidSystem, i)
		}
		if _, ok := propensityKinds[r.Propensity]; !ok && r.Propensity != "" {
			return fmt.Errorf("reaction %d: %w %q", i, ErrUnknownPropensity, r.Propensity)
		}
		for _, list := range [][]Term{r.Reactants, r.Products} {
			for _, t := range list {
				if t.Molecule < 0 || t.Molecule >= n {
					return fmt.Errorf("reaction %d: %w index %d", i, ErrUnknownMolecule, t.Molecule)
				}
				if t.Coeff <= 0 {
					return fmt.Errorf("%w: reaction %d has coefficient %d", ErrInvalidSystem, i, t.Coeff)
				}
			}
		}
		for _, c := range r.Catalysts {
			if c.Molecule < 0 || c.Molecule >= n {
				return fmt.Errorf("reaction %d: %w index %d", i, ErrUnknownMolecule, c.Molecule)
			}
		}
	}
	return nil
}

// Compile builds the dense network. The stoichiometric coefficient of a
// molecule is its product coefficient minus its reactant coefficient, so a
// molecule on both sides of a reaction only enters the mass-action term when
// it is consumed on balance; model autocatalysis with catalyst entries.
func (s *System) Compile() (*ssa.Network, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	net := ssa.NewNetwork(len(s.Molecules), len(s.Reactions))
	for i, r := range s.Reactions {
		net.Rates[i] = r.Constant
		kind := ssa.Standard
		if r.Propensity != "" {
			kind = propensityKinds[r.Propensity]
		}
		net.Kinds[i] = kind

		row := net.Row(i)
		for _, t := range r.Reactants {
			row[t.Molecule] -= float64(t.Coeff)
		}
		for _, t := range r.Products {
			row[t.Molecule] += float64(t.Coeff)
		}
		cat := net.CatalystRow(i)
		for _, c := range r.Catalysts {
			cat[c.Molecule] = c.Constant
		}
	}
	return net, nil
}
