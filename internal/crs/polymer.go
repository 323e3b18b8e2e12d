package crs

// BinaryPolymers builds the reversible ligation network over the monomers A
// and B for every sequence up to maxLen. Each split point of a sequence s
// gives a ligation s[:i] + s[i:] -> s at rate forward and the reverse
// hydrolysis at rate backward.
func BinaryPolymers(maxLen int, forward, backward float64) *System {
	sys := &System{}
	index := map[string]int{}

	var seqs []string
	for l := 1; l <= maxLen; l++ {
		seqs = appendSequences(seqs[:0], "", l)
		for _, s := range seqs {
			index[s] = len(sys.Molecules)
			sys.Molecules = append(sys.Molecules, s)
			for i := 1; i < l; i++ {
				head, tail := index[s[:i]], index[s[i:]]
				whole := index[s]
				fwd := Reaction{
					ID:         len(sys.Reactions),
					Reactants:  []Term{{Molecule: head, Coeff: 1}, {Molecule: tail, Coeff: 1}},
					Products:   []Term{{Molecule: whole, Coeff: 1}},
					Constant:   forward,
					Propensity: PropensityStandard,
				}
				fwd.Normalize()
				sys.Reactions = append(sys.Reactions, fwd)

				back := Reaction{
					ID:         len(sys.Reactions),
					Reactants:  []Term{{Molecule: whole, Coeff: 1}},
					Products:   []Term{{Molecule: head, Coeff: 1}, {Molecule: tail, Coeff: 1}},
					Constant:   backward,
					Propensity: PropensityStandard,
				}
				back.Normalize()
				sys.Reactions = append(sys.Reactions, back)
			}
		}
	}
	return sys
}

func appendSequences(dst []string, prefix string, n int) []string {
	if n == 0 {
		return append(dst, prefix)
	}
	for _, m := range "AB" {
		dst = appendSequences(dst, prefix+string(m), n-1)
	}
	return dst
}

// Mass weighs every molecule by the length of its name, the number of
// monomers in a sequence of BinaryPolymers.
func (s *System) Mass(totals []float64) float64 {
	mass := 0.0
	for i, name := range s.Molecules {
		if i < len(totals) {
			mass += float64(len(name)) * totals[i]
		}
	}
	return mass
}
