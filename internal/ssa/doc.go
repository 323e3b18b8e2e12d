// Package ssa implements an exact stochastic simulation (Gillespie direct
// method) over a 2D lattice of independent reaction sites.
//
// Each site holds a vector of molecule counts. A call to Advance repeatedly
// picks one (site, reaction) pair with probability proportional to its
// propensity, applies the reaction's stoichiometry to that site and advances
// either a continuous clock or an event counter until the requested Stop is
// reached. Molecules never migrate between sites.
//
// The propensity of reaction r at a site with counts c is
//
//	k_r * prod_{m: nu_rm < 0} c_m^(-nu_rm) * (1 + sum_{m: kappa_rm > 0} kappa_rm*c_m)
//
// where nu is the stoichiometry matrix and kappa the catalyst matrix.
// Reactions whose PropensityKind is not Standard contribute zero.
//
// Every call seeds its own generator, so independent calls on distinct
// lattices can run concurrently and any call can be replayed from its seed.
package ssa
