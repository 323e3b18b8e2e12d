package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
// Every simulation call owns its own instance; there is no package-level generator.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Unit returns a uniform draw from the open interval (0, 1). Both endpoints are
// rejected so the result is always safe to pass to math.Log.
func (r *RNG) Unit() float64 {
	for {
		u := r.r.Float64()
		if u > 0 && u < 1 {
			return u
		}
	}
}

// Seed draws a fresh non-negative seed, used to derive per-chunk generators from
// a master generator.
func (r *RNG) Seed() int64 {
	return r.r.Int64()
}

// IntN returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Scatter distributes count units over n bins uniformly at random and calls add
// once per unit with the chosen bin.
func Scatter(r *RNG, n, count int, add func(bin int)) {
	if n <= 0 {
		return
	}
	for i := 0; i < count; i++ {
		add(r.IntN(n))
	}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
