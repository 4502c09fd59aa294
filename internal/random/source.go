package random

import (
	"math/rand"
)

// Source supplies every random draw the engine makes.
type Source interface {
	// Int returns a uniform integer in [min, max]. It returns min without
	// drawing when max <= min.
	Int(min, max int) int
	// Float returns a uniform real in [min, max).
	Float(min, max float64) float64
	// Chance reports a Bernoulli draw with probability p. p <= 0 is always
	// false and p >= 1 always true; neither consumes randomness.
	Chance(p float64) bool
	// Shuffle permutes n elements through swap.
	Shuffle(n int, swap func(i, j int))
}

// Rand is a Source backed by math/rand.
type Rand struct {
	seed int64
	rng  *rand.Rand
}

// NewRand returns a Source seeded with seed. A zero seed is replaced by one
// from NewSeed; Seed reports the value actually used.
func NewRand(seed int64) (*Rand, error) {
	if seed == 0 {
		generated, err := NewSeed()
		if err != nil {
			return nil, err
		}
		seed = generated
	}
	return &Rand{seed: seed, rng: rand.New(rand.NewSource(seed))}, nil
}

// Seed returns the seed the generator was created with.
func (r *Rand) Seed() int64 {
	return r.seed
}

func (r *Rand) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.rng.Intn(max-min+1)
}

func (r *Rand) Float(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.rng.Float64()*(max-min)
}

func (r *Rand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.rng.Float64() < p
}

func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}
