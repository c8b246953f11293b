// Package stochastic wraps gonum distributions around a single seedable
// source so that a simulation run is reproducible: the same seed and the same
// call order always produce the same draws.
package stochastic

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const golden = 0x9e3779b97f4a7c15

// Sampler draws from common distributions. It is not safe for concurrent use;
// give each goroutine its own Sampler via Derive.
type Sampler struct {
	seed uint64
	src  rand.Source
	rng  *rand.Rand
}

// New returns a Sampler seeded with seed.
func New(seed uint64) *Sampler {
	src := rand.NewPCG(seed, seed^golden)
	return &Sampler{seed: seed, src: src, rng: rand.New(src)}
}

// Seed returns the seed the sampler was built with.
func (s *Sampler) Seed() uint64 { return s.seed }

// Derive returns an independent sampler for sub-run i. The result only
// depends on the parent seed and i, not on draws already made.
func (s *Sampler) Derive(i int) *Sampler {
	return New(s.seed ^ (uint64(i+1) * golden))
}

// Normal draws from N(mu, sigma).
func (s *Sampler) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: math.Abs(sigma), Src: s.src}.Rand()
}

// NonNegNormal draws from N(mu, sigma) and clamps negative values to zero.
func (s *Sampler) NonNegNormal(mu, sigma float64) float64 {
	return math.Max(0, s.Normal(mu, sigma))
}

// Uniform draws from U(min, max).
func (s *Sampler) Uniform(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	return distuv.Uniform{Min: min, Max: max, Src: s.src}.Rand()
}

// Chance returns true with probability p.
func (s *Sampler) Chance(p float64) bool {
	return distuv.Bernoulli{P: p, Src: s.src}.Rand() == 1
}

// Float64 draws from [0, 1).
func (s *Sampler) Float64() float64 { return s.rng.Float64() }
