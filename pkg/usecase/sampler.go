package usecase

import (
	"math"
	"math/rand/v2"
	"time"
)

// Sampler draws the random variates used by the simulation engine. Each
// simulation invocation gets its own sampler, so concurrent calls never
// share a random stream. Tests construct seeded samplers to assert exact
// output sequences.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler with a non-deterministic stream
func NewSampler() *Sampler {
	return NewSeededSampler(uint64(time.Now().UnixNano()), rand.Uint64())
}

// NewSeededSampler creates a sampler with a reproducible stream
func NewSeededSampler(seed1, seed2 uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Normal perturbs base by a normally distributed relative variability using
// the Box-Muller transform, clamped back to [0, 1]. variability is the
// relative standard deviation, e.g. 0.2 for +-20%.
func (s *Sampler) Normal(base, variability float64) float64 {
	u1 := s.rng.Float64()
	for u1 == 0 {
		u1 = s.rng.Float64()
	}
	u2 := s.rng.Float64()

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	return Clamp01(base * (1 + z*variability))
}

// UniformAround draws uniformly within +-spread of base, e.g. spread 0.2
// yields a value in [0.8*base, 1.2*base]
func (s *Sampler) UniformAround(base, spread float64) float64 {
	return base * (1 + spread*(2*s.rng.Float64()-1))
}

// Bernoulli draws a materialization event with the given success probability
func (s *Sampler) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// Clamp01 clamps v to [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
