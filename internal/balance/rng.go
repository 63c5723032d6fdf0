// Package balance is a deterministic Monte Carlo evaluator that scores game-design
// entities against fixed combat and economy scenarios.
package balance

import "math"

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223

	// streamPrime spaces the per-iteration seeds so neighbouring iterations
	// never share an LCG state.
	streamPrime = 104729
)

// RNG is a 32-bit linear congruential generator. The same seed always yields
// the same sequence.
type RNG struct {
	state uint32
}

// NewRNG seeds a generator. The seed is reduced to 32 bits; zero becomes 1.
func NewRNG(seed int64) *RNG {
	s := uint32(seed)
	if s == 0 {
		s = 1
	}
	return &RNG{state: s}
}

// Float64 returns the next value in [0,1).
func (r *RNG) Float64() float64 {
	r.state = r.state*lcgMultiplier + lcgIncrement
	return float64(r.state) / 4294967296.0
}

// Chance reports whether a draw lands at or under p.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() <= p
}

// StreamSeed derives the seed of one iteration's private stream.
func StreamSeed(base int64, iteration int, offset int64) int64 {
	return base + int64(iteration)*streamPrime + offset
}

// ClampSeed raises an integer seed below 1 to 1 and keeps every other value exact.
func ClampSeed(seed int64) int64 {
	if seed < 1 {
		return 1
	}
	return seed
}

// NormalizeSeed coerces a caller-supplied seed to a positive integer.
func NormalizeSeed(seed float64) int64 {
	if math.IsNaN(seed) || math.IsInf(seed, 0) || seed < 1 {
		return 1
	}
	if seed >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(seed))
}
