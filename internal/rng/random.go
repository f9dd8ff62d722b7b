package rng

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// DefaultSeed is the root seed used when a match is not configured with one.
const DefaultSeed = "battle-city"

// Labels for the per-subsystem random streams of a match.
const (
	LabelAgents  = "agents"
	LabelZone    = "zone"
	LabelHazards = "hazards"
	LabelCombat  = "combat"
	LabelRoster  = "roster"
	LabelLayout  = "layout"
)

// DeterministicSeedValue derives a stable seed for label from rootSeed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// New returns an independent random stream for label.
func New(rootSeed, label string) *rand.Rand {
	if rootSeed == "" {
		rootSeed = DefaultSeed
	}
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// Float returns a value in [0, 1). A nil generator falls back to a fixed
// stream so callers never need to guard.
func Float(r *rand.Rand) float64 {
	if r == nil {
		r = New(DefaultSeed, "fallback")
	}
	return r.Float64()
}

// Angle returns a uniformly random angle in [0, 2π).
func Angle(r *rand.Rand) float64 {
	return Float(r) * 2 * math.Pi
}

// Between returns a value in [min, max).
func Between(r *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + Float(r)*(max-min)
}

// Intn returns a value in [0, n); n <= 0 yields 0.
func Intn(r *rand.Rand, n int) int {
	if n <= 0 {
		return 0
	}
	return int(Float(r) * float64(n))
}

// PointInDisc returns a point at a uniformly random angle and a uniformly
// random distance in [0, radius) from (cx, cy).
func PointInDisc(r *rand.Rand, cx, cy, radius float64) (float64, float64) {
	angle := Angle(r)
	dist := Float(r) * radius
	return cx + math.Cos(angle)*dist, cy + math.Sin(angle)*dist
}
