// Package walkkernel implements the per-step transition rule every
// resident walk applies when its block is activated: with probability
// alpha, restart to a uniformly chosen vertex of the whole graph;
// otherwise step to a uniformly chosen out-neighbor of the walk's
// current vertex. A vertex with no out-neighbors always restarts.
package walkkernel

import "math/rand/v2"

// Rand is the PRNG type Step consumes, re-exported so callers outside
// this package don't need their own math/rand/v2 import just to hold
// onto one.
type Rand = rand.Rand

// Kernel applies the alpha-restart transition rule with a per-caller
// RNG, so concurrent compute threads each carry their own generator
// rather than contending on a shared one.
type Kernel struct {
	Alpha float64
}

// New builds a Kernel with the given restart probability.
func New(alpha float64) Kernel { return Kernel{Alpha: alpha} }

// Step returns the vertex a walk moves to next, given the graph's
// vertex count, its current neighbor list, and a thread-local RNG.
// neighbors may be empty, in which case Step always restarts.
func (k Kernel) Step(rng *Rand, v uint32, neighbors []uint32) uint32 {
	if len(neighbors) == 0 {
		return uint32(rng.IntN(int(v)))
	}
	if rng.Float64() < k.Alpha {
		return uint32(rng.IntN(int(v)))
	}
	return neighbors[rng.IntN(len(neighbors))]
}

// NewRNG builds a seeded, thread-local PRNG. Two calls with the same
// seed produce identical walk trajectories, which the --seed flag
// relies on for reproducible runs.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
