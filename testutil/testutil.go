package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/cqltable/distance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// UniformVectors returns n vectors of dimension dim with components in [-1, 1).
func (r *RNG) UniformVectors(n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
		r.FillUniformRange(out[i], -1, 1)
	}
	return out
}

// AngleVector returns the unit vector at angle theta in the plane.
func AngleVector(theta float64) []float32 {
	return []float32{float32(math.Cos(theta)), float32(math.Sin(theta))}
}

// ExactTopK returns the ids of the k vectors closest to query under m,
// ties broken by id.
func ExactTopK(query []float32, vectors map[string][]float32, k int, m distance.Metric) ([]string, error) {
	ids := make([]string, 0, len(vectors))
	batch := make([][]float32, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		batch = append(batch, vectors[id])
	}

	scores, err := distance.Scores(m, query, batch)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case m.Closer(scores[a], scores[b]):
			return -1
		case m.Closer(scores[b], scores[a]):
			return 1
		default:
			return 0
		}
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]string, k)
	for i := range out {
		out[i] = ids[order[i]]
	}
	return out, nil
}
