// Package testutil provides testing utilities for cqltable.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors and computing exact
// nearest neighbors to check search results against.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 128)
//	rng.FillUniform(vec)      // uniform [0, 1)
//	vecs := rng.UniformVectors(100, 128)
//
// # Exact Search (Ground Truth)
//
//	ids, err := testutil.ExactTopK(query, vectors, k, distance.MetricL2)
package testutil
