// Package testutil provides testing utilities for bigsi.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random DNA sequences and k-mers
// with reproducible seeds.
//
// # Random Sequence Generation
//
//	rng := testutil.NewRNG(seed)
//	seq := rng.Sequence(1000)        // random ACGT string
//	kmers := rng.KMers(500, 31)      // 500 random 31-mers
//
// # K-mer Decomposition
//
//	kmers := testutil.Kmerize(seq, 31)
package testutil
