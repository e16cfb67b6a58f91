package testutil

import (
	"math/rand"
	"sync"
)

var alphabet = []byte("ACGT")

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

// Sequence returns a random DNA sequence of the given length over ACGT.
// Locks only once per call (preferred over calling Intn in a loop).
func (r *RNG) Sequence(length int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq := make([]byte, length)
	for i := range seq {
		seq[i] = alphabet[r.rand.Intn(len(alphabet))]
	}
	return seq
}

// KMers returns count random k-mers of length k. The k-mers are
// independent draws, so duplicates are possible for small k.
func (r *RNG) KMers(count, k int) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	kmers := make([][]byte, count)
	for i := range kmers {
		kmer := make([]byte, k)
		for j := range kmer {
			kmer[j] = alphabet[r.rand.Intn(len(alphabet))]
		}
		kmers[i] = kmer
	}
	return kmers
}

// Shuffle permutes the k-mer slice in place.
func (r *RNG) Shuffle(kmers [][]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(kmers), func(i, j int) {
		kmers[i], kmers[j] = kmers[j], kmers[i]
	})
}

// Kmerize decomposes a sequence into its overlapping k-mers. The returned
// slices alias seq; callers must not mutate them. A sequence shorter than
// k yields no k-mers.
func Kmerize(seq []byte, k int) [][]byte {
	if len(seq) < k {
		return nil
	}
	kmers := make([][]byte, 0, len(seq)-k+1)
	for i := 0; i+k <= len(seq); i++ {
		kmers = append(kmers, seq[i:i+k])
	}
	return kmers
}
