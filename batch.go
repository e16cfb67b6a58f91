package bigsi

import (
	"context"
	"runtime"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
)

// Hits returns the candidate accessions for value as a roaring bitmap.
// Like Get, the result may contain false positives but never misses an
// accession the value was inserted under.
func (idx *Index) Hits(value []byte) *roaring.Bitmap {
	bm := roaring.New()
	row := idx.get(value)
	if row.Len() == 0 {
		return bm
	}
	for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
		bm.Add(uint32(i))
	}
	return bm
}

// HitsAll intersects the candidate sets of all values, returning the
// accessions every value hits. An empty input yields an empty bitmap.
func (idx *Index) HitsAll(values [][]byte) *roaring.Bitmap {
	if len(values) == 0 {
		return roaring.New()
	}
	bms := make([]*roaring.Bitmap, len(values))
	for i, v := range values {
		bms[i] = idx.Hits(v)
	}
	if len(bms) == 1 {
		return bms[0]
	}
	return roaring.FastAnd(bms...)
}

// Score counts, per accession, how many of the values hit it. The result
// has one entry per accession. Useful for containment scoring of a set of
// k-mers against the indexed datasets.
func (idx *Index) Score(values [][]byte) []int {
	counts := make([]int, idx.accessions)
	for _, v := range values {
		row := idx.get(v)
		if row.Len() == 0 {
			continue
		}
		for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
			counts[i]++
		}
	}
	return counts
}

// ScoreParallel is Score with the values partitioned across up to
// maxConcurrency goroutines. A maxConcurrency of zero or less uses
// GOMAXPROCS. The index must not be mutated while the call is in flight.
func (idx *Index) ScoreParallel(ctx context.Context, values [][]byte, maxConcurrency int) ([]int, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}

	counts := make([]int, idx.accessions)
	if len(values) == 0 {
		return counts, nil
	}

	chunkSize := (len(values) + maxConcurrency - 1) / maxConcurrency

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for start := 0; start < len(values); start += chunkSize {
		chunk := values[start:min(start+chunkSize, len(values))]
		g.Go(func() error {
			local := make([]int, len(counts))
			for _, v := range chunk {
				if err := ctx.Err(); err != nil {
					return err
				}
				row := idx.get(v)
				if row.Len() == 0 {
					continue
				}
				for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
					local[i]++
				}
			}

			mu.Lock()
			for i, c := range local {
				counts[i] += c
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
