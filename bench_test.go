package bigsi

import (
	"context"
	"testing"

	"github.com/hcdenbakker/bigsi/persistence"
	"github.com/hcdenbakker/bigsi/testutil"
)

func benchIndex(b *testing.B, accessions uint) (*Index, [][]byte) {
	b.Helper()

	idx, err := New(1_000_000, accessions, 3)
	if err != nil {
		b.Fatal(err)
	}

	rng := testutil.NewRNG(42)
	kmers := rng.KMers(10_000, 31)
	for i, kmer := range kmers {
		if err := idx.Insert(uint(i)%accessions, kmer); err != nil {
			b.Fatal(err)
		}
	}
	return idx, kmers
}

func BenchmarkInsert(b *testing.B) {
	idx, err := New(1_000_000, 64, 3)
	if err != nil {
		b.Fatal(err)
	}
	rng := testutil.NewRNG(42)
	kmers := rng.KMers(b.N, 31)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := idx.Insert(uint(i%64), kmers[i]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGet(b *testing.B) {
	idx, kmers := benchIndex(b, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Get(kmers[i%len(kmers)])
	}
}

func BenchmarkScore(b *testing.B) {
	idx, kmers := benchIndex(b, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Score(kmers[:1000])
	}
}

func BenchmarkScoreParallel(b *testing.B) {
	idx, kmers := benchIndex(b, 64)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.ScoreParallel(ctx, kmers[:1000], 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshalBinary(b *testing.B) {
	idx, _ := benchIndex(b, 64)
	idx.Compact()

	for _, compression := range []persistence.Compression{
		persistence.CompressionNone,
		persistence.CompressionLZ4,
		persistence.CompressionZSTD,
	} {
		b.Run(compression.String(), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := idx.encode(compression); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkUnmarshalBinary(b *testing.B) {
	idx, _ := benchIndex(b, 64)
	idx.Compact()

	data, err := idx.MarshalBinary()
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var loaded Index
		if err := loaded.UnmarshalBinary(data); err != nil {
			b.Fatal(err)
		}
	}
}
