// Package bigsi provides an embedded bit-sliced probabilistic membership
// index (a BIGSI-style index) for Go.
//
// The index answers "which of my n datasets (accessions) probably contain
// this value?" in a few hash probes, with production-ready features
// including:
//
//   - Bloom-filter-style rows: false positives possible, false negatives never
//   - Zero-width sentinel rows so untouched buckets cost no memory
//   - Merge of compatible indexes by accession concatenation
//   - Compaction of all-false rows back to sentinels
//   - Batch containment scoring, sequential and parallel, with Roaring Bitmaps
//   - Checksummed binary snapshots with optional zstd/lz4 compression
//   - Pluggable blob stores: local (mmap), in-memory, MinIO, S3
//   - Atomic snapshot publishing via a DynamoDB-backed commit store
//   - Structured logging (slog) and pluggable metrics collection
//
// # Sizing
//
// Choose the row count m and hash count for a target false-positive rate the
// same way you would size a Bloom filter of m bits; every accession shares
// the same m buckets.
//
// # Quick Start
//
// Create an index with 250,000 rows, 10 accession slots and 3 hash
// functions:
//
//	idx, err := bigsi.New(250_000, 10, 3)
//	if err != nil {
//	    panic(err)
//	}
//
// Insert the k-mers of dataset 0 and query:
//
//	for _, kmer := range kmers {
//	    _ = idx.Insert(0, kmer)
//	}
//	hits := idx.Get([]byte("ATGTGTGTGCATGCACACACGT"))
//
// Save and reload a snapshot:
//
//	err = idx.SaveToFile("index.bsi", func(o *bigsi.SnapshotOptions) {
//	    o.Compression = persistence.CompressionZSTD
//	})
//	idx2, err := bigsi.LoadFromFile("index.bsi")
//
// Publish to object storage:
//
//	store, err := s3.NewDefaultStore(ctx, "my-bucket", "indexes/")
//	err = idx.SaveToStore(ctx, store, "v42.bsi")
//	err = bigsi.PublishCurrent(ctx, store, "v42.bsi")
package bigsi
