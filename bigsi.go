package bigsi

import (
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// Index is a BIGSI-like bit-sliced membership index.
//
// The index holds a fixed number of rows, one per hash bucket. Each row is a
// bit vector with one bit per accession. Inserting a value for an accession
// sets that accession's bit in the rows selected by the seeded hash
// functions; querying a value ANDs those rows together, so false positives
// are possible (bucket collisions) but false negatives are not.
//
// Rows that no accession has ever touched are stored as zero-width
// sentinels. A sentinel is semantically an all-false row of the current
// accession width but occupies no storage; Compact converts all-false dense
// rows back to this form.
//
// An Index is not safe for concurrent mutation. Concurrent calls to the
// read-only query methods (Get, GetRaw, Hits, Score) are safe as long as no
// Insert, Merge or Compact runs at the same time; callers needing mixed
// access must serialize it themselves.
type Index struct {
	rows       []*bitset.BitSet
	numHashes  uint
	accessions uint

	logger  *Logger
	metrics MetricsCollector
}

// New creates an index with m rows, n accession slots and numHashes hash
// functions per value. m, n and numHashes must all be positive; choosing m
// and numHashes large enough for a target false-positive probability is the
// caller's responsibility.
func New(m, n, numHashes uint, optFns ...Option) (*Index, error) {
	if m == 0 {
		return nil, &ErrInvalidParameter{Name: "m", Value: m}
	}
	if n == 0 {
		return nil, &ErrInvalidParameter{Name: "n", Value: n}
	}
	if numHashes == 0 {
		return nil, &ErrInvalidParameter{Name: "numHashes", Value: numHashes}
	}

	opts := applyOptions(optFns)

	rows := make([]*bitset.BitSet, m)
	for i := range rows {
		rows[i] = bitset.New(n)
	}

	return &Index{
		rows:       rows,
		numHashes:  numHashes,
		accessions: n,
		logger:     opts.logger,
		metrics:    opts.metricsCollector,
	}, nil
}

// Rows returns the number of rows (hash buckets) in the index.
func (idx *Index) Rows() uint { return uint(len(idx.rows)) }

// NumHashes returns the number of hash functions used per value.
func (idx *Index) NumHashes() uint { return idx.numHashes }

// AccessionCount returns the number of accession slots currently
// represented. It grows only through Merge.
func (idx *Index) AccessionCount() uint { return idx.accessions }

// bucket maps a value to a row position using xxHash64 with the hash
// function index as seed. Seeding keeps the hash functions independent in
// practice without requiring separate hash implementations.
func (idx *Index) bucket(value []byte, seed uint64) uint {
	var d xxhash.Digest
	d.ResetWithSeed(seed)
	_, _ = d.Write(value)
	return uint(d.Sum64() % uint64(len(idx.rows)))
}

// Insert records that accession contains value. accession must be in
// [0, AccessionCount).
func (idx *Index) Insert(accession uint, value []byte) error {
	start := time.Now()

	if accession >= idx.accessions {
		err := &ErrAccessionOutOfRange{Accession: accession, AccessionCount: idx.accessions}
		idx.metrics.RecordInsert(time.Since(start), err)
		idx.logger.LogInsert(accession, len(value), err)
		return err
	}

	for i := uint(0); i < idx.numHashes; i++ {
		b := idx.bucket(value, uint64(i))
		row := idx.rows[b]
		if row.Len() == 0 {
			// Sentinel row from an earlier Compact: materialize it at
			// full width before setting a bit.
			row = bitset.New(idx.accessions)
			idx.rows[b] = row
		}
		row.Set(accession)
	}

	idx.metrics.RecordInsert(time.Since(start), nil)
	idx.logger.LogInsert(accession, len(value), nil)
	return nil
}

// get accumulates the AND of the rows selected by value's hash buckets.
// It returns the sentinel row itself (zero width) as soon as one of the
// buckets is a sentinel: no accession ever touched that bucket, so the
// value was never inserted by anyone.
func (idx *Index) get(value []byte) *bitset.BitSet {
	var acc *bitset.BitSet
	for i := uint(0); i < idx.numHashes; i++ {
		row := idx.rows[idx.bucket(value, uint64(i))]
		if row.Len() == 0 {
			return row
		}
		if acc == nil {
			acc = row.Clone()
		} else {
			acc.InPlaceIntersection(row)
		}
	}
	return acc
}

// Get returns the ascending list of accessions that (probably) contain
// value. The result is empty, not an error, when nothing matches. False
// positives are possible; false negatives are not.
func (idx *Index) Get(value []byte) []uint {
	start := time.Now()

	acc := idx.get(value)
	if acc.Len() == 0 {
		idx.metrics.RecordQuery(time.Since(start), 0)
		return nil
	}

	hits := make([]uint, 0, acc.Count())
	for i, ok := acc.NextSet(0); ok; i, ok = acc.NextSet(i + 1) {
		hits = append(hits, i)
	}

	idx.metrics.RecordQuery(time.Since(start), len(hits))
	idx.logger.LogQuery(len(value), len(hits))
	return hits
}

// GetRaw returns the raw AND-accumulated bit vector for value, of width
// AccessionCount. When one of value's buckets is a sentinel, GetRaw
// short-circuits and returns that zero-width sentinel row itself rather
// than an all-false vector of full width; callers must check Len before
// assuming full width. The returned bit set must be treated as read-only
// in the sentinel case.
func (idx *Index) GetRaw(value []byte) *bitset.BitSet {
	start := time.Now()
	acc := idx.get(value)
	idx.metrics.RecordQuery(time.Since(start), int(acc.Count()))
	return acc
}

// Merge appends other's accessions to idx. Both indexes must have been
// built with the same row count and the same number of hash functions;
// otherwise Merge returns an ErrParameterMismatch and mutates nothing,
// since merging misparameterized indexes would silently corrupt query
// results. Row i of the result is row i of idx followed by row i of other,
// so other's accession j becomes accession idx.AccessionCount()+j. other
// is left unmodified.
func (idx *Index) Merge(other *Index) error {
	start := time.Now()

	if idx.numHashes != other.numHashes {
		err := &ErrParameterMismatch{Field: "numHashes", Self: idx.numHashes, Other: other.numHashes}
		idx.metrics.RecordMerge(time.Since(start), err)
		idx.logger.LogMerge(other.accessions, err)
		return err
	}
	if len(idx.rows) != len(other.rows) {
		err := &ErrParameterMismatch{Field: "rows", Self: uint(len(idx.rows)), Other: uint(len(other.rows))}
		idx.metrics.RecordMerge(time.Since(start), err)
		idx.logger.LogMerge(other.accessions, err)
		return err
	}

	merged := make([]*bitset.BitSet, len(idx.rows))
	for i := range idx.rows {
		merged[i] = concatRows(idx.rows[i], other.rows[i], idx.accessions, other.accessions)
	}

	idx.rows = merged
	idx.accessions += other.accessions

	idx.metrics.RecordMerge(time.Since(start), nil)
	idx.logger.LogMerge(other.accessions, nil)
	return nil
}

// concatRows concatenates two rows bit-for-bit, low occupying indices
// [0, lowWidth) and high occupying [lowWidth, lowWidth+highWidth). A
// one-sided sentinel is expanded to all-false at its own side's width so
// the surviving bits stay aligned. Two sentinels concatenate to a
// sentinel: the merged bucket is still untouched by every accession.
func concatRows(low, high *bitset.BitSet, lowWidth, highWidth uint) *bitset.BitSet {
	if low.Len() == 0 && high.Len() == 0 {
		return bitset.New(0)
	}

	out := bitset.New(lowWidth + highWidth)
	for i, ok := low.NextSet(0); ok; i, ok = low.NextSet(i + 1) {
		out.Set(i)
	}
	for i, ok := high.NextSet(0); ok; i, ok = high.NextSet(i + 1) {
		out.Set(lowWidth + i)
	}
	return out
}

// Compact rewrites every all-false dense row to the zero-width sentinel,
// freeing its storage. It returns the number of rows rewritten. Compaction
// never changes the result of a subsequent Get or GetRaw.
func (idx *Index) Compact() int {
	start := time.Now()

	compacted := 0
	for i, row := range idx.rows {
		if row.Len() != 0 && row.None() {
			idx.rows[i] = bitset.New(0)
			compacted++
		}
	}

	idx.metrics.RecordCompact(compacted, time.Since(start))
	idx.logger.LogCompact(compacted)
	return compacted
}

// Equal reports whether idx and other are structurally identical: same
// parameters, same accession count and bit-for-bit identical rows. A
// zero-width sentinel row is not equal to an all-false dense row; Equal is
// meant for round-trip verification, not for semantic query equivalence.
func (idx *Index) Equal(other *Index) bool {
	if other == nil {
		return false
	}
	if idx.numHashes != other.numHashes ||
		idx.accessions != other.accessions ||
		len(idx.rows) != len(other.rows) {
		return false
	}
	for i := range idx.rows {
		if !idx.rows[i].Equal(other.rows[i]) {
			return false
		}
	}
	return true
}

// Stats summarizes the storage state of an index.
type Stats struct {
	Rows           uint // total rows (hash buckets)
	SentinelRows   uint // rows stored as zero-width sentinels
	SetBits        uint // total true bits across all dense rows
	AccessionCount uint
	NumHashes      uint
}

// Stats returns storage statistics for the index.
func (idx *Index) Stats() Stats {
	s := Stats{
		Rows:           uint(len(idx.rows)),
		AccessionCount: idx.accessions,
		NumHashes:      idx.numHashes,
	}
	for _, row := range idx.rows {
		if row.Len() == 0 {
			s.SentinelRows++
			continue
		}
		s.SetBits += row.Count()
	}
	return s
}
