package bigsi

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	RecordInsert(duration time.Duration, err error)

	// RecordQuery is called after each Get/GetRaw, with the number of
	// accessions that matched.
	RecordQuery(duration time.Duration, hits int)

	// RecordMerge is called after each merge attempt.
	RecordMerge(duration time.Duration, err error)

	// RecordCompact is called after each compaction pass, with the number
	// of rows rewritten to the sentinel form.
	RecordCompact(rows int, duration time.Duration)

	// RecordSave is called after each snapshot save, with the encoded size.
	RecordSave(bytes int, duration time.Duration, err error)

	// RecordLoad is called after each snapshot load.
	RecordLoad(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)     {}
func (NoopMetricsCollector) RecordQuery(time.Duration, int)        {}
func (NoopMetricsCollector) RecordMerge(time.Duration, error)      {}
func (NoopMetricsCollector) RecordCompact(int, time.Duration)      {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryHits        atomic.Int64
	QueryTotalNanos  atomic.Int64
	MergeCount       atomic.Int64
	MergeErrors      atomic.Int64
	CompactCount     atomic.Int64
	CompactedRows    atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	SaveBytes        atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadBytes        atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(duration time.Duration, hits int) {
	b.QueryCount.Add(1)
	b.QueryHits.Add(int64(hits))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(_ time.Duration, err error) {
	b.MergeCount.Add(1)
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// RecordCompact implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompact(rows int, _ time.Duration) {
	b.CompactCount.Add(1)
	b.CompactedRows.Add(int64(rows))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveBytes.Add(int64(bytes))
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(bytes int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadBytes.Add(int64(bytes))
	if err != nil {
		b.LoadErrors.Add(1)
	}
}
