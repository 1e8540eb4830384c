package broadphase

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// metrics/prom for a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each Add.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordQuery is called after each per-entity collision query.
	// candidates is the broad phase hit count, collisions the narrow phase count.
	RecordQuery(candidates, collisions int, duration time.Duration)

	// RecordCollisionPass is called after FindCollisions and
	// FindCollisionsParallel.
	RecordCollisionPass(entities, pairs int, duration time.Duration, err error)

	// RecordCommit is called whenever the world's arena commits fresh pages.
	RecordCommit(bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)                  {}
func (NoopMetricsCollector) RecordQuery(int, int, time.Duration)                {}
func (NoopMetricsCollector) RecordCollisionPass(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCommit(int64)                                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryCandidates  atomic.Int64
	QueryCollisions  atomic.Int64
	QueryTotalNanos  atomic.Int64
	PassCount        atomic.Int64
	PassErrors       atomic.Int64
	PassPairs        atomic.Int64
	CommitCount      atomic.Int64
	CommittedBytes   atomic.Int64
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
func (b *BasicMetricsCollector) RecordQuery(candidates, collisions int, duration time.Duration) {
	b.QueryCount.Add(1)
	b.QueryCandidates.Add(int64(candidates))
	b.QueryCollisions.Add(int64(collisions))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
}

// RecordCollisionPass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCollisionPass(_, pairs int, _ time.Duration, err error) {
	b.PassCount.Add(1)
	if err != nil {
		b.PassErrors.Add(1)
		return
	}
	b.PassPairs.Add(int64(pairs))
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(bytes int64) {
	b.CommitCount.Add(1)
	b.CommittedBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:     b.InsertCount.Load(),
		InsertErrors:    b.InsertErrors.Load(),
		InsertAvgNanos:  avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		QueryCount:      b.QueryCount.Load(),
		QueryCandidates: b.QueryCandidates.Load(),
		QueryCollisions: b.QueryCollisions.Load(),
		QueryAvgNanos:   avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		PassCount:       b.PassCount.Load(),
		PassErrors:      b.PassErrors.Load(),
		PassPairs:       b.PassPairs.Load(),
		CommitCount:     b.CommitCount.Load(),
		CommittedBytes:  b.CommittedBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount     int64
	InsertErrors    int64
	InsertAvgNanos  int64
	QueryCount      int64
	QueryCandidates int64
	QueryCollisions int64
	QueryAvgNanos   int64
	PassCount       int64
	PassErrors      int64
	PassPairs       int64
	CommitCount     int64
	CommittedBytes  int64
}
