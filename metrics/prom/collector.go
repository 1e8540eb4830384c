// Package prom exports broadphase metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	w, _ := broadphase.New(n, broadphase.WithMetricsCollector(prom.NewCollector(reg)))
package prom

import (
	"time"

	"github.com/hupe1980/broadphase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "broadphase"

// Collector implements broadphase.MetricsCollector with Prometheus counters
// and histograms.
type Collector struct {
	inserts         *prometheus.CounterVec
	insertDuration  prometheus.Histogram
	queries         prometheus.Counter
	queryCandidates prometheus.Histogram
	queryCollisions prometheus.Counter
	queryDuration   prometheus.Histogram
	passes          *prometheus.CounterVec
	passPairs       prometheus.Gauge
	passDuration    prometheus.Histogram
	committedBytes  prometheus.Counter
}

var _ broadphase.MetricsCollector = (*Collector)(nil)

// NewCollector registers the broadphase metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		inserts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inserts_total",
			Help:      "Entities added, by outcome.",
		}, []string{"status"}),
		insertDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "insert_duration_seconds",
			Help:      "Time spent inserting one entity into the BVH.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		queries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Per-entity collision queries.",
		}),
		queryCandidates: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_candidates",
			Help:      "Broad phase candidates per query.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		queryCollisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_collisions_total",
			Help:      "Narrow phase collisions found by queries.",
		}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent in one collision query.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		passes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collision_passes_total",
			Help:      "Collision passes over the world, by outcome.",
		}, []string{"status"}),
		passPairs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collision_pairs",
			Help:      "Colliding pairs found by the last successful pass.",
		}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collision_pass_duration_seconds",
			Help:      "Time spent in one collision pass.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
		committedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arena_committed_bytes_total",
			Help:      "Bytes committed by world arenas.",
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordInsert implements broadphase.MetricsCollector.
func (c *Collector) RecordInsert(duration time.Duration, err error) {
	c.inserts.WithLabelValues(status(err)).Inc()
	c.insertDuration.Observe(duration.Seconds())
}

// RecordQuery implements broadphase.MetricsCollector.
func (c *Collector) RecordQuery(candidates, collisions int, duration time.Duration) {
	c.queries.Inc()
	c.queryCandidates.Observe(float64(candidates))
	c.queryCollisions.Add(float64(collisions))
	c.queryDuration.Observe(duration.Seconds())
}

// RecordCollisionPass implements broadphase.MetricsCollector.
func (c *Collector) RecordCollisionPass(_, pairs int, duration time.Duration, err error) {
	c.passes.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.passPairs.Set(float64(pairs))
	c.passDuration.Observe(duration.Seconds())
}

// RecordCommit implements broadphase.MetricsCollector.
func (c *Collector) RecordCommit(bytes int64) {
	c.committedBytes.Add(float64(bytes))
}
