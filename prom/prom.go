// Package prom provides a Prometheus-backed implementation of
// proteorank.MetricsCollector.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/proteorank/proteorank"
)

// Collector implements proteorank.MetricsCollector on Prometheus
// primitives.
type Collector struct {
	matrixLoads     *prometheus.CounterVec
	distanceRuns    *prometheus.CounterVec
	distancePairs   prometheus.Counter
	distanceSeconds prometheus.Histogram
	rebuilds        prometheus.Counter
	rebuildLists    prometheus.Counter
	searches        *prometheus.CounterVec
	searchSeconds   prometheus.Histogram
	benchmarks      *prometheus.CounterVec
	benchmarkSecs   prometheus.Histogram
}

var _ proteorank.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg uses the default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		matrixLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proteorank",
			Name:      "matrix_loads_total",
			Help:      "Signature matrix ingestions by outcome.",
		}, []string{"outcome"}),
		distanceRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proteorank",
			Name:      "distance_runs_total",
			Help:      "All-pairs distance computations by outcome.",
		}, []string{"outcome"}),
		distancePairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proteorank",
			Name:      "distance_pairs_total",
			Help:      "Compound pairs evaluated.",
		}),
		distanceSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "proteorank",
			Name:      "distance_run_seconds",
			Help:      "All-pairs distance computation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proteorank",
			Name:      "neighbor_rebuilds_total",
			Help:      "Targeted neighbor list rebuilds.",
		}),
		rebuildLists: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proteorank",
			Name:      "neighbor_rebuild_lists_total",
			Help:      "Neighbor lists recomputed by targeted rebuilds.",
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proteorank",
			Name:      "searches_total",
			Help:      "Similar-compound queries by outcome.",
		}, []string{"outcome"}),
		searchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "proteorank",
			Name:      "search_seconds",
			Help:      "Similar-compound query latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		benchmarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proteorank",
			Name:      "benchmarks_total",
			Help:      "Benchmark runs by outcome.",
		}, []string{"outcome"}),
		benchmarkSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "proteorank",
			Name:      "benchmark_seconds",
			Help:      "Benchmark run latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}

	reg.MustRegister(
		c.matrixLoads, c.distanceRuns, c.distancePairs, c.distanceSeconds,
		c.rebuilds, c.rebuildLists, c.searches, c.searchSeconds,
		c.benchmarks, c.benchmarkSecs,
	)
	return c
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordMatrixLoad implements proteorank.MetricsCollector.
func (c *Collector) RecordMatrixLoad(duration time.Duration, err error) {
	c.matrixLoads.WithLabelValues(outcome(err)).Inc()
}

// RecordDistances implements proteorank.MetricsCollector.
func (c *Collector) RecordDistances(pairs int, duration time.Duration, err error) {
	c.distanceRuns.WithLabelValues(outcome(err)).Inc()
	c.distancePairs.Add(float64(pairs))
	c.distanceSeconds.Observe(duration.Seconds())
}

// RecordRebuild implements proteorank.MetricsCollector.
func (c *Collector) RecordRebuild(lists int, duration time.Duration) {
	c.rebuilds.Inc()
	c.rebuildLists.Add(float64(lists))
}

// RecordSearch implements proteorank.MetricsCollector.
func (c *Collector) RecordSearch(k int, duration time.Duration, err error) {
	c.searches.WithLabelValues(outcome(err)).Inc()
	c.searchSeconds.Observe(duration.Seconds())
}

// RecordBenchmark implements proteorank.MetricsCollector.
func (c *Collector) RecordBenchmark(effects, observations int, duration time.Duration, err error) {
	c.benchmarks.WithLabelValues(outcome(err)).Inc()
	c.benchmarkSecs.Observe(duration.Seconds())
}
