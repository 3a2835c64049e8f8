package proteorank

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus (see the prom subpackage for a ready-made collector).
type MetricsCollector interface {
	// RecordMatrixLoad is called after each matrix ingestion.
	// duration is the total time taken, err is nil if successful.
	RecordMatrixLoad(duration time.Duration, err error)

	// RecordDistances is called after each all-pairs distance computation.
	// pairs is the number of compound pairs evaluated.
	RecordDistances(pairs int, duration time.Duration, err error)

	// RecordRebuild is called after a targeted neighbor-list rebuild.
	// lists is the number of lists recomputed.
	RecordRebuild(lists int, duration time.Duration)

	// RecordSearch is called after each similar-compound query.
	// k is the number of neighbors requested, err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordBenchmark is called after each benchmark run.
	RecordBenchmark(effects, observations int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMatrixLoad(time.Duration, error)          {}
func (NoopMetricsCollector) RecordDistances(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordRebuild(int, time.Duration)               {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordBenchmark(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	MatrixLoadCount     atomic.Int64
	MatrixLoadErrors    atomic.Int64
	DistanceCount       atomic.Int64
	DistanceErrors      atomic.Int64
	DistancePairs       atomic.Int64
	DistanceTotalNanos  atomic.Int64
	RebuildCount        atomic.Int64
	RebuildLists        atomic.Int64
	SearchCount         atomic.Int64
	SearchErrors        atomic.Int64
	SearchTotalNanos    atomic.Int64
	BenchmarkCount      atomic.Int64
	BenchmarkErrors     atomic.Int64
	BenchmarkEffects    atomic.Int64
	BenchmarkTotalNanos atomic.Int64
}

// RecordMatrixLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMatrixLoad(duration time.Duration, err error) {
	b.MatrixLoadCount.Add(1)
	if err != nil {
		b.MatrixLoadErrors.Add(1)
	}
}

// RecordDistances implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDistances(pairs int, duration time.Duration, err error) {
	b.DistanceCount.Add(1)
	b.DistancePairs.Add(int64(pairs))
	b.DistanceTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DistanceErrors.Add(1)
	}
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(lists int, duration time.Duration) {
	b.RebuildCount.Add(1)
	b.RebuildLists.Add(int64(lists))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordBenchmark implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBenchmark(effects, observations int, duration time.Duration, err error) {
	b.BenchmarkCount.Add(1)
	b.BenchmarkEffects.Add(int64(effects))
	b.BenchmarkTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BenchmarkErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		MatrixLoadCount:  b.MatrixLoadCount.Load(),
		MatrixLoadErrors: b.MatrixLoadErrors.Load(),
		DistanceCount:    b.DistanceCount.Load(),
		DistanceErrors:   b.DistanceErrors.Load(),
		DistancePairs:    b.DistancePairs.Load(),
		DistanceAvgNanos: b.getAvgDistanceNanos(),
		RebuildCount:     b.RebuildCount.Load(),
		RebuildLists:     b.RebuildLists.Load(),
		SearchCount:      b.SearchCount.Load(),
		SearchErrors:     b.SearchErrors.Load(),
		SearchAvgNanos:   b.getAvgSearchNanos(),
		BenchmarkCount:   b.BenchmarkCount.Load(),
		BenchmarkErrors:  b.BenchmarkErrors.Load(),
		BenchmarkEffects: b.BenchmarkEffects.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDistanceNanos() int64 {
	count := b.DistanceCount.Load()
	if count == 0 {
		return 0
	}
	return b.DistanceTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	MatrixLoadCount  int64
	MatrixLoadErrors int64
	DistanceCount    int64
	DistanceErrors   int64
	DistancePairs    int64
	DistanceAvgNanos int64
	RebuildCount     int64
	RebuildLists     int64
	SearchCount      int64
	SearchErrors     int64
	SearchAvgNanos   int64
	BenchmarkCount   int64
	BenchmarkErrors  int64
	BenchmarkEffects int64
}
