package proteorank

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with platform-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithMetric adds a distance-metric field to the logger.
func (l *Logger) WithMetric(metric string) *Logger {
	return &Logger{
		Logger: l.Logger.With("metric", metric),
	}
}

// WithCompound adds a compound id field to the logger.
func (l *Logger) WithCompound(id int) *Logger {
	return &Logger{
		Logger: l.Logger.With("compound", id),
	}
}

// LogMatrixLoad logs a signature matrix ingestion.
func (l *Logger) LogMatrixLoad(ctx context.Context, path string, proteins, compounds int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matrix load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "matrix loaded",
			"path", path,
			"proteins", proteins,
			"compounds", compounds,
		)
	}
}

// LogDistances logs an all-pairs distance computation.
func (l *Logger) LogDistances(ctx context.Context, metric string, pairs int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "distance computation failed",
			"metric", metric,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "distances computed",
			"metric", metric,
			"pairs", pairs,
			"elapsed", elapsed,
		)
	}
}

// LogSearch logs a similar-compound search.
func (l *Logger) LogSearch(ctx context.Context, compound, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"compound", compound,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"compound", compound,
			"k", k,
		)
	}
}

// LogBenchmark logs a benchmark run.
func (l *Logger) LogBenchmark(ctx context.Context, name string, effects, observations int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "benchmark failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "benchmark completed",
			"name", name,
			"effects", effects,
			"observations", observations,
		)
	}
}

// LogFilter logs a compound filtering pass.
func (l *Logger) LogFilter(ctx context.Context, removed, remaining int) {
	l.InfoContext(ctx, "compounds filtered",
		"removed", removed,
		"remaining", remaining,
	)
}
