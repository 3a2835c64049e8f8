// Package fetch retrieves reference data files (matrices, mappings,
// ligand fingerprints) from a configurable backing store and materializes
// them on the local filesystem. Downloads are rate limited and already
// present files are skipped.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when a named blob does not exist in the store.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is a read-only source of named reference blobs.
type Store interface {
	// Open opens the named blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Fetcher downloads blobs from a store into a local directory tree.
type Fetcher struct {
	store        Store
	limiter      *rate.Limiter
	skipExisting bool
	concurrency  int
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRateLimit overrides the download rate limit (default 1 per second).
func WithRateLimit(l *rate.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithSkipExisting controls whether already materialized files are
// skipped (default true).
func WithSkipExisting(skip bool) Option {
	return func(f *Fetcher) { f.skipExisting = skip }
}

// WithConcurrency bounds parallel downloads in FetchAll (default 4).
func WithConcurrency(n int) Option {
	return func(f *Fetcher) { f.concurrency = n }
}

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher over the given store.
func New(store Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:        store,
		limiter:      rate.NewLimiter(rate.Limit(1), 1),
		skipExisting: true,
		concurrency:  4,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch materializes one blob at dest, creating parent directories on
// demand. The file is written via a temporary name so a failed download
// never leaves a truncated dest behind.
func (f *Fetcher) Fetch(ctx context.Context, name, dest string) error {
	if f.skipExisting {
		if _, err := os.Stat(dest); err == nil {
			f.logger.Debug("already present, skipping", slog.String("dest", dest))
			return nil
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	r, err := f.store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer r.Close()

	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	f.logger.Info("fetched", slog.String("name", name), slog.String("dest", dest))
	return nil
}

// FetchAll materializes the named blobs under destDir, preserving their
// relative names, with bounded concurrency. The first error cancels the
// remaining downloads.
func (f *Fetcher) FetchAll(ctx context.Context, names []string, destDir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, name := range names {
		name := name
		g.Go(func() error {
			return f.Fetch(ctx, name, filepath.Join(destDir, name))
		})
	}
	return g.Wait()
}

// IsNotFound reports whether err means the blob does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
