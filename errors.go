package proteorank

import (
	"errors"
	"fmt"

	"github.com/proteorank/proteorank/benchmark"
	"github.com/proteorank/proteorank/catalog"
	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/pathway"
	"github.com/proteorank/proteorank/rank"
)

var (
	// ErrInvalidK is returned when a neighbor count is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNotFound is returned when a compound, protein, pathway or effect
	// id is unknown. It unifies the catalog's lookup failures.
	ErrNotFound = catalog.ErrNotFound

	// ErrNoDistances is returned by operations that need computed
	// neighbor lists before any were computed or read.
	ErrNoDistances = errors.New("distances not computed")
)

// ConfigError indicates an unusable platform or benchmark configuration:
// unknown metric, quantifier or ranking names, or an incompatible option
// combination. Always raised before any work begins.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	var nf *catalog.NotFoundError
	if errors.As(err, &nf) {
		return err
	}

	// Configuration normalization.
	var um *distance.ErrUnknownMetric
	if errors.As(err, &um) {
		return &ConfigError{Reason: err.Error(), cause: err}
	}
	var up *rank.ErrUnknownPolicy
	if errors.As(err, &up) {
		return &ConfigError{Reason: err.Error(), cause: err}
	}
	var uq *pathway.ErrUnknownQuantifier
	if errors.As(err, &uq) {
		return &ConfigError{Reason: err.Error(), cause: err}
	}
	var pc *pathway.ConfigError
	if errors.As(err, &pc) {
		return &ConfigError{Reason: err.Error(), cause: err}
	}
	var bc *benchmark.ConfigError
	if errors.As(err, &bc) {
		return &ConfigError{Reason: err.Error(), cause: err}
	}

	return err
}
