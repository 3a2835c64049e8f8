package proteorank

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteorank/proteorank/benchmark"
	"github.com/proteorank/proteorank/catalog"
	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/pathway"
	"github.com/proteorank/proteorank/rank"
)

func TestTranslateError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil))
	})

	t.Run("NotFoundPassesThrough", func(t *testing.T) {
		in := &catalog.NotFoundError{Kind: "compound", ID: "7"}
		out := translateError(in)
		assert.ErrorIs(t, out, ErrNotFound)

		var nf *catalog.NotFoundError
		require.ErrorAs(t, out, &nf)
		assert.Equal(t, "7", nf.ID)
	})

	t.Run("ConfigNormalization", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
		}{
			{"UnknownMetric", &distance.ErrUnknownMetric{Name: "x"}},
			{"UnknownPolicy", &rank.ErrUnknownPolicy{Name: "x"}},
			{"UnknownQuantifier", &pathway.ErrUnknownQuantifier{Name: "x"}},
			{"PathwayConfig", &pathway.ConfigError{Reason: "x"}},
			{"BenchmarkConfig", &benchmark.ConfigError{Reason: "x"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				out := translateError(tt.err)

				var cfg *ConfigError
				require.ErrorAs(t, out, &cfg)
				// The original error stays reachable through Unwrap.
				assert.ErrorIs(t, out, tt.err)
			})
		}
	})

	t.Run("WrappedCausesAreFound", func(t *testing.T) {
		wrapped := fmt.Errorf("run: %w", &rank.ErrUnknownPolicy{Name: "dense"})
		var cfg *ConfigError
		assert.ErrorAs(t, translateError(wrapped), &cfg)
	})

	t.Run("UnrelatedPassesThrough", func(t *testing.T) {
		in := errors.New("disk full")
		assert.Equal(t, in, translateError(in))
	})
}
