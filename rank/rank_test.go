package rank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteorank/proteorank/neighbor"
)

func entries(dists ...float64) []neighbor.Entry {
	out := make([]neighbor.Entry, len(dists))
	for i, d := range dists {
		out[i] = neighbor.Entry{Index: i, Distance: d}
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	for _, name := range []string{"standard", "modified", "ordinal"} {
		p, err := ParsePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.String())
	}

	_, err := ParsePolicy("dense")
	var unknown *ErrUnknownPolicy
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "dense", unknown.Name)
}

func TestRank(t *testing.T) {
	// Sorted list with a tie block at distance 2: positions 1, 2, 3.
	list := entries(1, 2, 2, 2, 3, 4)

	tests := []struct {
		name     string
		r        float64
		matchPos int
		policy   Policy
		expected int
	}{
		{"StandardStartOfTieBlock", 2, 2, PolicyStandard, 1},
		{"ModifiedEndOfTieBlock", 2, 2, PolicyModified, 4},
		{"OrdinalLiteralPosition", 2, 2, PolicyOrdinal, 2},
		{"StandardUniqueDistance", 3, 4, PolicyStandard, 4},
		{"ModifiedUniqueDistance", 3, 4, PolicyModified, 5},
		{"StandardBest", 1, 0, PolicyStandard, 0},
		{"ModifiedBest", 1, 0, PolicyModified, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(list, tt.r, tt.matchPos, tt.policy, false)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("StandardNeverExceedsModified", func(t *testing.T) {
		for _, r := range []float64{1, 2, 3, 4} {
			std := Rank(list, r, 0, PolicyStandard, false)
			mod := Rank(list, r, 0, PolicyModified, false)
			assert.LessOrEqual(t, std, mod, "r=%v", r)
		}
	})

	t.Run("NoneSatisfies", func(t *testing.T) {
		got := Rank(list, 10, 0, PolicyStandard, false)
		assert.Equal(t, len(list), got)
	})
}

func TestRankBottom(t *testing.T) {
	// Descending list for the negative control.
	list := entries(4, 3, 2, 2, 1)

	t.Run("StandardReversed", func(t *testing.T) {
		// Neighbors strictly farther than the match.
		assert.Equal(t, 2, Rank(list, 2, 2, PolicyStandard, true))
	})

	t.Run("ModifiedReversed", func(t *testing.T) {
		assert.Equal(t, 4, Rank(list, 2, 2, PolicyModified, true))
	})

	t.Run("OrdinalIgnoresBottom", func(t *testing.T) {
		assert.Equal(t, 2, Rank(list, 2, 2, PolicyOrdinal, true))
	})
}

func TestRankNaNTerminatesScan(t *testing.T) {
	list := entries(1, math.NaN(), math.NaN())

	// NaN never satisfies a comparison, so the scan stops at the NaN block.
	assert.Equal(t, 1, Rank(list, 5, 0, PolicyStandard, false))
	assert.Equal(t, 1, Rank(list, 5, 0, PolicyModified, false))
}
