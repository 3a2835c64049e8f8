package benchmark

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteorank/proteorank/catalog"
	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/neighbor"
	"github.com/proteorank/proteorank/rank"
)

// fixture builds a 5-compound catalog with one indication whose two
// members (ordinals 0 and 1) are each other's nearest neighbors, plus a
// singleton indication that must be skipped.
func fixture(t *testing.T) (*catalog.Catalog, *neighbor.Index, [][]float64) {
	t.Helper()

	cat := catalog.New()
	for i := 0; i < 5; i++ {
		cat.AddCompound(100+i, "c"+string(rune('a'+i)))
	}
	cat.RegisterProtein("P0", "")
	cat.RegisterProtein("P1", "")

	signatures := [][]float64{
		{0, 0},
		{0, 1},
		{5, 5},
		{9, 9},
		{3, 7},
	}

	idx := neighbor.NewIndex(5)
	c, err := distance.AllPairs(context.Background(), signatures, distance.MetricEuclidean, 1)
	require.NoError(t, err)
	idx.BuildFromCondensed(c)
	idx.SortAll()

	return cat, idx, signatures
}

func loadEffect(t *testing.T, cat *catalog.Catalog, id string, memberIDs ...int) *catalog.Effect {
	t.Helper()

	var sb strings.Builder
	for _, cid := range memberIDs {
		sb.WriteString("x\t" + strconv.Itoa(cid) + "\tName\t" + id + "\n")
	}
	path := filepath.Join(t.TempDir(), "ind.tsv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	require.NoError(t, cat.LoadIndications(path))

	ind, err := cat.Indication(id)
	require.NoError(t, err)
	return ind
}

func TestRunDiscrete(t *testing.T) {
	cat, idx, sigs := fixture(t)
	pair := loadEffect(t, cat, "D001", 100, 101)
	single := loadEffect(t, cat, "D_SINGLE", 104)

	r := NewRunner(cat, idx, sigs, distance.MetricEuclidean)
	res, err := r.Run(context.Background(), Config{
		Effects: []*catalog.Effect{pair, single},
		Kind:    catalog.KindIndication,
		Policy:  rank.PolicyStandard,
	})
	require.NoError(t, err)

	// The singleton effect is skipped.
	require.Len(t, res.Effects, 1)
	assert.Equal(t, "D001", res.Effects[0].Effect.ID)
	assert.Equal(t, 2, res.Effects[0].MemberCount)

	// Both members find each other at rank 0: every cutoff is a hit.
	require.Len(t, res.Observations, 2)
	for _, obs := range res.Observations {
		assert.Equal(t, 0.0, obs.Value)
		for _, hit := range obs.Hits {
			assert.True(t, hit)
		}
	}

	// Observations come back in compound order.
	assert.Equal(t, 0, res.Observations[0].CompoundIndex)
	assert.Equal(t, 1, res.Observations[1].CompoundIndex)

	t.Run("Aggregates", func(t *testing.T) {
		for _, v := range res.AIA() {
			assert.InDelta(t, 100.0, v, 1e-9)
		}
		for _, v := range res.APA() {
			assert.InDelta(t, 100.0, v, 1e-9)
		}
		for _, v := range res.IC() {
			assert.Equal(t, 1, v)
		}
	})
}

func TestRunBottom(t *testing.T) {
	cat, idx, sigs := fixture(t)
	// Members 0 and 3 are the two extremes: under descending order each is
	// the other's first entry.
	pair := loadEffect(t, cat, "D001", 100, 103)

	r := NewRunner(cat, idx, sigs, distance.MetricEuclidean)
	res, err := r.Run(context.Background(), Config{
		Effects: []*catalog.Effect{pair},
		Kind:    catalog.KindIndication,
		Bottom:  true,
		Policy:  rank.PolicyStandard,
	})
	require.NoError(t, err)

	require.Len(t, res.Observations, 2)
	for _, obs := range res.Observations {
		assert.Equal(t, 0.0, obs.Value)
	}
}

func TestRunContinuous(t *testing.T) {
	cat, idx, sigs := fixture(t)
	pair := loadEffect(t, cat, "D001", 100, 101)

	r := NewRunner(cat, idx, sigs, distance.MetricEuclidean)
	res, err := r.Run(context.Background(), Config{
		Effects:    []*catalog.Effect{pair},
		Kind:       catalog.KindIndication,
		Continuous: true,
	})
	require.NoError(t, err)

	require.Len(t, res.Observations, 2)
	// The scored value is the raw distance to the first co-member.
	assert.InDelta(t, 1.0, res.Observations[0].Value, 1e-12)

	// The widest percentile bucket always hits.
	last := len(res.Cutoffs) - 1
	assert.Equal(t, "100%ile", res.Cutoffs[last].Label)
	assert.True(t, res.Observations[0].Hits[last])
}

func TestRunConfigErrors(t *testing.T) {
	cat, idx, sigs := fixture(t)

	t.Run("ContinuousWithRestriction", func(t *testing.T) {
		r := NewRunner(cat, idx, sigs, distance.MetricEuclidean,
			WithRestriction(RestrictProteins))
		_, err := r.Run(context.Background(), Config{Continuous: true})
		var cfg *ConfigError
		assert.ErrorAs(t, err, &cfg)
	})

	t.Run("ContinuousBottom", func(t *testing.T) {
		r := NewRunner(cat, idx, sigs, distance.MetricEuclidean)
		_, err := r.Run(context.Background(), Config{Continuous: true, Bottom: true})
		var cfg *ConfigError
		assert.ErrorAs(t, err, &cfg)
	})
}

func TestRunRestrictProteins(t *testing.T) {
	cat, idx, sigs := fixture(t)
	pair := loadEffect(t, cat, "D001", 100, 101)
	// Too few proteins: fixture has 2, the threshold is 3.
	pair.Proteins = []int{0, 1, 1}

	r := NewRunner(cat, idx, sigs, distance.MetricEuclidean,
		WithRestriction(RestrictProteins))
	res, err := r.Run(context.Background(), Config{
		Effects: []*catalog.Effect{pair},
		Kind:    catalog.KindIndication,
		Policy:  rank.PolicyStandard,
	})
	require.NoError(t, err)

	// Duplicated protein indexes dedupe to 2 < 3: effect disqualified.
	assert.Empty(t, res.Effects)
}

func TestRunRebuildObserver(t *testing.T) {
	cat := catalog.New()
	for i := 0; i < 4; i++ {
		cat.AddCompound(100+i, "c"+string(rune('a'+i)))
	}
	cat.RegisterProtein("P0", "")
	cat.RegisterProtein("P1", "")
	cat.RegisterProtein("P2", "")

	sigs := [][]float64{
		{0, 0, 0},
		{0, 1, 0},
		{5, 5, 5},
		{9, 9, 9},
	}
	idx := neighbor.NewIndex(4)
	c, err := distance.AllPairs(context.Background(), sigs, distance.MetricEuclidean, 1)
	require.NoError(t, err)
	idx.BuildFromCondensed(c)
	idx.SortAll()

	pair := loadEffect(t, cat, "D001", 100, 101)
	pair.Proteins = []int{0, 1, 2}

	var rebuilt int
	r := NewRunner(cat, idx, sigs, distance.MetricEuclidean,
		WithRestriction(RestrictProteins),
		WithRebuildObserver(func(lists int, _ time.Duration) { rebuilt += lists }))
	res, err := r.Run(context.Background(), Config{
		Effects: []*catalog.Effect{pair},
		Kind:    catalog.KindIndication,
		Policy:  rank.PolicyStandard,
	})
	require.NoError(t, err)
	require.Len(t, res.Effects, 1)

	// One rebuild per qualifying effect, one list per member.
	assert.Equal(t, 2, rebuilt)
}

func TestDiscreteCutoffs(t *testing.T) {
	cutoffs := discreteCutoffs(2000)
	require.Len(t, cutoffs, 10)

	assert.Equal(t, Cutoff{Label: "top10", Value: 10}, cutoffs[0])
	assert.Equal(t, Cutoff{Label: "top2000", Value: 2000}, cutoffs[4])
	assert.Equal(t, Cutoff{Label: "top1%", Value: 20}, cutoffs[5])
	assert.Equal(t, Cutoff{Label: "top5%", Value: 100}, cutoffs[6])
	assert.Equal(t, Cutoff{Label: "top10%", Value: 200}, cutoffs[7])
	assert.Equal(t, Cutoff{Label: "top50%", Value: 1000}, cutoffs[8])
	assert.Equal(t, Cutoff{Label: "top100%", Value: 2000}, cutoffs[9])

	t.Run("FudgeGuardsTruncation", func(t *testing.T) {
		// 1% of 300 is 3.0; float truncation must not chop it to 2.
		c := discreteCutoffs(300)
		assert.Equal(t, 3.0, c[5].Value)
	})
}

func TestContinuousCutoffs(t *testing.T) {
	cat := catalog.New()
	cat.AddCompound(100, "a")
	cat.AddCompound(200, "b")

	idx := neighbor.NewIndex(2)
	// 1000 non-zero distances spread over the two lists, plus noise that
	// must be excluded: zeros and NaN.
	for k := 0; k < 1000; k++ {
		idx.AppendEntry(k%2, neighbor.Entry{Index: 1 - k%2, Distance: float64(k + 1)})
	}
	idx.AppendEntry(0, neighbor.Entry{Index: 1, Distance: 0})
	idx.AppendEntry(0, neighbor.Entry{Index: 1, Distance: math.NaN()})

	cutoffs, err := continuousCutoffs(cat, idx)
	require.NoError(t, err)
	require.Len(t, cutoffs, 10)

	// n=1000: 1%ile index is 1000/100 = 10, value 11.
	assert.Equal(t, "1%ile", cutoffs[3].Label)
	assert.Equal(t, 11.0, cutoffs[3].Value)

	// 0.1%ile: index 1, value 2.
	assert.Equal(t, 2.0, cutoffs[0].Value)

	// 100%ile clamps to the last value, not one past it.
	assert.Equal(t, 1000.0, cutoffs[9].Value)

	t.Run("EmptyDistribution", func(t *testing.T) {
		// Identical signatures leave only zero distances; continuous
		// scoring has no distribution to cut.
		cat := catalog.New()
		cat.AddCompound(100, "a")
		cat.AddCompound(200, "b")
		idx := neighbor.NewIndex(2)
		idx.AppendEntry(0, neighbor.Entry{Index: 1, Distance: 0})
		idx.AppendEntry(1, neighbor.Entry{Index: 0, Distance: 0})

		_, err := continuousCutoffs(cat, idx)
		var cfg *ConfigError
		assert.ErrorAs(t, err, &cfg)
	})
}

func TestRunContinuousEmptyDistribution(t *testing.T) {
	cat := catalog.New()
	cat.AddCompound(100, "a")
	cat.AddCompound(200, "b")
	pair := loadEffect(t, cat, "D001", 100, 200)

	sigs := [][]float64{{1, 1}, {1, 1}}
	idx := neighbor.NewIndex(2)
	idx.AppendEntry(0, neighbor.Entry{Index: 1, Distance: 0})
	idx.AppendEntry(1, neighbor.Entry{Index: 0, Distance: 0})

	r := NewRunner(cat, idx, sigs, distance.MetricEuclidean)
	_, err := r.Run(context.Background(), Config{
		Effects:    []*catalog.Effect{pair},
		Kind:       catalog.KindIndication,
		Continuous: true,
	})
	var cfg *ConfigError
	assert.ErrorAs(t, err, &cfg)
}

func TestReports(t *testing.T) {
	cat, idx, sigs := fixture(t)
	pair := loadEffect(t, cat, "D001", 100, 101)

	r := NewRunner(cat, idx, sigs, distance.MetricEuclidean)
	res, err := r.Run(context.Background(), Config{
		Effects: []*catalog.Effect{pair},
		Kind:    catalog.KindIndication,
		Policy:  rank.PolicyStandard,
	})
	require.NoError(t, err)

	dir := t.TempDir()

	t.Run("Summary", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "summary_test.tsv")
		require.NoError(t, res.WriteSummary(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "\ttop10\ttop25"))
		assert.True(t, strings.HasPrefix(lines[1], "aia\t100.000"))
		assert.True(t, strings.HasPrefix(lines[2], "apa\t100.000"))
		assert.True(t, strings.HasPrefix(lines[3], "ic\t1"))
	})

	t.Run("Detail", func(t *testing.T) {
		path := filepath.Join(dir, "results_analysed_named", "results_analysed_named_test.tsv")
		require.NoError(t, res.WriteDetail(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "disease_id\tcmpds_per_disease\ttop10"))
		assert.True(t, strings.HasSuffix(lines[0], "\tdisease_name"))
		assert.True(t, strings.HasPrefix(lines[1], "D001\t2\t100.0"))
		assert.True(t, strings.HasSuffix(lines[1], "\tName"))
	})

	t.Run("Raw", func(t *testing.T) {
		path := filepath.Join(dir, "raw_results", "raw_results_test.csv")
		require.NoError(t, res.WriteRaw(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "compound_id,disease_id,top10"))
		assert.True(t, strings.HasSuffix(lines[0], ",rank"))
		assert.Equal(t, "0,D001,1,1,1,1,1,1,1,1,1,1,0", lines[1])
	})

	t.Run("DetailSortsLargestFirst", func(t *testing.T) {
		multi := Results{
			Cutoffs: []Cutoff{{Label: "top10", Value: 10}},
			Kind:    catalog.KindIndication,
			Effects: []EffectResult{
				{Effect: &catalog.Effect{ID: "D1", Name: "a"}, MemberCount: 2, Hits: []int{1}},
				{Effect: &catalog.Effect{ID: "D2", Name: "b"}, MemberCount: 5, Hits: []int{5}},
				{Effect: &catalog.Effect{ID: "D3", Name: "c"}, MemberCount: 2, Hits: []int{0}},
			},
		}
		path := filepath.Join(t.TempDir(), "detail.tsv")
		require.NoError(t, multi.WriteDetail(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 4)
		// Largest first, then ID descending among equals.
		assert.True(t, strings.HasPrefix(lines[1], "D2\t5"))
		assert.True(t, strings.HasPrefix(lines[2], "D3\t2"))
		assert.True(t, strings.HasPrefix(lines[3], "D1\t2"))
	})
}
