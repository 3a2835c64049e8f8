package classifier

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteorank/proteorank/catalog"
)

// firstFeatureModel predicts the first feature value as the positive-class
// probability. It separates fixtures whose positives carry 1 in dimension
// zero.
type firstFeatureModel struct {
	fitted bool
}

func (m *firstFeatureModel) Fit(samples [][]float64, labels []int) error {
	m.fitted = true
	return nil
}

func (m *firstFeatureModel) PredictProba(sample []float64) (float64, error) {
	return sample[0], nil
}

func fixture(t *testing.T) (*catalog.Catalog, [][]float64, *catalog.Effect) {
	t.Helper()

	cat := catalog.New()
	for i := 0; i < 4; i++ {
		cat.AddCompound(100+i, "c")
	}

	path := filepath.Join(t.TempDir(), "ind.tsv")
	require.NoError(t, os.WriteFile(path,
		[]byte("x\t100\tHeadache\tD001\nx\t101\tHeadache\tD001\n"), 0o644))
	require.NoError(t, cat.LoadIndications(path))

	ind, err := cat.Indication("D001")
	require.NoError(t, err)

	// Members score 1 in the first dimension, non-members 0.
	signatures := [][]float64{
		{1, 0.2},
		{1, 0.8},
		{0, 0.5},
		{0, 0.1},
	}
	return cat, signatures, ind
}

func TestBenchmark(t *testing.T) {
	cat, sigs, ind := fixture(t)

	d := NewDriver(cat, sigs, func() Classifier { return &firstFeatureModel{} },
		WithSeed(1))
	res, err := d.Benchmark(context.Background(), []*catalog.Effect{ind})
	require.NoError(t, err)

	require.Len(t, res.Scores, 1)
	s := res.Scores[0]
	assert.Equal(t, 2, s.MemberCount)
	// The model separates the fixture perfectly.
	assert.Equal(t, 2, s.TP)
	assert.Equal(t, 2, s.TN)
	assert.Equal(t, 0, s.FP)
	assert.Equal(t, 0, s.FN)
	assert.InDelta(t, 1.0, s.Accuracy(), 1e-12)

	assert.InDelta(t, 1.0, res.AIA(), 1e-12)
	assert.InDelta(t, 1.0, res.APA(), 1e-12)
	assert.Equal(t, 1, res.IC())

	// One fold per member, each with its paired negative.
	require.Len(t, res.Predictions, 2)
	for _, p := range res.Predictions {
		assert.Equal(t, "D001", p.EffectID)
		assert.InDelta(t, 1.0, p.Prob, 1e-12)
		assert.InDelta(t, 0.0, p.NegProb, 1e-12)
	}
}

func TestBenchmarkDeterministic(t *testing.T) {
	cat, sigs, ind := fixture(t)

	d1 := NewDriver(cat, sigs, func() Classifier { return &firstFeatureModel{} }, WithSeed(7))
	d2 := NewDriver(cat, sigs, func() Classifier { return &firstFeatureModel{} }, WithSeed(7))

	r1, err := d1.Benchmark(context.Background(), []*catalog.Effect{ind})
	require.NoError(t, err)
	r2, err := d2.Benchmark(context.Background(), []*catalog.Effect{ind})
	require.NoError(t, err)

	assert.Equal(t, r1.Predictions, r2.Predictions)
}

func TestBenchmarkSkips(t *testing.T) {
	cat, sigs, ind := fixture(t)

	t.Run("BelowMemberThreshold", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ind.tsv")
		require.NoError(t, os.WriteFile(path, []byte("x\t102\tFever\tD002\n"), 0o644))
		require.NoError(t, cat.LoadIndications(path))
		single, err := cat.Indication("D002")
		require.NoError(t, err)

		d := NewDriver(cat, sigs, func() Classifier { return &firstFeatureModel{} })
		res, err := d.Benchmark(context.Background(), []*catalog.Effect{single})
		require.NoError(t, err)
		assert.Empty(t, res.Scores)
	})

	t.Run("TooFewEffectProteins", func(t *testing.T) {
		ind.Proteins = []int{0, 1, 1}

		d := NewDriver(cat, sigs, func() Classifier { return &firstFeatureModel{} },
			WithEffectProteins(true))
		res, err := d.Benchmark(context.Background(), []*catalog.Effect{ind})
		require.NoError(t, err)
		assert.Empty(t, res.Scores)
	})
}

func TestResultsAggregates(t *testing.T) {
	e1 := &catalog.Effect{ID: "D1"}
	e2 := &catalog.Effect{ID: "D2"}
	res := &Results{Scores: []EffectScore{
		{Effect: e1, MemberCount: 2, TP: 2, TN: 2},         // acc 1.0
		{Effect: e2, MemberCount: 4, TP: 1, TN: 1, FN: 3, FP: 3}, // acc 0.25
	}}

	assert.InDelta(t, 0.625, res.AIA(), 1e-12)
	assert.InDelta(t, 0.5, res.APA(), 1e-12) // (1.0*2 + 0.25*4) / 6
	assert.Equal(t, 1, res.IC())

	t.Run("Empty", func(t *testing.T) {
		empty := &Results{}
		assert.Equal(t, 0.0, empty.AIA())
		assert.Equal(t, 0.0, empty.APA())
		assert.Equal(t, 0, empty.IC())
	})
}

func TestReports(t *testing.T) {
	res := &Results{
		Scores: []EffectScore{
			{Effect: &catalog.Effect{ID: "D001", Name: "Headache"}, MemberCount: 2, TP: 2, TN: 1, FP: 1},
		},
		Predictions: []Prediction{
			{CompoundID: 100, EffectID: "D001", Prob: 0.9, NegCompoundID: 300, NegProb: 0.1},
		},
	}

	dir := t.TempDir()

	t.Run("Summary", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "summary.tsv")
		require.NoError(t, res.WriteSummary(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "aia\t75.000")
		assert.Contains(t, string(data), "ic\t1")
	})

	t.Run("Detail", func(t *testing.T) {
		path := filepath.Join(dir, "detail.tsv")
		require.NoError(t, res.WriteDetail(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "D001\t2\t2\t1\t0\t1\t75.000\tHeadache", lines[1])
	})

	t.Run("Raw", func(t *testing.T) {
		path := filepath.Join(dir, "raw.csv")
		require.NoError(t, res.WriteRaw(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Compound,Effect,Prob,Neg,Neg_prob\n")
		assert.Contains(t, string(data), "100,D001,0.9,300,0.1\n")
	})
}
