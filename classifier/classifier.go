// Package classifier benchmarks black-box binary classifiers on
// compound-effect association data with leave-one-out cross validation.
// The classifier itself is a collaborator: any model exposing Fit and
// PredictProba can be plugged in.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/proteorank/proteorank/catalog"
)

// Classifier is a trainable binary model. Labels are 0 (negative) and 1
// (positive); PredictProba returns the probability of the positive class.
type Classifier interface {
	Fit(samples [][]float64, labels []int) error
	PredictProba(sample []float64) (float64, error)
}

// Factory creates a fresh, untrained model per cross-validation fold.
type Factory func() Classifier

// Driver runs per-effect leave-one-out benchmarks over a catalog and its
// signatures.
type Driver struct {
	cat        *catalog.Catalog
	signatures [][]float64
	factory    Factory

	seed          int64
	threshold     float64
	effectProtein bool
	logger        *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithSeed fixes the negative-sampling seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(d *Driver) { d.seed = seed }
}

// WithThreshold sets the positive-class probability threshold
// (default 0.5).
func WithThreshold(t float64) Option {
	return func(d *Driver) { d.threshold = t }
}

// WithEffectProteins restricts training vectors to each effect's own
// protein subset. Effects with fewer than 3 associated proteins are then
// skipped.
func WithEffectProteins(restrict bool) Option {
	return func(d *Driver) { d.effectProtein = restrict }
}

// WithLogger sets the skip/progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a benchmark driver.
func NewDriver(cat *catalog.Catalog, signatures [][]float64, factory Factory, opts ...Option) *Driver {
	d := &Driver{
		cat:        cat,
		signatures: signatures,
		factory:    factory,
		seed:       42,
		threshold:  0.5,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EffectScore is one effect's leave-one-out confusion counts.
type EffectScore struct {
	Effect      *catalog.Effect
	MemberCount int
	TP, FN      int
	FP, TN      int
}

// Accuracy returns (TP+TN) / (2 * members): every fold scores one held-out
// positive and one paired negative.
func (s EffectScore) Accuracy() float64 {
	return float64(s.TP+s.TN) / float64(2*s.MemberCount)
}

// Prediction is one fold's raw output: the held-out member's probability
// and its paired negative's probability.
type Prediction struct {
	CompoundID    int
	EffectID      string
	Prob          float64
	NegCompoundID int
	NegProb       float64
}

// Results aggregates a cross-validation benchmark.
type Results struct {
	Scores      []EffectScore
	Predictions []Prediction
}

// AIA returns the mean per-effect accuracy.
func (r *Results) AIA() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.Scores {
		sum += s.Accuracy()
	}
	return sum / float64(len(r.Scores))
}

// APA returns the compound-weighted mean accuracy.
func (r *Results) APA() float64 {
	var weighted, total float64
	for _, s := range r.Scores {
		weighted += s.Accuracy() * float64(s.MemberCount)
		total += float64(s.MemberCount)
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// IC returns the number of effects scoring better than chance.
func (r *Results) IC() int {
	n := 0
	for _, s := range r.Scores {
		if s.Accuracy() > 0.5 {
			n++
		}
	}
	return n
}

// Benchmark runs leave-one-out cross validation per qualifying effect:
// for every member, a model is trained on the remaining members plus an
// equal number of seeded random non-member negatives, then scored on the
// held-out member and a fresh paired negative.
func (d *Driver) Benchmark(ctx context.Context, effects []*catalog.Effect) (*Results, error) {
	rng := rand.New(rand.NewSource(d.seed))
	res := &Results{}

	for _, effect := range effects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		count := effect.MemberCount()
		if count < 2 {
			d.logger.Info("skipping effect below member threshold",
				slog.String("effect", effect.ID), slog.Int("members", count))
			continue
		}
		var view []int
		if d.effectProtein {
			view = dedupe(effect.Proteins)
			if len(view) < 3 {
				d.logger.Info("skipping effect with fewer than 3 associated proteins",
					slog.String("effect", effect.ID))
				continue
			}
		}

		score := EffectScore{Effect: effect, MemberCount: count}
		members := effect.Members()

		for _, holdOut := range members {
			samples, labels, used, err := d.trainingSet(effect, members, holdOut, view, rng)
			if err != nil {
				return nil, err
			}

			model := d.factory()
			if err := model.Fit(samples, labels); err != nil {
				return nil, fmt.Errorf("fit %s: %w", effect.ID, err)
			}

			testNeg, ok := d.pickNegative(effect, used, rng)
			if !ok {
				d.logger.Warn("no unused negative left", slog.String("effect", effect.ID))
				continue
			}

			prob, err := model.PredictProba(d.vector(holdOut, view))
			if err != nil {
				return nil, err
			}
			negProb, err := model.PredictProba(d.vector(testNeg, view))
			if err != nil {
				return nil, err
			}

			if prob > d.threshold {
				score.TP++
			} else {
				score.FN++
			}
			if negProb > d.threshold {
				score.FP++
			} else {
				score.TN++
			}

			res.Predictions = append(res.Predictions, Prediction{
				CompoundID:    d.cat.Compounds[holdOut].ID,
				EffectID:      effect.ID,
				Prob:          prob,
				NegCompoundID: d.cat.Compounds[testNeg].ID,
				NegProb:       negProb,
			})
		}

		res.Scores = append(res.Scores, score)
	}

	return res, nil
}

// trainingSet builds the fold's positive and negative samples, returning
// the set of negatives already consumed.
func (d *Driver) trainingSet(effect *catalog.Effect, members []int, holdOut int, view []int, rng *rand.Rand) ([][]float64, []int, map[int]bool, error) {
	var samples [][]float64
	var labels []int

	for _, ci := range members {
		if ci == holdOut {
			continue
		}
		samples = append(samples, d.vector(ci, view))
		labels = append(labels, 1)
	}

	used := make(map[int]bool)
	for range labels {
		neg, ok := d.pickNegative(effect, used, rng)
		if !ok {
			break
		}
		used[neg] = true
		samples = append(samples, d.vector(neg, view))
		labels = append(labels, 0)
	}

	return samples, labels, used, nil
}

// pickNegative draws a random active compound outside the effect, not yet
// in used.
func (d *Driver) pickNegative(effect *catalog.Effect, used map[int]bool, rng *rand.Rand) (int, bool) {
	pool := d.cat.ActiveCompounds()
	for _, k := range rng.Perm(len(pool)) {
		ci := pool[k]
		if used[ci] || effect.HasMember(ci) {
			continue
		}
		return ci, true
	}
	return 0, false
}

// vector resolves a compound's training vector, projected onto the effect
// protein subset when one is in force.
func (d *Driver) vector(ci int, view []int) []float64 {
	sig := d.signatures[ci]
	if view == nil {
		return sig
	}
	sub := make([]float64, len(view))
	for k, pi := range view {
		sub[k] = sig[pi]
	}
	return sub
}

func dedupe(idx []int) []int {
	seen := make(map[int]bool, len(idx))
	var out []int
	for _, i := range idx {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
