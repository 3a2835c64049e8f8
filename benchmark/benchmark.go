// Package benchmark scores the platform's similarity rankings against
// known compound-effect associations. For every qualifying effect it
// checks, per member compound, how early the first other member of the
// same effect appears in that compound's neighbor list, and aggregates
// hit rates over a fixed ladder of rank (or distance-percentile) cutoffs.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/proteorank/proteorank/catalog"
	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/neighbor"
	"github.com/proteorank/proteorank/pathway"
	"github.com/proteorank/proteorank/rank"
)

// ConfigError reports an unusable benchmark configuration, raised before
// any scoring begins.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "benchmark: " + e.Reason
}

// Restriction selects which signature view member neighbor lists are
// rebuilt against per effect.
type Restriction int

const (
	// RestrictNone scores against the global neighbor lists.
	RestrictNone Restriction = iota
	// RestrictPathways rebuilds against effect-associated pathway
	// signatures (aggregated, or the protein union under the
	// concatenation quantifier).
	RestrictPathways
	// RestrictProteins rebuilds against the effect's own protein subset.
	RestrictProteins
)

// Config parametrizes a single benchmark run.
type Config struct {
	// Effects to score. Unqualified effects are skipped, not errors.
	Effects []*catalog.Effect
	// Kind labels report columns (disease or ADR).
	Kind catalog.EffectKind
	// Continuous switches the cutoff ladder from rank positions to
	// percentiles of the global non-zero distance distribution.
	Continuous bool
	// Bottom scores descending (least similar first) lists with reversed
	// rank comparisons, as a negative control.
	Bottom bool
	// Policy is the tie-break policy for discrete ranking.
	Policy rank.Policy
}

// Runner holds the collaborators a benchmark scores against.
type Runner struct {
	cat         *catalog.Catalog
	idx         *neighbor.Index
	signatures  [][]float64
	agg         *pathway.Aggregator
	restriction Restriction
	metric      distance.Metric
	workers     int
	logger      *slog.Logger
	onRebuild   func(lists int, duration time.Duration)
}

// Option configures a Runner.
type Option func(*Runner)

// WithAggregator supplies the pathway aggregator used under
// RestrictPathways.
func WithAggregator(a *pathway.Aggregator) Option {
	return func(r *Runner) { r.agg = a }
}

// WithRestriction sets the signature view restriction.
func WithRestriction(res Restriction) Option {
	return func(r *Runner) { r.restriction = res }
}

// WithWorkers sets the rebuild worker count.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithRebuildObserver registers a callback invoked after each per-effect
// neighbor-list rebuild, for metrics collection.
func WithRebuildObserver(fn func(lists int, duration time.Duration)) Option {
	return func(r *Runner) { r.onRebuild = fn }
}

// WithLogger sets the skip/warning logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a benchmark runner over the catalog, its neighbor
// index, and the full protein-level signatures.
func NewRunner(cat *catalog.Catalog, idx *neighbor.Index, signatures [][]float64, m distance.Metric, opts ...Option) *Runner {
	r := &Runner{
		cat:        cat,
		idx:        idx,
		signatures: signatures,
		metric:     m,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the benchmark and returns aggregated results. Under
// RestrictNone the global lists are (re)sorted in the run's direction;
// restricted runs rebuild member lists per effect and leave other lists
// untouched.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Results, error) {
	if cfg.Continuous && r.restriction != RestrictNone {
		return nil, &ConfigError{Reason: "continuous cutoffs are incompatible with effect-restricted signatures"}
	}
	if cfg.Continuous && cfg.Bottom {
		return nil, &ConfigError{Reason: "continuous cutoffs have no bottom variant"}
	}

	if r.restriction == RestrictNone {
		if cfg.Bottom {
			r.idx.SortAllDescending()
		} else {
			r.idx.SortAll()
		}
	}

	var cutoffs []Cutoff
	if cfg.Continuous {
		c, err := continuousCutoffs(r.cat, r.idx)
		if err != nil {
			return nil, err
		}
		cutoffs = c
	} else {
		cutoffs = discreteCutoffs(r.cat.Size())
	}

	res := &Results{
		Cutoffs:    cutoffs,
		Kind:       cfg.Kind,
		Continuous: cfg.Continuous,
	}

	for _, effect := range cfg.Effects {
		count := effect.MemberCount()
		if count < 2 {
			r.logger.Info("skipping effect below member threshold",
				slog.String("effect", effect.ID), slog.Int("members", count))
			continue
		}
		if skip, reason := r.disqualified(effect); skip {
			r.logger.Info("skipping effect", slog.String("effect", effect.ID),
				slog.String("reason", reason))
			continue
		}

		members := effect.Members()
		if err := r.rebuildView(ctx, effect, members, cfg.Bottom); err != nil {
			return nil, err
		}

		er := EffectResult{
			Effect:      effect,
			MemberCount: count,
			Hits:        make([]int, len(cutoffs)),
		}

		for _, ci := range members {
			entry, pos, found := firstMatch(r.idx.List(ci), effect)
			if !found {
				continue
			}

			var value float64
			if cfg.Continuous {
				value = entry.Distance
			} else {
				value = float64(rank.Rank(r.idx.List(ci).Entries(), entry.Distance, pos, cfg.Policy, cfg.Bottom))
			}

			obs := Observation{
				CompoundIndex: ci,
				EffectID:      effect.ID,
				Value:         value,
				Hits:          make([]bool, len(cutoffs)),
			}
			for k, c := range cutoffs {
				if value <= c.Value {
					obs.Hits[k] = true
					er.Hits[k]++
				}
			}
			res.Observations = append(res.Observations, obs)
		}

		res.Effects = append(res.Effects, er)
	}

	sort.SliceStable(res.Observations, func(i, j int) bool {
		return res.Observations[i].CompoundIndex < res.Observations[j].CompoundIndex
	})

	return res, nil
}

// disqualified applies the restricted-mode data-sufficiency rules.
func (r *Runner) disqualified(effect *catalog.Effect) (bool, string) {
	switch r.restriction {
	case RestrictPathways:
		if len(effect.Pathways) == 0 {
			return true, "no associated pathways"
		}
	case RestrictProteins:
		if len(dedupe(effect.Proteins)) < 3 {
			return true, "fewer than 3 associated proteins"
		}
	}
	return false, ""
}

// rebuildView recomputes the member compounds' neighbor lists against the
// effect-relevant signature view. RestrictNone keeps the global lists.
func (r *Runner) rebuildView(ctx context.Context, effect *catalog.Effect, members []int, bottom bool) error {
	var vectors [][]float64

	switch r.restriction {
	case RestrictNone:
		return nil
	case RestrictPathways:
		if r.agg == nil {
			return &ConfigError{Reason: "pathway restriction requires an aggregator"}
		}
		vectors = r.pathwayView(effect)
	case RestrictProteins:
		prots := dedupe(effect.Proteins)
		vectors = project(r.signatures, prots)
	}

	start := time.Now()
	if err := r.idx.Rebuild(ctx, members, vectors, r.metric, r.workers, bottom); err != nil {
		return err
	}
	if r.onRebuild != nil {
		r.onRebuild(len(members), time.Since(start))
	}
	return nil
}

// pathwayView resolves the signature block for a pathway-restricted
// effect.
func (r *Runner) pathwayView(effect *catalog.Effect) [][]float64 {
	if r.agg.Concatenates() {
		union := r.agg.ProteinUnion(effect)
		if len(union) == 0 {
			r.logger.Warn("empty protein union, using full signatures",
				slog.String("effect", effect.ID))
			return r.signatures
		}
		return project(r.signatures, union)
	}
	return r.agg.Quantify(effect)
}

// firstMatch scans a sorted neighbor list for the first other member of
// the effect, returning the entry and its position.
func firstMatch(l *neighbor.List, effect *catalog.Effect) (neighbor.Entry, int, bool) {
	for pos, e := range l.Entries() {
		if effect.HasMember(e.Index) {
			return e, pos, true
		}
	}
	return neighbor.Entry{}, 0, false
}

// project returns fresh copies of the signatures restricted to the given
// protein indexes.
func project(signatures [][]float64, protIdx []int) [][]float64 {
	out := make([][]float64, len(signatures))
	for c, sig := range signatures {
		sub := make([]float64, len(protIdx))
		for k, p := range protIdx {
			sub[k] = sig[p]
		}
		out[c] = sub
	}
	return out
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

// Cutoff is one scoring bucket: a label and the inclusive upper bound a
// rank (or distance) must satisfy to count as a hit.
type Cutoff struct {
	Label string
	Value float64
}

// pctFudge guards against float truncation chopping one extra unit off
// integer percentage cutoffs.
const pctFudge = 1.0001

// discreteCutoffs builds the rank cutoff ladder: four fixed depths, the
// whole catalog, and five catalog percentages.
func discreteCutoffs(catalogSize int) []Cutoff {
	x := float64(catalogSize) / 100.0
	pct := func(p float64) float64 {
		return float64(int(x * p * pctFudge))
	}
	return []Cutoff{
		{Label: "top10", Value: 10},
		{Label: "top25", Value: 25},
		{Label: "top50", Value: 50},
		{Label: "top100", Value: 100},
		{Label: fmt.Sprintf("top%d", catalogSize), Value: pct(100)},
		{Label: "top1%", Value: pct(1)},
		{Label: "top5%", Value: pct(5)},
		{Label: "top10%", Value: pct(10)},
		{Label: "top50%", Value: pct(50)},
		{Label: "top100%", Value: pct(100)},
	}
}

// continuousDivisors map percentile labels onto sorted-distance index
// divisors; the 100% bucket is clamped to the last value.
var continuousDivisors = []struct {
	label   string
	divisor float64
}{
	{"0.1%ile", 1000},
	{"0.25%ile", 400},
	{"0.5%ile", 200},
	{"1%ile", 100},
	{"5%ile", 20},
	{"10%ile", 10},
	{"20%ile", 5},
	{"33%ile", 3},
	{"50%ile", 2},
	{"100%ile", 1},
}

// continuousCutoffs builds distance cutoffs from percentiles of the global
// non-zero, non-NaN distance distribution over active compounds.
func continuousCutoffs(cat *catalog.Catalog, idx *neighbor.Index) ([]Cutoff, error) {
	var all []float64
	for _, ci := range cat.ActiveCompounds() {
		for _, e := range idx.List(ci).Entries() {
			if e.Distance != 0.0 && !math.IsNaN(e.Distance) {
				all = append(all, e.Distance)
			}
		}
	}
	sort.Float64s(all)

	n := len(all)
	if n == 0 {
		return nil, &ConfigError{Reason: "continuous cutoffs need at least one non-zero finite distance"}
	}
	out := make([]Cutoff, len(continuousDivisors))
	for k, d := range continuousDivisors {
		i := int(float64(n) / d.divisor)
		if i > n-1 {
			i = n - 1
		}
		out[k] = Cutoff{Label: d.label, Value: all[i]}
	}
	return out, nil
}
