package proteorank

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/proteorank/proteorank/benchmark"
	"github.com/proteorank/proteorank/catalog"
	"github.com/proteorank/proteorank/classifier"
	"github.com/proteorank/proteorank/neighbor"
	"github.com/proteorank/proteorank/rank"
)

// BenchmarkSpec selects what a benchmark run scores and where its reports
// go.
type BenchmarkSpec struct {
	// Name tags the three report files (summary_<Name>.tsv and friends).
	Name string
	// OutDir is the report root (default current directory).
	OutDir string
	// IndicationIDs restricts scoring to these indications; empty means
	// all (or all ADRs when ADRs is set).
	IndicationIDs []string
	// ADRs scores adverse reactions instead of indications.
	ADRs bool
	// Category filters indications by pathogen origin: "", "pathogen" or
	// "human". Requires a loaded disease grouping.
	Category string
	// Continuous uses distance-percentile cutoffs instead of ranks.
	Continuous bool
	// Ranking is the tie-break policy name (default "standard").
	Ranking string
}

// Benchmark scores the platform's rankings against known associations and
// writes the summary, per-effect and raw report files.
func (p *Platform) Benchmark(ctx context.Context, spec BenchmarkSpec) (*benchmark.Results, error) {
	res, err := p.runBenchmark(ctx, p.cat, p.idx, spec, false)
	return res, translateError(err)
}

// BenchmarkBottom scores descending (least similar first) lists with
// reversed comparisons, as a negative control. Lists are re-sorted
// ascending afterwards.
func (p *Platform) BenchmarkBottom(ctx context.Context, spec BenchmarkSpec) (*benchmark.Results, error) {
	res, err := p.runBenchmark(ctx, p.cat, p.idx, spec, true)
	p.idx.SortAll()
	return res, translateError(err)
}

// BenchmarkAssociated restricts the catalog to compounds associated with
// at least one scorable effect before benchmarking, removing the noise of
// never-matching compounds. The platform itself is left untouched.
func (p *Platform) BenchmarkAssociated(ctx context.Context, spec BenchmarkSpec) (*benchmark.Results, error) {
	cp := p.cat.Clone()

	var drop []int
	for _, cm := range cp.Compounds {
		if cp.Removed(cm.Index) {
			continue
		}
		if !p.associated(cm) {
			drop = append(drop, cm.Index)
		}
	}
	cp.RemoveCompounds(drop)

	// Fresh lists over the surviving compounds only.
	idx := neighbor.NewIndex(len(cp.Compounds))
	vectors := p.rankingVectors()
	if vectors == nil {
		return nil, ErrNoDistances
	}
	rebuildStart := time.Now()
	if err := idx.Rebuild(ctx, cp.ActiveCompounds(), vectors, p.opts.metric, p.opts.workers, false); err != nil {
		return nil, translateError(err)
	}
	p.metrics.RecordRebuild(len(cp.ActiveCompounds()), time.Since(rebuildStart))
	idx.Filter(cp.Removed)

	res, err := p.runBenchmark(ctx, cp, idx, spec, false)
	return res, translateError(err)
}

// associated reports whether the compound belongs to any effect with at
// least two members.
func (p *Platform) associated(cm *catalog.Compound) bool {
	for _, ei := range cm.EffectIndexes() {
		if p.cat.Effects[ei].MemberCount() >= 2 {
			return true
		}
	}
	return false
}

func (p *Platform) runBenchmark(ctx context.Context, cat *catalog.Catalog, idx *neighbor.Index, spec BenchmarkSpec, bottom bool) (*benchmark.Results, error) {
	if spec.Ranking == "" {
		spec.Ranking = "standard"
	}
	policy, err := rank.ParsePolicy(spec.Ranking)
	if err != nil {
		return nil, err
	}

	effects, kind, err := p.selectEffects(cat, spec)
	if err != nil {
		return nil, err
	}

	// ADR benchmarks always score the global lists; only indications
	// carry protein/pathway restrictions.
	restriction := benchmark.RestrictNone
	if !spec.ADRs {
		switch {
		case p.opts.indicationPathways != "":
			restriction = benchmark.RestrictPathways
		case p.opts.indicationProteins != "":
			restriction = benchmark.RestrictProteins
		}
	}

	runner := benchmark.NewRunner(cat, idx, p.Signatures(), p.opts.metric,
		benchmark.WithAggregator(p.agg),
		benchmark.WithRestriction(restriction),
		benchmark.WithWorkers(p.opts.workers),
		benchmark.WithLogger(p.logger.Logger),
		benchmark.WithRebuildObserver(p.metrics.RecordRebuild),
	)

	start := time.Now()
	res, err := runner.Run(ctx, benchmark.Config{
		Effects:    effects,
		Kind:       kind,
		Continuous: spec.Continuous,
		Bottom:     bottom,
		Policy:     policy,
	})
	p.metrics.RecordBenchmark(len(effects), observations(res), time.Since(start), err)
	p.logger.LogBenchmark(ctx, spec.Name, len(effects), observations(res), err)
	if err != nil {
		return nil, err
	}

	if spec.Name != "" {
		if err := writeReports(res, spec.OutDir, spec.Name); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func observations(res *benchmark.Results) int {
	if res == nil {
		return 0
	}
	return len(res.Observations)
}

// selectEffects resolves the benchmark's effect set.
func (p *Platform) selectEffects(cat *catalog.Catalog, spec BenchmarkSpec) ([]*catalog.Effect, catalog.EffectKind, error) {
	if spec.ADRs {
		return cat.ADRs(), catalog.KindADR, nil
	}

	if len(spec.IndicationIDs) > 0 {
		effects := make([]*catalog.Effect, 0, len(spec.IndicationIDs))
		for _, id := range spec.IndicationIDs {
			e, err := cat.Indication(id)
			if err != nil {
				return nil, 0, err
			}
			effects = append(effects, e)
		}
		return effects, catalog.KindIndication, nil
	}

	switch spec.Category {
	case "":
		return cat.Indications(), catalog.KindIndication, nil
	case "pathogen":
		return cat.IndicationsByPathogen(catalog.PathogenPositive), catalog.KindIndication, nil
	case "human":
		return cat.IndicationsByPathogen(catalog.PathogenHuman), catalog.KindIndication, nil
	default:
		return nil, 0, &ConfigError{Reason: fmt.Sprintf("unknown indication category: %q", spec.Category)}
	}
}

// writeReports materializes the three benchmark report files under dir.
func writeReports(res *benchmark.Results, dir, name string) error {
	if err := res.WriteSummary(filepath.Join(dir, "summary_"+name+".tsv")); err != nil {
		return err
	}
	if err := res.WriteDetail(filepath.Join(dir, "results_analysed_named", "results_analysed_named_"+name+".tsv")); err != nil {
		return err
	}
	return res.WriteRaw(filepath.Join(dir, "raw_results", "raw_results_"+name+".csv"))
}

// BenchmarkClassifier runs a leave-one-out cross-validation benchmark of a
// black-box classifier over the selected effects and writes the report
// files when a name is given.
func (p *Platform) BenchmarkClassifier(ctx context.Context, spec BenchmarkSpec, factory classifier.Factory, seed int64) (*classifier.Results, error) {
	effects, _, err := p.selectEffects(p.cat, spec)
	if err != nil {
		return nil, translateError(err)
	}
	if p.store == nil {
		return nil, ErrNoDistances
	}

	driver := classifier.NewDriver(p.cat, p.store.Signatures(), factory,
		classifier.WithSeed(seed),
		classifier.WithEffectProteins(p.opts.indicationProteins != ""),
		classifier.WithLogger(p.logger.Logger),
	)
	res, err := driver.Benchmark(ctx, effects)
	if err != nil {
		return nil, translateError(err)
	}

	if spec.Name != "" {
		if err := res.WriteSummary(filepath.Join(spec.OutDir, "summary_ml_"+spec.Name+".tsv")); err != nil {
			return nil, err
		}
		if err := res.WriteDetail(filepath.Join(spec.OutDir, "results_analysed_named", "results_analysed_named_ml_"+spec.Name+".tsv")); err != nil {
			return nil, err
		}
		if err := res.WriteRaw(filepath.Join(spec.OutDir, "raw_results", "raw_results_ml_"+spec.Name+".csv")); err != nil {
			return nil, err
		}
	}
	return res, nil
}
