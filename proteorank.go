// Package proteorank ranks drug-like compounds by interaction signature
// similarity and benchmarks those rankings against known drug-indication
// and drug-ADR associations.
//
// A Platform is built from mapping files and an interaction matrix, holds
// per-compound neighbor lists, and exposes similarity queries, repurposing
// predictions and benchmarking.
package proteorank

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/proteorank/proteorank/catalog"
	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/matrix"
	"github.com/proteorank/proteorank/neighbor"
	"github.com/proteorank/proteorank/pathway"
)

// Platform is the root facade: the compound catalog, its interaction
// signatures and the derived similarity index.
type Platform struct {
	cat   *catalog.Catalog
	store *matrix.Store
	idx   *neighbor.Index
	agg   *pathway.Aggregator

	// aux holds globally quantified pathway signatures when pathways are
	// configured without per-indication associations; distances are then
	// computed over aux instead of the raw signatures.
	aux [][]float64

	opts    options
	logger  *Logger
	metrics MetricsCollector
}

// New builds a Platform from the compound and indication mapping files.
// The load order is fixed: mappings, matrix, pathways and associations,
// distances (read or computed), persistence, filtering, ADRs.
func New(ctx context.Context, compoundMap, indicationMap string, optFns ...Option) (*Platform, error) {
	opts := applyOptions(optFns)

	p := &Platform{
		cat:     catalog.New(),
		opts:    opts,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}

	if err := p.cat.LoadCompounds(compoundMap); err != nil {
		return nil, err
	}
	if indicationMap != "" {
		if err := p.cat.LoadIndications(indicationMap); err != nil {
			return nil, translateError(err)
		}
	}

	if err := p.loadMatrix(ctx); err != nil {
		return nil, translateError(err)
	}
	if err := p.loadAssociations(); err != nil {
		return nil, translateError(err)
	}
	if err := p.buildAggregator(); err != nil {
		return nil, translateError(err)
	}
	if err := p.loadDistances(ctx); err != nil {
		return nil, translateError(err)
	}
	if err := p.filterCompounds(ctx); err != nil {
		return nil, translateError(err)
	}

	if opts.adrMapPath != "" {
		if err := p.cat.LoadADRs(opts.adrMapPath); err != nil {
			return nil, translateError(err)
		}
	}

	return p, nil
}

func (p *Platform) loadMatrix(ctx context.Context) error {
	if p.opts.matrixPath == "" {
		p.idx = neighbor.NewIndex(len(p.cat.Compounds))
		return nil
	}

	start := time.Now()

	var readOpts []matrix.ReadOption
	if p.opts.proteinSetPath != "" {
		ids, err := readLines(p.opts.proteinSetPath)
		if err != nil {
			return err
		}
		readOpts = append(readOpts, matrix.WithProteinSet(ids))
		if p.opts.remapPath != "" {
			readOpts = append(readOpts, matrix.WithRemap(p.opts.remapPath))
		}
	}

	store, err := matrix.Read(p.opts.matrixPath, readOpts...)
	p.metrics.RecordMatrixLoad(time.Since(start), err)
	p.logger.LogMatrixLoad(ctx, p.opts.matrixPath, storeProteins(store), storeCompounds(store), err)
	if err != nil {
		return err
	}

	if store.Compounds() != len(p.cat.Compounds) {
		return fmt.Errorf("matrix has %d compound columns, mapping has %d compounds",
			store.Compounds(), len(p.cat.Compounds))
	}

	p.store = store
	for i, id := range store.ProteinIDs {
		p.cat.RegisterProtein(id, store.AltIDs[i])
	}
	p.idx = neighbor.NewIndex(len(p.cat.Compounds))
	return nil
}

func storeProteins(s *matrix.Store) int {
	if s == nil {
		return 0
	}
	return s.ProteinCount()
}

func storeCompounds(s *matrix.Store) int {
	if s == nil {
		return 0
	}
	return s.Compounds()
}

func (p *Platform) loadAssociations() error {
	if p.opts.pathwaysPath != "" {
		if err := p.cat.LoadPathways(p.opts.pathwaysPath, p.opts.indicationPathways); err != nil {
			return err
		}
	}
	if p.opts.indicationProteins != "" {
		if err := p.cat.LoadEffectProteins(p.opts.indicationProteins); err != nil {
			return err
		}
	}
	if p.opts.diseaseGroupsPath != "" {
		if err := p.cat.LoadDiseaseGroups(p.opts.diseaseGroupsPath); err != nil {
			return err
		}
	}
	return nil
}

func (p *Platform) buildAggregator() error {
	if p.opts.pathwaysPath == "" || p.store == nil {
		return nil
	}

	agg, err := pathway.New(p.cat, p.store.Signatures(), p.opts.quantifier,
		p.opts.indicationPathways != "", pathway.WithLogger(p.logger.Logger))
	if err != nil {
		return err
	}
	p.agg = agg

	// Without per-indication associations the pathway view is global:
	// quantify once and rank on the aux signatures.
	if p.opts.indicationPathways == "" {
		p.aux = agg.Quantify(nil)
	}
	return nil
}

func (p *Platform) loadDistances(ctx context.Context) error {
	n := len(p.cat.Compounds)

	switch {
	case p.opts.readDistances != "":
		idx, err := matrix.ReadDistances(p.opts.readDistances, n, p.opts.similarity)
		if err != nil {
			return err
		}
		p.idx = idx
		p.idx.SortAll()
	case p.opts.computeDistances:
		start := time.Now()
		cond, err := distance.AllPairs(ctx, p.rankingVectors(), p.opts.metric, p.opts.workers)
		p.metrics.RecordDistances(n*(n-1)/2, time.Since(start), err)
		p.logger.LogDistances(ctx, p.opts.metric.String(), n*(n-1)/2, time.Since(start), err)
		if err != nil {
			return err
		}
		p.idx.BuildFromCondensed(cond)
		p.idx.SortAll()
	}

	if p.opts.saveDistances != "" {
		if err := matrix.WriteDistances(p.idx, p.opts.saveDistances, p.opts.similarity); err != nil {
			return err
		}
	}
	return nil
}

// rankingVectors returns the signature block global rankings run on: the
// pathway aux signatures when a global pathway view is configured,
// otherwise the raw protein signatures.
func (p *Platform) rankingVectors() [][]float64 {
	if p.aux != nil {
		return p.aux
	}
	if p.store == nil {
		return nil
	}
	return p.store.Signatures()
}

func (p *Platform) filterCompounds(ctx context.Context) error {
	before := p.cat.Size()

	if p.opts.removeCompounds != "" {
		ids, err := readIDColumn(p.opts.removeCompounds)
		if err != nil {
			return err
		}
		p.cat.RemoveCompoundIDs(ids)
	}
	if p.opts.removeZeros && p.store != nil {
		p.cat.RemoveZeroSignatures(p.store.Signature)
	}

	removed := before - p.cat.Size()
	if removed > 0 {
		p.idx.Filter(p.cat.Removed)
		p.logger.LogFilter(ctx, removed, p.cat.Size())
	}
	return nil
}

// Catalog exposes the entity arena.
func (p *Platform) Catalog() *catalog.Catalog { return p.cat }

// Signatures exposes the raw interaction signatures, compound-major.
func (p *Platform) Signatures() [][]float64 {
	if p.store == nil {
		return nil
	}
	return p.store.Signatures()
}

// Index exposes the neighbor index.
func (p *Platform) Index() *neighbor.Index { return p.idx }

// Compound resolves a compound by mapping id.
func (p *Platform) Compound(id int) (*catalog.Compound, error) {
	c, err := p.cat.CompoundByID(id)
	return c, translateError(err)
}

// Indication resolves an indication by id.
func (p *Platform) Indication(id string) (*catalog.Effect, error) {
	e, err := p.cat.Indication(id)
	return e, translateError(err)
}

// ADR resolves an adverse reaction by id.
func (p *Platform) ADR(id string) (*catalog.Effect, error) {
	e, err := p.cat.ADR(id)
	return e, translateError(err)
}

// SearchCompounds fuzzy-matches compound names.
func (p *Platform) SearchCompounds(name string, n int) []catalog.Match {
	return p.cat.SearchCompounds(name, n)
}

// readLines returns the non-blank lines of a file, trimmed.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// readIDColumn parses the first tab field of every line as an integer id.
func readIDColumn(path string) ([]int, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		field, _, _ := strings.Cut(l, "\t")
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%s: bad compound id %q", path, field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
