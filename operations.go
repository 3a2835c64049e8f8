package proteorank

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/proteorank/proteorank/catalog"
	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/fingerprint"
	"github.com/proteorank/proteorank/neighbor"
)

// Neighbor is a similarity query hit.
type Neighbor struct {
	Compound int // mapping id
	Name     string
	Distance float64
}

// SimilarCompounds returns the k nearest distinct compounds to the given
// compound, computing its neighbor list on demand when distances were
// never materialized globally.
func (p *Platform) SimilarCompounds(ctx context.Context, compoundID, k int) ([]Neighbor, error) {
	start := time.Now()
	out, err := p.similarCompounds(ctx, compoundID, k)
	p.metrics.RecordSearch(k, time.Since(start), err)
	p.logger.LogSearch(ctx, compoundID, k, err)
	return out, translateError(err)
}

func (p *Platform) similarCompounds(ctx context.Context, compoundID, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	cm, err := p.cat.CompoundByID(compoundID)
	if err != nil {
		return nil, err
	}

	l := p.idx.List(cm.Index)
	if !l.Computed() {
		vectors := p.rankingVectors()
		if vectors == nil {
			return nil, ErrNoDistances
		}
		row, err := distance.OneVsAll(ctx, vectors[cm.Index], vectors, p.opts.metric, p.opts.workers)
		if err != nil {
			return nil, err
		}
		p.idx.SetRow(cm.Index, row)
		p.idx.Filter(p.cat.Removed)
	}
	if !l.Sorted() {
		l.Sort()
	}

	out := make([]Neighbor, 0, k)
	for _, e := range l.Entries() {
		if len(out) == k {
			break
		}
		other := p.cat.Compounds[e.Index]
		out = append(out, Neighbor{Compound: other.ID, Name: other.Name, Distance: e.Distance})
	}
	return out, nil
}

// Target is one protein interaction score.
type Target struct {
	ProteinID string
	Score     float64
}

// TopTargets returns the compound's n strongest protein interactions,
// highest score first. negative flips the order for energy-like scores
// where lower is stronger.
func (p *Platform) TopTargets(compoundID, n int, negative bool) ([]Target, error) {
	cm, err := p.cat.CompoundByID(compoundID)
	if err != nil {
		return nil, translateError(err)
	}
	if p.store == nil {
		return nil, ErrNoDistances
	}

	sig := p.store.Signature(cm.Index)
	targets := make([]Target, len(sig))
	for i, s := range sig {
		targets[i] = Target{ProteinID: p.cat.Proteins[i].ID, Score: s}
	}
	sort.SliceStable(targets, func(i, j int) bool {
		if negative {
			return targets[i].Score < targets[j].Score
		}
		return targets[i].Score > targets[j].Score
	})

	if n > len(targets) {
		n = len(targets)
	}
	return targets[:n], nil
}

// AddCompound ingests a novel compound from a signature file
// (`proteinID \t score` per line; missing proteins default to zero),
// appends it to the catalog and computes its neighbor list. Existing
// compounds' lists are not extended.
func (p *Platform) AddCompound(ctx context.Context, signaturePath, name string) (int, error) {
	if p.store == nil {
		return 0, ErrNoDistances
	}

	sig := make([]float64, p.store.ProteinCount())
	f, err := os.Open(signaturePath)
	if err != nil {
		return 0, err
	}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, score, ok := strings.Cut(line, "\t")
		if !ok {
			f.Close()
			return 0, fmt.Errorf("signature %s: bad line %q", signaturePath, line)
		}
		pr, err := p.cat.ProteinByID(id)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(score, 64)
		if err != nil {
			f.Close()
			return 0, fmt.Errorf("signature %s: bad score %q", signaturePath, score)
		}
		sig[pr.Index] = v
	}
	if err := sc.Err(); err != nil {
		f.Close()
		return 0, err
	}
	f.Close()

	return p.appendCompound(ctx, sig, name)
}

// AddCompoundFromStructure ingests a novel compound from its structure
// file: the generator computes its fingerprint, which is scored against
// each protein's binding-site ligand fingerprints to form the interaction
// signature. ligandSets is indexed by protein position.
func (p *Platform) AddCompoundFromStructure(ctx context.Context, structureFile, name string, gen fingerprint.Generator, ligandSets [][]string) (int, error) {
	if p.store == nil {
		return 0, ErrNoDistances
	}
	if len(ligandSets) != p.store.ProteinCount() {
		return 0, &ConfigError{Reason: fmt.Sprintf("ligand sets for %d proteins, matrix has %d", len(ligandSets), p.store.ProteinCount())}
	}

	fp, err := gen.Generate(ctx, structureFile)
	if err != nil {
		return 0, fmt.Errorf("fingerprint %s: %w", structureFile, err)
	}

	return p.appendCompound(ctx, fingerprint.SignatureFromLigands(fp, ligandSets), name)
}

func (p *Platform) appendCompound(ctx context.Context, sig []float64, name string) (int, error) {
	id := 0
	for _, c := range p.cat.Compounds {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	cm := p.cat.AddCompound(id, name)
	if err := p.store.Append(sig); err != nil {
		return 0, err
	}
	p.idx.Grow(len(p.cat.Compounds))

	vectors := p.rankingVectors()
	if p.aux != nil {
		// Aux signatures were quantified before this compound existed.
		p.aux = p.agg.Quantify(nil)
		vectors = p.aux
	}
	row, err := distance.OneVsAll(ctx, vectors[cm.Index], vectors, p.opts.metric, p.opts.workers)
	if err != nil {
		return 0, translateError(err)
	}
	p.idx.SetRow(cm.Index, row)
	p.idx.Filter(p.cat.Removed)
	p.idx.List(cm.Index).Sort()

	return id, nil
}

// CompoundPrediction is a repurposing candidate: how often (and how high)
// a non-associated compound appears among the top neighbors of an
// effect's members.
type CompoundPrediction struct {
	Compound  int // mapping id
	Name      string
	Count     int
	AvgRank   float64
	Approved  bool
	ScoreSum  float64
	ScoreHits int
}

// PredictCompounds ranks repurposing candidates for an indication by
// enrichment over its members' top-n neighbor lists. Zero-distance
// neighbors are ignored. Candidates are ordered by count, then by mean
// list position.
func (p *Platform) PredictCompounds(ctx context.Context, indicationID string, n int) ([]CompoundPrediction, error) {
	ind, err := p.cat.Indication(indicationID)
	if err != nil {
		return nil, translateError(err)
	}

	type tally struct {
		count    int
		posSum   int
		approved bool
	}
	tallies := make(map[int]*tally)

	for _, ci := range ind.Members() {
		l := p.idx.List(ci)
		if !l.Computed() {
			return nil, ErrNoDistances
		}
		if !l.Sorted() {
			l.Sort()
		}
		for pos, e := range l.Entries() {
			if pos == n {
				break
			}
			if e.Distance == 0.0 {
				continue
			}
			t, ok := tallies[e.Index]
			if !ok {
				t = &tally{approved: ind.HasMember(e.Index)}
				tallies[e.Index] = t
			}
			t.count++
			t.posSum += pos
		}
	}

	out := make([]CompoundPrediction, 0, len(tallies))
	for ci, t := range tallies {
		cm := p.cat.Compounds[ci]
		out = append(out, CompoundPrediction{
			Compound: cm.ID,
			Name:     cm.Name,
			Count:    t.count,
			AvgRank:  float64(t.posSum) / float64(t.count),
			Approved: t.approved,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].AvgRank < out[j].AvgRank
	})
	return out, nil
}

// PredictCompoundsByScore ranks compounds by summed interaction score
// across the indication's associated proteins (or all proteins when the
// indication id is empty), ignoring scores below threshold.
func (p *Platform) PredictCompoundsByScore(indicationID string, threshold float64) ([]CompoundPrediction, error) {
	if p.store == nil {
		return nil, ErrNoDistances
	}

	var proteins []int
	var ind *catalog.Effect
	if indicationID != "" {
		e, err := p.cat.Indication(indicationID)
		if err != nil {
			return nil, translateError(err)
		}
		ind = e
		if p.opts.indicationProteins != "" {
			proteins = e.Proteins
		}
	}

	out := make([]CompoundPrediction, 0, p.cat.Size())
	for _, ci := range p.cat.ActiveCompounds() {
		sig := p.store.Signature(ci)
		var sum float64
		hits := 0
		if proteins != nil {
			for _, pi := range proteins {
				if sig[pi] >= threshold {
					sum += sig[pi]
					hits++
				}
			}
		} else {
			for _, s := range sig {
				if s >= threshold {
					sum += s
					hits++
				}
			}
		}
		cm := p.cat.Compounds[ci]
		out = append(out, CompoundPrediction{
			Compound:  cm.ID,
			Name:      cm.Name,
			ScoreSum:  sum,
			ScoreHits: hits,
			Approved:  ind != nil && ind.HasMember(ci),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ScoreSum != out[j].ScoreSum {
			return out[i].ScoreSum > out[j].ScoreSum
		}
		return out[i].ScoreHits > out[j].ScoreHits
	})
	return out, nil
}

// IndicationPrediction is an enriched indication among a compound's
// nearest neighbors.
type IndicationPrediction struct {
	IndicationID string
	Name         string
	Count        int
}

// PredictIndications ranks indications by how many of the compound's
// top-n neighbors are associated with them.
func (p *Platform) PredictIndications(ctx context.Context, compoundID, n int) ([]IndicationPrediction, error) {
	cm, err := p.cat.CompoundByID(compoundID)
	if err != nil {
		return nil, translateError(err)
	}
	if _, err := p.SimilarCompounds(ctx, compoundID, 1); err != nil {
		// Forces the neighbor list to exist.
		return nil, err
	}

	counts := make(map[int]int)
	for pos, e := range p.idx.List(cm.Index).Entries() {
		if pos == n {
			break
		}
		for _, ei := range p.cat.Compounds[e.Index].EffectIndexes() {
			if p.cat.Effects[ei].Kind == catalog.KindIndication {
				counts[ei]++
			}
		}
	}

	out := make([]IndicationPrediction, 0, len(counts))
	for ei, c := range counts {
		e := p.cat.Effects[ei]
		out = append(out, IndicationPrediction{IndicationID: e.ID, Name: e.Name, Count: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].IndicationID < out[j].IndicationID
	})
	return out, nil
}

// FuseMethod combines per-platform neighbor ranks during fusion.
type FuseMethod int

const (
	// FuseSum ranks by the sum of per-platform positions.
	FuseSum FuseMethod = iota
	// FuseMin ranks by the best position on any platform.
	FuseMin
	// FuseAvg ranks by the mean position.
	FuseAvg
	// FuseMult ranks by the product of positions.
	FuseMult
)

// ParseFuseMethod resolves a fusion method by name.
func ParseFuseMethod(name string) (FuseMethod, error) {
	switch name {
	case "sum":
		return FuseSum, nil
	case "min":
		return FuseMin, nil
	case "avg":
		return FuseAvg, nil
	case "mult":
		return FuseMult, nil
	default:
		return 0, &ConfigError{Reason: fmt.Sprintf("unknown fusion method: %q", name)}
	}
}

// Fuse combines this platform's rankings with others built over the same
// compound catalog: each pair's fused distance is the combination of its
// list positions across all platforms. The fused index replaces nothing;
// it is returned sorted.
func (p *Platform) Fuse(others []*Platform, method FuseMethod) (*neighbor.Index, error) {
	platforms := append([]*Platform{p}, others...)
	n := len(p.cat.Compounds)

	// positions[pl][i][j] = j's position in i's sorted list on platform pl
	positions := make([]map[int]map[int]int, len(platforms))
	for k, pl := range platforms {
		if pl.idx.Size() != n {
			return nil, &ConfigError{Reason: "fused platforms must share the compound catalog"}
		}
		positions[k] = make(map[int]map[int]int, n)
		for i := 0; i < n; i++ {
			l := pl.idx.List(i)
			if !l.Computed() {
				return nil, ErrNoDistances
			}
			if !l.Sorted() {
				l.Sort()
			}
			row := make(map[int]int, l.Len())
			for pos, e := range l.Entries() {
				row[e.Index] = pos
			}
			positions[k][i] = row
		}
	}

	fused := neighbor.NewIndex(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			var v float64
			switch method {
			case FuseMin:
				v = math.Inf(1)
				for k := range platforms {
					if r, ok := positions[k][i][j]; ok && float64(r) < v {
						v = float64(r)
					}
				}
			case FuseMult:
				v = 1
				for k := range platforms {
					v *= float64(positions[k][i][j])
				}
			default:
				for k := range platforms {
					v += float64(positions[k][i][j])
				}
				if method == FuseAvg {
					v /= float64(len(platforms))
				}
			}
			fused.AppendEntry(i, neighbor.Entry{Index: j, Distance: v})
		}
	}
	fused.SortAll()
	return fused, nil
}

// NormalizeDistances scales every stored distance into [0,1] by dividing
// by the global maximum finite distance.
func (p *Platform) NormalizeDistances() error {
	mx := 0.0
	for i := 0; i < p.idx.Size(); i++ {
		l := p.idx.List(i)
		if !l.Computed() {
			return ErrNoDistances
		}
		for _, e := range l.Entries() {
			if !math.IsNaN(e.Distance) && e.Distance > mx {
				mx = e.Distance
			}
		}
	}
	if mx == 0 {
		return nil
	}
	p.idx.Scale(1 / mx)
	return nil
}
