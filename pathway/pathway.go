// Package pathway collapses protein-level interaction signatures into
// pathway-level auxiliary signatures. An aggregator is configured once
// with a quantifier and produces a fresh signature block per effect, so
// effect-restricted views never share buffers.
package pathway

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/proteorank/proteorank/catalog"
)

// Quantifier selects how a pathway's member protein scores collapse into
// the auxiliary signature.
type Quantifier int

const (
	// QuantMax keeps each pathway's maximum protein score.
	QuantMax Quantifier = iota
	// QuantSum keeps each pathway's score sum.
	QuantSum
	// QuantAvg keeps each pathway's mean score.
	QuantAvg
	// QuantConcatProteins concatenates the raw protein scores of every
	// pathway instead of collapsing them. Requires indication-pathway
	// associations.
	QuantConcatProteins
)

func (q Quantifier) String() string {
	switch q {
	case QuantMax:
		return "max"
	case QuantSum:
		return "sum"
	case QuantAvg:
		return "avg"
	case QuantConcatProteins:
		return "proteins"
	default:
		return fmt.Sprintf("unknown(%d)", q)
	}
}

// ErrUnknownQuantifier indicates a quantifier name outside the supported
// set.
type ErrUnknownQuantifier struct {
	Name string
}

func (e *ErrUnknownQuantifier) Error() string {
	return fmt.Sprintf("unknown pathway quantifier: %q", e.Name)
}

// ParseQuantifier resolves a quantifier by name.
func ParseQuantifier(name string) (Quantifier, error) {
	switch name {
	case "max":
		return QuantMax, nil
	case "sum":
		return QuantSum, nil
	case "avg":
		return QuantAvg, nil
	case "proteins":
		return QuantConcatProteins, nil
	default:
		return 0, &ErrUnknownQuantifier{Name: name}
	}
}

// ConfigError reports an unusable aggregator configuration, raised at
// construction before any quantification runs.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "pathway aggregator: " + e.Reason
}

// Aggregator quantifies pathway signatures against a fixed catalog and
// signature block.
type Aggregator struct {
	cat        *catalog.Catalog
	signatures [][]float64
	quant      Quantifier
	associated bool
	logger     *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the warning logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// New creates an aggregator over the catalog's pathways and the full
// protein-level signatures (one vector per compound ordinal). associated
// reports whether indication-pathway associations were loaded; the
// concatenate-proteins quantifier is rejected without them.
func New(cat *catalog.Catalog, signatures [][]float64, q Quantifier, associated bool, opts ...Option) (*Aggregator, error) {
	if q == QuantConcatProteins && !associated {
		return nil, &ConfigError{Reason: "proteins quantifier requires indication-pathway associations"}
	}

	a := &Aggregator{
		cat:        cat,
		signatures: signatures,
		quant:      q,
		associated: associated,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Concatenates reports whether the aggregator uses the
// concatenate-proteins quantifier.
func (a *Aggregator) Concatenates() bool {
	return a.quant == QuantConcatProteins
}

// Quantify builds auxiliary signatures for every compound, one freshly
// allocated row per compound ordinal. A nil effect quantifies over the
// full pathway set; otherwise over the effect's associated pathways,
// falling back once to the full set when the restriction leaves no
// pathway with proteins.
func (a *Aggregator) Quantify(effect *catalog.Effect) [][]float64 {
	pws := a.selectPathways(effect)

	out := make([][]float64, len(a.signatures))
	for ci, sig := range a.signatures {
		var aux []float64
		for _, pwi := range pws {
			pw := a.cat.Pathways[pwi]
			if len(pw.Proteins) == 0 {
				a.logger.Warn("pathway has no proteins, skipping", slog.String("pathway", pw.ID))
				continue
			}
			if a.quant == QuantConcatProteins {
				for _, pi := range pw.Proteins {
					aux = append(aux, sig[pi])
				}
				continue
			}
			aux = append(aux, collapse(a.quant, sig, pw.Proteins))
		}
		out[ci] = aux
	}
	return out
}

// selectPathways resolves the pathway set for an effect with a bounded
// single fallback to the full set; no recursion.
func (a *Aggregator) selectPathways(effect *catalog.Effect) []int {
	all := make([]int, len(a.cat.Pathways))
	for i := range all {
		all[i] = i
	}

	if effect == nil {
		return withProteins(a.cat, all)
	}
	if len(effect.Pathways) == 0 {
		a.logger.Warn("effect has no associated pathways, using all pathways",
			slog.String("effect", effect.ID))
		return withProteins(a.cat, all)
	}

	usable := withProteins(a.cat, effect.Pathways)
	if len(usable) == 0 {
		a.logger.Warn("associated pathways have no proteins, using all pathways",
			slog.String("effect", effect.ID))
		return withProteins(a.cat, all)
	}
	return usable
}

// withProteins filters pathway indexes to those with at least one member
// protein.
func withProteins(cat *catalog.Catalog, pws []int) []int {
	var out []int
	for _, pwi := range pws {
		if len(cat.Pathways[pwi].Proteins) > 0 {
			out = append(out, pwi)
		}
	}
	return out
}

func collapse(q Quantifier, sig []float64, proteins []int) float64 {
	switch q {
	case QuantSum:
		var sum float64
		for _, pi := range proteins {
			sum += sig[pi]
		}
		return sum
	case QuantAvg:
		var sum float64
		for _, pi := range proteins {
			sum += sig[pi]
		}
		return sum / float64(len(proteins))
	default:
		mx := sig[proteins[0]]
		for _, pi := range proteins[1:] {
			if sig[pi] > mx {
				mx = sig[pi]
			}
		}
		return mx
	}
}

// ProteinUnion returns the sorted, de-duplicated union of proteins across
// the effect's pathways. An empty union means the caller should fall back
// to full signatures.
func (a *Aggregator) ProteinUnion(effect *catalog.Effect) []int {
	seen := make(map[int]bool)
	for _, pwi := range effect.Pathways {
		for _, pi := range a.cat.Pathways[pwi].Proteins {
			seen[pi] = true
		}
	}
	out := make([]int, 0, len(seen))
	for pi := range seen {
		out = append(out, pi)
	}
	sort.Ints(out)
	return out
}
