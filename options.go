package proteorank

import (
	"log/slog"

	"github.com/proteorank/proteorank/distance"
	"github.com/proteorank/proteorank/pathway"
)

type options struct {
	matrixPath         string
	proteinSetPath     string
	remapPath          string
	pathwaysPath       string
	indicationPathways string
	indicationProteins string
	adrMapPath         string
	diseaseGroupsPath  string
	removeCompounds    string

	quantifier pathway.Quantifier
	metric     distance.Metric

	similarity       bool
	computeDistances bool
	saveDistances    string
	readDistances    string
	removeZeros      bool

	workers          int
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures Platform construction.
type Option func(*options)

// WithMatrix sets the compound-protein interaction matrix file. Without a
// matrix the platform carries mappings only.
func WithMatrix(path string) Option {
	return func(o *options) {
		o.matrixPath = path
	}
}

// WithProteinSet restricts matrix ingestion to the protein identifiers
// listed in the file (one per line).
func WithProteinSet(path string) Option {
	return func(o *options) {
		o.proteinSetPath = path
	}
}

// WithRemap supplies the secondary-identifier table used to match the
// protein set against matrix row ids.
func WithRemap(path string) Option {
	return func(o *options) {
		o.remapPath = path
	}
}

// WithPathways enables pathway-level signatures from the given membership
// file.
func WithPathways(path string) Option {
	return func(o *options) {
		o.pathwaysPath = path
	}
}

// WithIndicationPathways supplies pathway-indication associations,
// enabling per-effect pathway restriction in benchmarks.
func WithIndicationPathways(path string) Option {
	return func(o *options) {
		o.indicationPathways = path
	}
}

// WithIndicationProteins supplies indication-protein associations,
// enabling per-effect protein restriction in benchmarks.
func WithIndicationProteins(path string) Option {
	return func(o *options) {
		o.indicationProteins = path
	}
}

// WithADRs loads an adverse-reaction mapping alongside indications.
func WithADRs(path string) Option {
	return func(o *options) {
		o.adrMapPath = path
	}
}

// WithDiseaseGroups loads the top-level disease grouping used by the
// pathogen/human benchmark category filter.
func WithDiseaseGroups(path string) Option {
	return func(o *options) {
		o.diseaseGroupsPath = path
	}
}

// WithPathwayQuantifier selects how pathway signatures are aggregated
// (default max).
func WithPathwayQuantifier(q pathway.Quantifier) Option {
	return func(o *options) {
		o.quantifier = q
	}
}

// WithMetric selects the distance metric (default rmsd).
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithSimilarity treats persisted matrices as similarity scores, stored
// internally as 1-s.
func WithSimilarity() Option {
	return func(o *options) {
		o.similarity = true
	}
}

// WithComputeDistances computes all-pairs distances at construction.
func WithComputeDistances() Option {
	return func(o *options) {
		o.computeDistances = true
	}
}

// WithSaveDistances persists the computed distance matrix to path.
func WithSaveDistances(path string) Option {
	return func(o *options) {
		o.saveDistances = path
	}
}

// WithReadDistances loads a previously persisted distance matrix instead
// of computing one.
func WithReadDistances(path string) Option {
	return func(o *options) {
		o.readDistances = path
	}
}

// WithRemoveZeros filters out compounds whose signature is all zero.
func WithRemoveZeros() Option {
	return func(o *options) {
		o.removeZeros = true
	}
}

// WithRemoveCompounds filters out the compound ids listed in the file
// (first tab field per line).
func WithRemoveCompounds(path string) Option {
	return func(o *options) {
		o.removeCompounds = path
	}
}

// WithWorkers sets the distance computation worker count.
// n <= 0 defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		quantifier:       pathway.QuantMax,
		metric:           distance.MetricRMSD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
