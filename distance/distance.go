// Package distance computes scalar distances between compound interaction
// signatures. It provides the metric catalog plus two evaluation modes:
// all-pairs over a compound set (condensed upper-triangular output) and
// one-vs-all rows for query signatures against a candidate set.
package distance

import (
	"fmt"
	"math"
)

// Metric identifies the distance metric used for signature comparison.
type Metric int

const (
	// MetricRMSD is the elementwise root-mean-square difference.
	MetricRMSD Metric = iota
	// MetricCosine is the cosine distance (1 - cosine similarity).
	MetricCosine
	// MetricCorrelation is the correlation distance (1 - Pearson correlation).
	MetricCorrelation
	// MetricEuclidean is the L2 distance.
	MetricEuclidean
	// MetricCityblock is the L1 (Manhattan) distance.
	MetricCityblock
)

func (m Metric) String() string {
	switch m {
	case MetricRMSD:
		return "rmsd"
	case MetricCosine:
		return "cosine"
	case MetricCorrelation:
		return "correlation"
	case MetricEuclidean:
		return "euclidean"
	case MetricCityblock:
		return "cityblock"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// ErrUnknownMetric indicates a metric name outside the supported catalog.
// It is a configuration error and is raised before any computation begins.
type ErrUnknownMetric struct {
	Name string
}

func (e *ErrUnknownMetric) Error() string {
	return fmt.Sprintf("unknown distance metric: %q", e.Name)
}

// ParseMetric resolves a metric by name.
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "rmsd":
		return MetricRMSD, nil
	case "cosine":
		return MetricCosine, nil
	case "correlation":
		return MetricCorrelation, nil
	case "euclidean":
		return MetricEuclidean, nil
	case "cityblock":
		return MetricCityblock, nil
	default:
		return 0, &ErrUnknownMetric{Name: name}
	}
}

// Func is a function type for distance calculation between two signatures.
// Vectors must be the same length (caller's responsibility).
type Func func(a, b []float64) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricRMSD:
		return RMSD, nil
	case MetricCosine:
		return Cosine, nil
	case MetricCorrelation:
		return Correlation, nil
	case MetricEuclidean:
		return Euclidean, nil
	case MetricCityblock:
		return Cityblock, nil
	default:
		return nil, &ErrUnknownMetric{Name: m.String()}
	}
}

// RMSD calculates the root-mean-square difference between two vectors.
func RMSD(a, b []float64) float64 {
	if len(a) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Cityblock calculates the L1 distance between two vectors.
func Cityblock(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Cosine calculates the cosine distance 1 - (a·b)/(|a||b|).
// A zero-norm input yields NaN; NaN propagates to the caller and sorts
// after every finite distance.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return math.NaN()
	}
	return 1 - dot/denom
}

// Correlation calculates the correlation distance 1 - Pearson(a, b).
// Zero-variance inputs yield NaN.
func Correlation(a, b []float64) float64 {
	if len(a) == 0 {
		return math.NaN()
	}
	var ma, mb float64
	for i := range a {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(len(a))
	mb /= float64(len(b))

	var dot, na, nb float64
	for i := range a {
		da := a[i] - ma
		db := b[i] - mb
		dot += da * db
		na += da * da
		nb += db * db
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return math.NaN()
	}
	return 1 - dot/denom
}

// Less reports whether x sorts before y, treating NaN as larger than
// every finite value. This is the single ordering rule for neighbor lists.
func Less(x, y float64) bool {
	if math.IsNaN(x) {
		return false
	}
	if math.IsNaN(y) {
		return true
	}
	return x < y
}
