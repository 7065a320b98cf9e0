package distance

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownMetric is returned for metric names outside the supported set.
var ErrUnknownMetric = errors.New("unknown distance metric")

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine calculates the cosine similarity of two vectors.
// Returns NaN if either vector has zero norm.
func Cosine(a, b []float32) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	return Dot(a, b) / (na * nb)
}

// L1 calculates the Manhattan distance between two vectors.
func L1(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum
}

// L2 calculates the Euclidean distance between two vectors.
func L2(a, b []float32) float64 {
	return math.Sqrt(SquaredL2(a, b))
}

// SquaredL2 calculates the squared Euclidean distance between two vectors.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Max calculates the Chebyshev distance between two vectors.
func Max(a, b []float32) float64 {
	var m float64
	for i := range a {
		if d := math.Abs(float64(a[i]) - float64(b[i])); d > m {
			m = d
		}
	}
	return m
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Metric represents the distance metric used for re-ranking.
type Metric int

const (
	MetricCosine Metric = iota
	MetricDot
	MetricL1
	MetricL2
	MetricMax
)

// String returns the short name accepted by ParseMetric.
func (m Metric) String() string {
	switch m {
	case MetricCosine:
		return "cos"
	case MetricDot:
		return "dot"
	case MetricL1:
		return "l1"
	case MetricL2:
		return "l2"
	case MetricMax:
		return "max"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric maps a metric name to its Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "cos", "cosine":
		return MetricCosine, nil
	case "dot", "dot_product":
		return MetricDot, nil
	case "l1", "manhattan":
		return MetricL1, nil
	case "l2", "euclidean":
		return MetricL2, nil
	case "max", "chebyshev":
		return MetricMax, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// HigherIsCloser reports whether larger scores mean closer vectors.
func (m Metric) HigherIsCloser() bool {
	return m == MetricCosine || m == MetricDot
}

// Passes reports whether score satisfies threshold under m.
func (m Metric) Passes(score, threshold float64) bool {
	if m.HigherIsCloser() {
		return score >= threshold
	}
	return score <= threshold
}

// Closer reports whether score a ranks strictly ahead of b under m.
func (m Metric) Closer(a, b float64) bool {
	if m.HigherIsCloser() {
		return a > b
	}
	return a < b
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricCosine:
		return Cosine, nil
	case MetricDot:
		return Dot, nil
	case MetricL1:
		return L1, nil
	case MetricL2:
		return L2, nil
	case MetricMax:
		return Max, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMetric, m)
	}
}

// Scores evaluates m between query and every vector of batch.
func Scores(m Metric, query []float32, batch [][]float32) ([]float64, error) {
	fn, err := Provider(m)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(batch))
	for i, v := range batch {
		out[i] = fn(query, v)
	}
	return out, nil
}
