package tree

import (
	"strings"

	"github.com/viant/vec/search"
)

// DistanceFunction names a supported metric for configuration surfaces.
type DistanceFunction string

const (
	DistanceFunctionSquaredL2 DistanceFunction = "l2sq"
	DistanceFunctionL1        DistanceFunction = "l1"
	DistanceFunctionEuclidean DistanceFunction = "l2"
)

// ParseDistanceFunction resolves a metric name, accepting common aliases.
func ParseDistanceFunction(name string) (DistanceFunction, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "l2sq", "sql2", "squared_l2", "squared_euclidean":
		return DistanceFunctionSquaredL2, true
	case "l1", "manhattan", "taxicab":
		return DistanceFunctionL1, true
	case "l2", "euclidean":
		return DistanceFunctionEuclidean, true
	}
	return "", false
}

// Metric computes the distance between two points of equal length.
// Distance must not decrease when any coordinate difference grows, so the
// distance to a point clamped into a box bounds the distance to the box.
type Metric[S Scalar] interface {
	Distance(a, b []S) S
}

// SquaredL2 is the sum of squared coordinate differences. It is returned
// without a square root; callers needing the Euclidean distance take it.
type SquaredL2[S Scalar] struct{}

// Distance implements Metric.
func (SquaredL2[S]) Distance(a, b []S) S {
	b = b[:len(a)]
	var sum S
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L1 is the sum of absolute coordinate differences (Manhattan distance).
type L1[S Scalar] struct{}

// Distance implements Metric.
func (L1[S]) Distance(a, b []S) S {
	b = b[:len(a)]
	var sum S
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// Euclidean32 is the Euclidean distance over float32 coordinates.
type Euclidean32 struct{}

// Distance implements Metric.
func (Euclidean32) Distance(a, b []float32) float32 {
	return search.Float32s(a).EuclideanDistance(b)
}
