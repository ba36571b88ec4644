package vector

import (
	"fmt"
	"math"
)

// SquaredL2 computes the squared Euclidean distance between two points. It
// returns an error if the points have different dimensionality.
func SquaredL2(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: squared L2 dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum, nil
}

// L2 computes the Euclidean distance between two points.
func L2(a, b []float64) (float64, error) {
	sum, err := SquaredL2(a, b)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sum), nil
}

// L1 computes the Manhattan distance between two points.
func L1(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: L1 dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum, nil
}
