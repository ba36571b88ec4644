package index

import "errors"

// ErrDimensionMismatch is wrapped by index errors caused by points whose
// length differs from the index dimensionality.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Index defines a spatial index over (id, point) pairs answering nearest
// neighbour and radius queries. Distances are in the units of the index
// metric, which is squared Euclidean unless configured otherwise.
type Index interface {
	// Build replaces the index content with the given ids and points.
	// ids and points must have the same length and all points the same
	// dimensionality.
	Build(ids []string, points [][]float64) error

	// Query returns up to k ids nearest to point together with their
	// distances, ascending. When k <= 0 every indexed id is returned.
	Query(point []float64, k int) (ids []string, distances []float64, err error)

	// QueryBall returns the ids within radius of point, ascending by
	// distance, capped at k results when k > 0.
	QueryBall(point []float64, radius float64, k int) (ids []string, distances []float64, err error)

	// Len returns the number of indexed points.
	Len() int
}
