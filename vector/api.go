package vector

import (
	"context"
)

// Point is a located record stored in the point store.
type Point struct {
	// ID is the logical identifier of the point.
	ID string

	// Payload is an opaque value carried with the point, typically JSON.
	Payload string

	// Coordinates locate the point; all points in a store share the same
	// dimensionality.
	Coordinates []float64
}

// Neighbor is a point returned by a spatial query together with its squared
// Euclidean distance to the query location.
type Neighbor struct {
	Point
	Distance float64
}

// Store defines the application-level point store API.
type Store interface {
	// AddPoints inserts or replaces points and returns their IDs.
	AddPoints(ctx context.Context, points []Point) ([]string, error)

	// Nearest returns up to k points closest to query, ascending by distance.
	Nearest(ctx context.Context, query []float64, k int) ([]Neighbor, error)

	// Within returns the points whose distance to query does not exceed
	// radius, ascending by distance, at most k of them when k > 0.
	Within(ctx context.Context, query []float64, radius float64, k int) ([]Neighbor, error)

	// Remove deletes the point with the given ID.
	Remove(ctx context.Context, id string) error
}
