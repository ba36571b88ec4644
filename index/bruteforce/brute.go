package bruteforce

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

// Index is a brute-force spatial index.
type Index struct {
	ids      []string
	points   [][]float64
	dim      int
	distance func(a, b []float64) float64

	// Euclidean indices score float32 copies of the points, matching the k-d
	// tree index bit for bit.
	euclidean bool
	points32  [][]float32
}

// New returns an empty index using the named metric; unknown names fall back
// to squared Euclidean.
func New(metric tree.DistanceFunction) *Index {
	i := &Index{distance: tree.SquaredL2[float64]{}.Distance}
	switch metric {
	case tree.DistanceFunctionL1:
		i.distance = tree.L1[float64]{}.Distance
	case tree.DistanceFunctionEuclidean:
		i.euclidean = true
	}
	return i
}

func toFloat32(point []float64) []float32 {
	out := make([]float32, len(point))
	for i, v := range point {
		out[i] = float32(v)
	}
	return out
}

// Build loads ids and points.
func (i *Index) Build(ids []string, points [][]float64) error {
	if len(ids) != len(points) {
		return fmt.Errorf("bruteforce: ids and points length mismatch: %d != %d", len(ids), len(points))
	}
	if i.distance == nil {
		i.distance = tree.SquaredL2[float64]{}.Distance
	}
	if len(ids) == 0 {
		i.ids, i.points, i.points32, i.dim = nil, nil, nil, 0
		return nil
	}
	dim := len(points[0])
	for j := range points {
		if len(points[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent point dims %d vs %d: %w", len(points[j]), dim, index.ErrDimensionMismatch)
		}
	}
	i.ids = slices.Clone(ids)
	i.points = slices.Clone(points)
	i.dim = dim
	i.points32 = nil
	if i.euclidean {
		i.points32 = make([][]float32, len(points))
		for j, p := range points {
			i.points32[j] = toFloat32(p)
		}
	}
	return nil
}

// Len returns the number of indexed points.
func (i *Index) Len() int { return len(i.ids) }

type scored struct {
	idx      int
	distance float64
}

func (i *Index) scan(point []float64, radius float64, bounded bool) ([]scored, error) {
	if len(i.points) == 0 {
		return nil, nil
	}
	if len(point) != i.dim {
		return nil, fmt.Errorf("bruteforce: query dim %d != index dim %d: %w", len(point), i.dim, index.ErrDimensionMismatch)
	}
	var query32 []float32
	if i.euclidean {
		query32 = toFloat32(point)
	}
	out := make([]scored, 0, len(i.points))
	for j := range i.points {
		var d float64
		if i.euclidean {
			d = float64(tree.Euclidean32{}.Distance(query32, i.points32[j]))
		} else {
			d = i.distance(point, i.points[j])
		}
		if bounded && d > radius {
			continue
		}
		out = append(out, scored{idx: j, distance: d})
	}
	slices.SortStableFunc(out, func(a, b scored) int { return cmp.Compare(a.distance, b.distance) })
	return out, nil
}

func (i *Index) collect(candidates []scored, k int) ([]string, []float64) {
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}
	ids := make([]string, k)
	distances := make([]float64, k)
	for n := 0; n < k; n++ {
		ids[n] = i.ids[candidates[n].idx]
		distances[n] = candidates[n].distance
	}
	return ids, distances
}

// Query returns the k nearest ids ascending by distance.
func (i *Index) Query(point []float64, k int) ([]string, []float64, error) {
	candidates, err := i.scan(point, 0, false)
	if err != nil || len(candidates) == 0 {
		return nil, nil, err
	}
	ids, distances := i.collect(candidates, k)
	return ids, distances, nil
}

// QueryBall returns ids within radius ascending by distance.
func (i *Index) QueryBall(point []float64, radius float64, k int) ([]string, []float64, error) {
	if radius < 0 {
		return nil, nil, nil
	}
	candidates, err := i.scan(point, radius, true)
	if err != nil || len(candidates) == 0 {
		return nil, nil, err
	}
	ids, distances := i.collect(candidates, k)
	return ids, distances, nil
}

var _ index.Index = (*Index)(nil)
