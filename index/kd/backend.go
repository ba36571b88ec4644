package kd

import (
	"math"

	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

type neighbor = tree.Neighbor[float64, int]

type searcher interface {
	Search(point []float64, maxRadius float64, k int) []neighbor
}

// backend erases the metric type parameter of the tree.
type backend interface {
	Insert(point []float64, payload int)
	InsertDeferred(point []float64, payload int)
	ResolvePendingSplits()
	Size() int
	Dims() int
	Stats() tree.Stats
	SearchKnn(point []float64, k int) []neighbor
	SearchBall(point []float64, radius float64) []neighbor
	SearchCapacityLimitedBall(point []float64, radius float64, k int) []neighbor
	searcher() searcher
}

type treeBackend[M tree.Metric[float64]] struct {
	*tree.Tree[float64, int, M]
}

func (b treeBackend[M]) searcher() searcher { return b.NewSearcher() }

func newBackend(dims int, o options) backend {
	opts := []tree.Option{tree.WithBucketCapacity(o.bucketCapacity), tree.WithLogger(o.logger)}
	switch o.metric {
	case tree.DistanceFunctionL1:
		return treeBackend[tree.L1[float64]]{tree.New[float64, int, tree.L1[float64]](dims, opts...)}
	case tree.DistanceFunctionEuclidean:
		return euclideanBackend{tree.New[float32, int, tree.Euclidean32](dims, opts...)}
	}
	return treeBackend[tree.SquaredL2[float64]]{tree.New[float64, int, tree.SquaredL2[float64]](dims, opts...)}
}

// euclideanBackend stores float32 coordinates and reports true Euclidean
// distances.
type euclideanBackend struct {
	tree *tree.Tree[float32, int, tree.Euclidean32]
}

func (b euclideanBackend) Insert(point []float64, payload int) {
	b.tree.Insert(toFloat32(point, nil), payload)
}

func (b euclideanBackend) InsertDeferred(point []float64, payload int) {
	b.tree.InsertDeferred(toFloat32(point, nil), payload)
}

func (b euclideanBackend) ResolvePendingSplits() { b.tree.ResolvePendingSplits() }
func (b euclideanBackend) Size() int             { return b.tree.Size() }
func (b euclideanBackend) Dims() int             { return b.tree.Dims() }
func (b euclideanBackend) Stats() tree.Stats     { return b.tree.Stats() }

func (b euclideanBackend) SearchKnn(point []float64, k int) []neighbor {
	return toFloat64(b.tree.SearchKnn(toFloat32(point, nil), k), nil)
}

func (b euclideanBackend) SearchBall(point []float64, radius float64) []neighbor {
	return toFloat64(b.tree.SearchBall(toFloat32(point, nil), radius32(radius)), nil)
}

func (b euclideanBackend) SearchCapacityLimitedBall(point []float64, radius float64, k int) []neighbor {
	return toFloat64(b.tree.SearchCapacityLimitedBall(toFloat32(point, nil), radius32(radius), k), nil)
}

func (b euclideanBackend) searcher() searcher {
	return &euclideanSearcher{searcher: b.tree.NewSearcher()}
}

// euclideanSearcher reuses its conversion buffers between calls.
type euclideanSearcher struct {
	searcher *tree.Searcher[float32, int, tree.Euclidean32]
	point    []float32
	out      []neighbor
}

func (s *euclideanSearcher) Search(point []float64, maxRadius float64, k int) []neighbor {
	s.point = toFloat32(point, s.point)
	s.out = toFloat64(s.searcher.Search(s.point, radius32(maxRadius), k), s.out)
	return s.out
}

func toFloat32(point []float64, dst []float32) []float32 {
	dst = dst[:0]
	for _, v := range point {
		dst = append(dst, float32(v))
	}
	return dst
}

func toFloat64(neighbors []tree.Neighbor[float32, int], dst []neighbor) []neighbor {
	dst = dst[:0]
	for _, n := range neighbors {
		dst = append(dst, neighbor{Distance: float64(n.Distance), Payload: n.Payload})
	}
	return dst
}

// radius32 returns the largest float32 not above radius, so a float32
// distance is within it exactly when its float64 value is.
func radius32(radius float64) float32 {
	r := float32(radius)
	if float64(r) > radius {
		r = math.Nextafter32(r, float32(math.Inf(-1)))
	}
	return r
}
