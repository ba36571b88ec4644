package kd

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

// Index is a k-d tree backed spatial index. Queries may run concurrently;
// Build and Insert take an exclusive lock.
type Index struct {
	mu   sync.RWMutex
	ids  []string
	tree backend
	opts options
}

// New returns an empty index.
func New(opts ...Option) *Index {
	return &Index{opts: newOptions(opts)}
}

// Build replaces the index content. Points are loaded with deferred splits
// and split in bulk afterwards, which balances the tree better than
// splitting while inserting.
func (i *Index) Build(ids []string, points [][]float64) error {
	if len(ids) != len(points) {
		return fmt.Errorf("kd: ids and points length mismatch: %d != %d", len(ids), len(points))
	}
	var t backend
	if len(points) > 0 {
		dim := len(points[0])
		if dim == 0 {
			return fmt.Errorf("kd: points must have at least one dimension")
		}
		for j := range points {
			if len(points[j]) != dim {
				return fmt.Errorf("kd: inconsistent point dims %d vs %d: %w", len(points[j]), dim, index.ErrDimensionMismatch)
			}
		}
		started := time.Now()
		t = newBackend(dim, i.opts)
		for j, p := range points {
			t.InsertDeferred(p, j)
		}
		t.ResolvePendingSplits()
		stats := t.Stats()
		i.opts.logger.Info("kd index built",
			"points", stats.Size,
			"dims", dim,
			"nodes", stats.Nodes,
			"depth", stats.Depth,
			"max_bucket", stats.MaxBucket,
			"elapsed", time.Since(started),
		)
	}
	ids = append([]string(nil), ids...)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.ids, i.tree = ids, t
	return nil
}

// Insert adds a single point, splitting its leaf as needed. The first insert
// into an empty index fixes its dimensionality.
func (i *Index) Insert(id string, point []float64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tree == nil {
		if len(point) == 0 {
			return fmt.Errorf("kd: points must have at least one dimension")
		}
		i.tree = newBackend(len(point), i.opts)
	}
	if err := i.checkDims(point); err != nil {
		return err
	}
	i.tree.Insert(point, len(i.ids))
	i.ids = append(i.ids, id)
	return nil
}

// Len returns the number of indexed points.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.ids)
}

// Stats reports the shape of the underlying tree.
func (i *Index) Stats() tree.Stats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.tree == nil {
		return tree.Stats{}
	}
	return i.tree.Stats()
}

func (i *Index) checkDims(point []float64) error {
	if dim := i.tree.Dims(); len(point) != dim {
		return fmt.Errorf("kd: query dim %d != index dim %d: %w", len(point), dim, index.ErrDimensionMismatch)
	}
	return nil
}

func (i *Index) collect(neighbors []neighbor) ([]string, []float64) {
	if len(neighbors) == 0 {
		return nil, nil
	}
	ids := make([]string, len(neighbors))
	distances := make([]float64, len(neighbors))
	for n, nb := range neighbors {
		ids[n] = i.ids[nb.Payload]
		distances[n] = nb.Distance
	}
	return ids, distances
}

// Query returns up to k nearest ids ascending by distance; k <= 0 returns all.
func (i *Index) Query(point []float64, k int) ([]string, []float64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.tree == nil {
		return nil, nil, nil
	}
	if err := i.checkDims(point); err != nil {
		return nil, nil, err
	}
	if k <= 0 {
		k = i.tree.Size()
	}
	ids, distances := i.collect(i.tree.SearchKnn(point, k))
	return ids, distances, nil
}

// QueryBall returns ids within radius of point ascending by distance, at
// most k of them when k > 0.
func (i *Index) QueryBall(point []float64, radius float64, k int) ([]string, []float64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.tree == nil {
		return nil, nil, nil
	}
	if err := i.checkDims(point); err != nil {
		return nil, nil, err
	}
	if k <= 0 {
		ids, distances := i.collect(i.tree.SearchBall(point, radius))
		return ids, distances, nil
	}
	ids, distances := i.collect(i.tree.SearchCapacityLimitedBall(point, radius, k))
	return ids, distances, nil
}

// QueryBatch runs a capacity-limited ball query for every point in parallel.
// Pass math.Inf(1) as radius for plain k-nearest queries; k <= 0 means no
// count limit. Results are positionally aligned with points.
func (i *Index) QueryBatch(ctx context.Context, points [][]float64, radius float64, k int) ([][]string, [][]float64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := make([][]string, len(points))
	distances := make([][]float64, len(points))
	if i.tree == nil || len(points) == 0 {
		return ids, distances, nil
	}
	for _, p := range points {
		if err := i.checkDims(p); err != nil {
			return nil, nil, err
		}
	}
	if k <= 0 {
		k = i.tree.Size()
	}
	if math.IsNaN(radius) {
		return nil, nil, fmt.Errorf("kd: radius is NaN")
	}

	workers := min(i.opts.parallelism, len(points))
	chunk := (len(points) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(points); start += chunk {
		end := min(start+chunk, len(points))
		g.Go(func() error {
			s := i.tree.searcher()
			for j := start; j < end; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				ids[j], distances[j] = i.collect(s.Search(points[j], radius, k))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return ids, distances, nil
}

var _ index.Index = (*Index)(nil)
