package tree

import (
	"fmt"
	"log/slog"
	"slices"
)

// Tree is a dynamic k-d tree over points of a fixed dimensionality. Nodes live
// in an arena addressed by integer handle, the root being handle 0. M is the
// distance metric; distance calls on the hot path are resolved at compile time.
type Tree[S Scalar, P any, M Metric[S]] struct {
	nodes          []node[S, P]
	dims           int
	bucketCapacity int
	metric         M
	pending        []int
	pendingSet     map[int]struct{}
	recycled       []Entry[S, P]
	logger         *slog.Logger
}

// New constructs an empty tree for points with dims coordinates.
func New[S Scalar, P any, M Metric[S]](dims int, opts ...Option) *Tree[S, P, M] {
	if dims < 1 {
		panic(fmt.Sprintf("tree: dimensions must be positive, got %d", dims))
	}
	o := newOptions(opts)
	t := &Tree[S, P, M]{
		dims:           dims,
		bucketCapacity: o.bucketCapacity,
		pendingSet:     make(map[int]struct{}),
		logger:         o.logger,
	}
	t.nodes = append(t.nodes, newNode[S, P](dims, o.bucketCapacity, nil))
	return t
}

// NewL2 constructs a float64 tree using the squared Euclidean metric.
func NewL2[P any](dims int, opts ...Option) *Tree[float64, P, SquaredL2[float64]] {
	return New[float64, P, SquaredL2[float64]](dims, opts...)
}

// Size returns the number of inserted entries.
func (t *Tree[S, P, M]) Size() int { return t.nodes[0].count }

// Dims returns the dimensionality of the tree.
func (t *Tree[S, P, M]) Dims() int { return t.dims }

// BucketCapacity returns the configured leaf capacity.
func (t *Tree[S, P, M]) BucketCapacity() int { return t.bucketCapacity }

// Insert adds a point and splits its leaf immediately when it fills up.
func (t *Tree[S, P, M]) Insert(point []S, payload P) {
	t.insert(point, payload, true)
}

// InsertDeferred adds a point without splitting. Full leaves are remembered
// and split by ResolvePendingSplits, which yields a better balanced tree when
// many points are loaded before querying.
func (t *Tree[S, P, M]) InsertDeferred(point []S, payload P) {
	t.insert(point, payload, false)
}

func (t *Tree[S, P, M]) insert(point []S, payload P, autosplit bool) {
	t.checkDims(point)
	entry := Entry[S, P]{Point: slices.Clone(point), Payload: payload}
	h := 0
	for !t.nodes[h].isLeaf() {
		n := &t.nodes[h]
		n.expand(entry.Point)
		h = n.child(entry.Point)
	}
	leaf := &t.nodes[h]
	leaf.add(entry)
	if !t.shouldSplit(leaf) || leaf.count%t.bucketCapacity != 0 {
		return
	}
	if autosplit {
		t.split(h)
		return
	}
	if _, ok := t.pendingSet[h]; !ok {
		t.pendingSet[h] = struct{}{}
		t.pending = append(t.pending, h)
	}
}

func (t *Tree[S, P, M]) shouldSplit(n *node[S, P]) bool {
	return n.count >= t.bucketCapacity
}

// split turns leaf h into an internal node with two leaf children divided at
// the midpoint of its widest dimension. It reports false and leaves h an
// unchanged leaf when the points cannot be separated.
func (t *Tree[S, P, M]) split(h int) bool {
	dim, ok := t.nodes[h].widestDimension()
	if !ok {
		return false
	}
	value := (t.nodes[h].lo[dim] + t.nodes[h].hi[dim]) / 2

	left, right := len(t.nodes), len(t.nodes)+1
	t.nodes = append(t.nodes,
		newNode[S, P](t.dims, t.bucketCapacity, t.takeRecycled()),
		newNode[S, P](t.dims, t.bucketCapacity, nil),
	)
	n := &t.nodes[h]
	for _, entry := range n.entries {
		if entry.Point[dim] < value {
			t.nodes[left].add(entry)
		} else {
			t.nodes[right].add(entry)
		}
	}

	if t.nodes[left].count == 0 || t.nodes[right].count == 0 {
		storage := t.nodes[left].entries
		if cap(t.nodes[right].entries) > cap(storage) {
			storage = t.nodes[right].entries
		}
		t.recycle(storage)
		clear(t.nodes[left:])
		t.nodes = t.nodes[:left]
		return false
	}

	n.splitDim, n.splitValue = dim, value
	n.left, n.right = left, right
	t.recycle(n.entries)
	n.entries = nil
	return true
}

// recycle keeps one emptied entry buffer for the next split.
func (t *Tree[S, P, M]) recycle(storage []Entry[S, P]) {
	clear(storage)
	t.recycled = storage[:0]
}

func (t *Tree[S, P, M]) takeRecycled() []Entry[S, P] {
	storage := t.recycled
	t.recycled = nil
	return storage
}

// ResolvePendingSplits splits every leaf that filled up during deferred
// insertion, then keeps splitting the resulting children until all leaves are
// under capacity or cannot be divided.
func (t *Tree[S, P, M]) ResolvePendingSplits() {
	if len(t.pending) == 0 {
		return
	}
	var splits, failed int
	stack := make([]int, 0, 32)
	for _, h := range t.pending {
		stack = append(stack[:0], h)
		for len(stack) > 0 {
			h := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := &t.nodes[h]
			if !n.isLeaf() || !t.shouldSplit(n) {
				continue
			}
			if !t.split(h) {
				failed++
				continue
			}
			splits++
			n = &t.nodes[h]
			stack = append(stack, n.left, n.right)
		}
	}
	t.logger.Debug("resolved pending splits",
		"pending", len(t.pending),
		"splits", splits,
		"failed", failed,
		"nodes", len(t.nodes),
		"size", t.Size(),
	)
	t.pending = t.pending[:0]
	clear(t.pendingSet)
}

// Pending returns the number of leaves waiting for ResolvePendingSplits.
func (t *Tree[S, P, M]) Pending() int { return len(t.pending) }

func (t *Tree[S, P, M]) checkDims(point []S) {
	if len(point) != t.dims {
		panic(fmt.Sprintf("tree: point has %d dimensions, tree expects %d", len(point), t.dims))
	}
}

// boxDistance is the metric applied to point and its projection onto the
// bounds of n; it never exceeds the distance to any point inside n.
func (t *Tree[S, P, M]) boxDistance(point []S, n *node[S, P], clamped []S) S {
	for i, v := range point {
		switch {
		case v < n.lo[i]:
			clamped[i] = n.lo[i]
		case v > n.hi[i]:
			clamped[i] = n.hi[i]
		default:
			clamped[i] = v
		}
	}
	return t.metric.Distance(point, clamped)
}
