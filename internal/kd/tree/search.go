package tree

import (
	"math"
	"slices"
)

// scratch holds the per-query working memory: the traversal stack, the
// projection buffer used for box distances and the candidate heap.
type scratch[S Scalar, P any] struct {
	stack   []int
	clamped []S
	heap    neighbors[S, P]
}

func newScratch[S Scalar, P any](dims, k int) scratch[S, P] {
	return scratch[S, P]{
		stack:   make([]int, 0, 32),
		clamped: make([]S, dims),
		heap:    neighbors[S, P]{items: make([]Neighbor[S, P], 0, max(k, 0))},
	}
}

func (s *scratch[S, P]) reset() {
	s.stack = append(s.stack[:0], 0)
	s.heap.reset()
}

func (s *scratch[S, P]) pop() int {
	h := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return h
}

// pushChildren stacks the far child first so the side containing the query
// point is visited first.
func (s *scratch[S, P]) pushChildren(point []S, n *node[S, P]) {
	if point[n.splitDim] < n.splitValue {
		s.stack = append(s.stack, n.right, n.left)
		return
	}
	s.stack = append(s.stack, n.left, n.right)
}

// SearchKnn returns the k entries nearest to point, ascending by distance.
// Fewer are returned when the tree holds fewer than k entries.
func (t *Tree[S, P, M]) SearchKnn(point []S, k int) []Neighbor[S, P] {
	t.checkDims(point)
	k = min(k, t.Size())
	if k <= 0 {
		return nil
	}
	s := newScratch[S, P](t.dims, k)
	t.knn(point, k, &s)
	return s.heap.sort()
}

func (t *Tree[S, P, M]) knn(point []S, k int, s *scratch[S, P]) {
	s.reset()
	for len(s.stack) > 0 {
		n := &t.nodes[s.pop()]
		if s.heap.len() == k && t.boxDistance(point, n, s.clamped) >= s.heap.worst() {
			continue
		}
		if !n.isLeaf() {
			s.pushChildren(point, n)
			continue
		}
		i := 0
		for fill := k - s.heap.len(); i < fill && i < len(n.entries); i++ {
			e := &n.entries[i]
			s.heap.push(Neighbor[S, P]{Distance: t.metric.Distance(point, e.Point), Payload: e.Payload})
		}
		for ; i < len(n.entries); i++ {
			e := &n.entries[i]
			if d := t.metric.Distance(point, e.Point); d < s.heap.worst() {
				s.heap.replaceWorst(Neighbor[S, P]{Distance: d, Payload: e.Payload})
			}
		}
	}
}

// Search returns the entry nearest to point. On an empty tree it returns a
// neighbor with infinite distance and false.
func (t *Tree[S, P, M]) Search(point []S) (Neighbor[S, P], bool) {
	t.checkDims(point)
	best := Neighbor[S, P]{Distance: S(math.Inf(1))}
	if t.Size() == 0 {
		return best, false
	}
	found := false
	stack := make([]int, 1, 32)
	clamped := make([]S, t.dims)
	for len(stack) > 0 {
		n := &t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if found && t.boxDistance(point, n, clamped) >= best.Distance {
			continue
		}
		if !n.isLeaf() {
			if point[n.splitDim] < n.splitValue {
				stack = append(stack, n.right, n.left)
			} else {
				stack = append(stack, n.left, n.right)
			}
			continue
		}
		for i := range n.entries {
			e := &n.entries[i]
			if d := t.metric.Distance(point, e.Point); !found || d < best.Distance {
				best = Neighbor[S, P]{Distance: d, Payload: e.Payload}
				found = true
			}
		}
	}
	return best, found
}

// SearchBall returns every entry within radius of point, ascending by
// distance. The radius is in the units of the metric, so it is a squared
// distance for SquaredL2.
func (t *Tree[S, P, M]) SearchBall(point []S, radius S) []Neighbor[S, P] {
	t.checkDims(point)
	if t.Size() == 0 || radius < 0 {
		return nil
	}
	s := newScratch[S, P](t.dims, 0)
	s.reset()
	for len(s.stack) > 0 {
		n := &t.nodes[s.pop()]
		if t.boxDistance(point, n, s.clamped) > radius {
			continue
		}
		if !n.isLeaf() {
			s.pushChildren(point, n)
			continue
		}
		for i := range n.entries {
			e := &n.entries[i]
			if d := t.metric.Distance(point, e.Point); d <= radius {
				s.heap.items = append(s.heap.items, Neighbor[S, P]{Distance: d, Payload: e.Payload})
			}
		}
	}
	slices.SortFunc(s.heap.items, compareNeighbors[S, P])
	return s.heap.items
}

// SearchCapacityLimitedBall returns at most k entries within radius of
// point, nearest first. It prunes against both the radius and the current
// k-th best distance.
func (t *Tree[S, P, M]) SearchCapacityLimitedBall(point []S, radius S, k int) []Neighbor[S, P] {
	t.checkDims(point)
	s := newScratch[S, P](t.dims, min(k, t.Size()))
	return t.limitedBall(point, radius, k, &s)
}

func (t *Tree[S, P, M]) limitedBall(point []S, radius S, k int, s *scratch[S, P]) []Neighbor[S, P] {
	s.reset()
	k = min(k, t.Size())
	if k <= 0 || radius < 0 {
		return s.heap.items
	}
	for len(s.stack) > 0 {
		n := &t.nodes[s.pop()]
		bound := t.boxDistance(point, n, s.clamped)
		if bound > radius || (s.heap.len() == k && bound >= s.heap.worst()) {
			continue
		}
		if !n.isLeaf() {
			s.pushChildren(point, n)
			continue
		}
		for i := range n.entries {
			e := &n.entries[i]
			d := t.metric.Distance(point, e.Point)
			switch {
			case d > radius:
			case s.heap.len() < k:
				s.heap.push(Neighbor[S, P]{Distance: d, Payload: e.Payload})
			case d < s.heap.worst():
				s.heap.replaceWorst(Neighbor[S, P]{Distance: d, Payload: e.Payload})
			}
		}
	}
	return s.heap.sort()
}
