package tree

import "math"

const unsplit = -1

// node is either a leaf bucket (splitDim == unsplit) or an internal split.
// Children are handles into the tree's node arena.
type node[S Scalar, P any] struct {
	count      int
	lo, hi     []S
	splitDim   int
	splitValue S
	left       int
	right      int
	entries    []Entry[S, P]
}

func newNode[S Scalar, P any](dims, capacity int, storage []Entry[S, P]) node[S, P] {
	lo := make([]S, dims)
	hi := make([]S, dims)
	for i := range lo {
		lo[i] = S(math.Inf(1))
		hi[i] = S(math.Inf(-1))
	}
	if cap(storage) < capacity {
		storage = make([]Entry[S, P], 0, capacity)
	}
	return node[S, P]{lo: lo, hi: hi, splitDim: unsplit, entries: storage[:0]}
}

func (n *node[S, P]) isLeaf() bool { return n.splitDim == unsplit }

// expand grows the bounds to cover point and counts it in this subtree.
func (n *node[S, P]) expand(point []S) {
	for i, v := range point {
		if v < n.lo[i] {
			n.lo[i] = v
		}
		if v > n.hi[i] {
			n.hi[i] = v
		}
	}
	n.count++
}

func (n *node[S, P]) add(entry Entry[S, P]) {
	n.entries = append(n.entries, entry)
	n.expand(entry.Point)
}

// widestDimension returns the first dimension with the largest extent, or
// false when every dimension has zero width.
func (n *node[S, P]) widestDimension() (int, bool) {
	dim := unsplit
	var width S
	for i := range n.lo {
		if w := n.hi[i] - n.lo[i]; w > width {
			dim, width = i, w
		}
	}
	return dim, dim != unsplit
}

// child returns the handle of the child point routes to.
func (n *node[S, P]) child(point []S) int {
	if point[n.splitDim] < n.splitValue {
		return n.left
	}
	return n.right
}
