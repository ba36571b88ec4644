package tree

import "cmp"

// Neighbor is a query result.
type Neighbor[S Scalar, P any] struct {
	Distance S
	Payload  P
}

func compareNeighbors[S Scalar, P any](a, b Neighbor[S, P]) int {
	return cmp.Compare(a.Distance, b.Distance)
}

// neighbors is a max-heap on distance holding the best candidates found so
// far; items[0] is the worst of them. It avoids container/heap so pushes do
// not box values.
type neighbors[S Scalar, P any] struct {
	items []Neighbor[S, P]
}

func (h *neighbors[S, P]) reset() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *neighbors[S, P]) len() int { return len(h.items) }

func (h *neighbors[S, P]) worst() S { return h.items[0].Distance }

func (h *neighbors[S, P]) push(item Neighbor[S, P]) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// replaceWorst swaps the current worst candidate for item.
func (h *neighbors[S, P]) replaceWorst(item Neighbor[S, P]) {
	h.items[0] = item
	h.siftDown(0, len(h.items))
}

// sort orders the heap ascending by distance in place and returns it. The
// heap invariant no longer holds afterwards.
func (h *neighbors[S, P]) sort() []Neighbor[S, P] {
	for end := len(h.items) - 1; end > 0; end-- {
		h.items[0], h.items[end] = h.items[end], h.items[0]
		h.siftDown(0, end)
	}
	return h.items
}

func (h *neighbors[S, P]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent].Distance >= h.items[i].Distance {
			return
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

func (h *neighbors[S, P]) siftDown(i, n int) {
	for {
		largest := i
		if l := 2*i + 1; l < n && h.items[l].Distance > h.items[largest].Distance {
			largest = l
		}
		if r := 2*i + 2; r < n && h.items[r].Distance > h.items[largest].Distance {
			largest = r
		}
		if largest == i {
			return
		}
		h.items[i], h.items[largest] = h.items[largest], h.items[i]
		i = largest
	}
}
