package tree

// Searcher runs repeated capacity-limited ball queries against one tree,
// reusing its traversal stack and candidate storage between calls. It must
// not be used while the tree is being modified, and a Searcher is not safe
// for concurrent use; create one per goroutine instead.
type Searcher[S Scalar, P any, M Metric[S]] struct {
	tree    *Tree[S, P, M]
	scratch scratch[S, P]
}

// NewSearcher returns a reusable query context bound to t.
func (t *Tree[S, P, M]) NewSearcher() *Searcher[S, P, M] {
	return &Searcher[S, P, M]{tree: t, scratch: newScratch[S, P](t.dims, t.bucketCapacity)}
}

// Search returns at most k entries within maxRadius of point, nearest first.
// The returned slice is owned by the searcher and is overwritten by the next
// call.
func (s *Searcher[S, P, M]) Search(point []S, maxRadius S, k int) []Neighbor[S, P] {
	s.tree.checkDims(point)
	return s.tree.limitedBall(point, maxRadius, k, &s.scratch)
}
