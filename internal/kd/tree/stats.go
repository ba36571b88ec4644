package tree

// Stats summarises the shape of a tree.
type Stats struct {
	Size      int
	Nodes     int
	Leaves    int
	Depth     int
	MaxBucket int
	Pending   int
}

// Stats walks the tree and reports its shape. A MaxBucket well above the
// bucket capacity indicates coincident points that could not be split.
func (t *Tree[S, P, M]) Stats() Stats {
	stats := Stats{Size: t.Size(), Nodes: len(t.nodes), Pending: len(t.pending)}
	type item struct{ handle, depth int }
	stack := []item{{handle: 0, depth: 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stats.Depth = max(stats.Depth, it.depth)
		n := &t.nodes[it.handle]
		if n.isLeaf() {
			stats.Leaves++
			stats.MaxBucket = max(stats.MaxBucket, len(n.entries))
			continue
		}
		stack = append(stack, item{n.left, it.depth + 1}, item{n.right, it.depth + 1})
	}
	return stats
}
