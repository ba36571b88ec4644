package tree

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type bruteForce struct {
	points [][]float64
}

func (b *bruteForce) add(p []float64) { b.points = append(b.points, p) }

func (b *bruteForce) sorted(q []float64) []Neighbor[float64, int] {
	var metric SquaredL2[float64]
	out := make([]Neighbor[float64, int], len(b.points))
	for i, p := range b.points {
		out[i] = Neighbor[float64, int]{Distance: metric.Distance(q, p), Payload: i}
	}
	slices.SortStableFunc(out, compareNeighbors[float64, int])
	return out
}

func (b *bruteForce) knn(q []float64, k int) []Neighbor[float64, int] {
	all := b.sorted(q)
	return all[:min(k, len(all))]
}

func (b *bruteForce) ball(q []float64, radius float64) []Neighbor[float64, int] {
	all := b.sorted(q)
	n := 0
	for n < len(all) && all[n].Distance <= radius {
		n++
	}
	return all[:n]
}

func randomPoint(rng *rand.Rand, dims int) []float64 {
	p := make([]float64, dims)
	for i := range p {
		p[i] = rng.Float64()
	}
	return p
}

func requireSameNeighbors(t *testing.T, expected, actual []Neighbor[float64, int]) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		require.InDelta(t, expected[i].Distance, actual[i].Distance, 1e-12, "distance at %d", i)
		require.Equal(t, expected[i].Payload, actual[i].Payload, "payload at %d", i)
	}
}

// checkInvariants verifies counts, bounds and child non-emptiness over the
// whole tree.
func checkInvariants[S Scalar, P any, M Metric[S]](t *testing.T, tr *Tree[S, P, M]) {
	t.Helper()
	var walk func(h int) []Entry[S, P]
	walk = func(h int) []Entry[S, P] {
		n := &tr.nodes[h]
		var entries []Entry[S, P]
		if n.isLeaf() {
			entries = n.entries
		} else {
			require.Positive(t, tr.nodes[n.left].count)
			require.Positive(t, tr.nodes[n.right].count)
			require.Equal(t, n.count, tr.nodes[n.left].count+tr.nodes[n.right].count)
			entries = append(walk(n.left), walk(n.right)...)
		}
		require.Len(t, entries, n.count)
		for _, e := range entries {
			for i, v := range e.Point {
				require.GreaterOrEqual(t, v, n.lo[i])
				require.LessOrEqual(t, v, n.hi[i])
			}
		}
		return entries
	}
	walk(0)
}
