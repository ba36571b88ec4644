package tree

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearcher_Search(t *testing.T) {
	const dims = 2
	rng := rand.New(rand.NewPCG(77, 7))
	tr := NewL2[int](dims, WithBucketCapacity(8))
	b := &bruteForce{}
	for i := 0; i < 3000; i++ {
		p := randomPoint(rng, dims)
		tr.InsertDeferred(p, i)
		b.add(p)
	}
	tr.ResolvePendingSplits()

	searcher := tr.NewSearcher()
	for j := 0; j < 200; j++ {
		q := randomPoint(rng, dims)
		radius := 0.001
		expected := b.ball(q, radius)
		expected = expected[:min(3, len(expected))]
		requireSameNeighbors(t, expected, searcher.Search(q, radius, 3))
		requireSameNeighbors(t, b.knn(q, 3), searcher.Search(q, 1e9, 3))
	}
	assert.Empty(t, searcher.Search([]float64{0.5, 0.5}, 1, 0))
	assert.Empty(t, searcher.Search([]float64{0.5, 0.5}, -1, 3))
}

func TestSearcher_ReusesBuffers(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tr := NewL2[int](3)
	for i := 0; i < 5000; i++ {
		tr.Insert(randomPoint(rng, 3), i)
	}
	searcher := tr.NewSearcher()
	q := []float64{0.5, 0.5, 0.5}
	require.Len(t, searcher.Search(q, 1e9, 10), 10)

	allocs := testing.AllocsPerRun(100, func() {
		searcher.Search(q, 1e9, 10)
	})
	assert.Zero(t, allocs)
}

func BenchmarkTree_SearchKnn(b *testing.B) {
	rng := rand.New(rand.NewPCG(1234567, 0))
	tr := NewL2[int](2, WithBucketCapacity(8))
	for i := 0; i < 400_000; i++ {
		tr.InsertDeferred(randomPoint(rng, 2), i)
	}
	tr.ResolvePendingSplits()
	queries := make([][]float64, 1024)
	for i := range queries {
		queries[i] = randomPoint(rng, 2)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.SearchKnn(queries[i%len(queries)], 3)
	}
}

func BenchmarkSearcher_Search(b *testing.B) {
	rng := rand.New(rand.NewPCG(1234567, 0))
	tr := NewL2[int](2, WithBucketCapacity(8))
	for i := 0; i < 400_000; i++ {
		tr.InsertDeferred(randomPoint(rng, 2), i)
	}
	tr.ResolvePendingSplits()
	queries := make([][]float64, 1024)
	for i := range queries {
		queries[i] = randomPoint(rng, 2)
	}
	searcher := tr.NewSearcher()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		searcher.Search(queries[i%len(queries)], 1e300, 3)
	}
}
