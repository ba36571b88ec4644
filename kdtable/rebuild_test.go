package kdtable

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kdtree/engine"
)

func TestUsingArgs(t *testing.T) {
	testCases := []struct {
		description string
		ddl         string
		expect      []string
		expectErr   bool
	}{
		{description: "column and options", ddl: `CREATE VIRTUAL TABLE places USING kdtree(place, index=kd, bucket=4)`, expect: []string{"place", " index=kd", " bucket=4"}},
		{description: "lower case multi line", ddl: "create virtual table places\n  using KDTREE (\n metric=l2\n)", expect: []string{"\n metric=l2\n"}},
		{description: "no args", ddl: `CREATE VIRTUAL TABLE places USING kdtree`},
		{description: "other module", ddl: `CREATE VIRTUAL TABLE docs USING fts5(body)`, expectErr: true},
		{description: "plain table", ddl: `CREATE TABLE places(id TEXT)`, expectErr: true},
	}
	for _, testCase := range testCases {
		actual, err := usingArgs(testCase.ddl)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
	_, opts := parseModuleArgs([]string{"place", " index=kd", " bucket=4"})
	assert.Equal(t, tableOptions{kind: indexKD, bucket: 4, metric: "l2sq"}, opts)
}

func TestRebuild(t *testing.T) {
	db := openTable(t, "rebuilt", `CREATE VIRTUAL TABLE rebuilt USING kdtree(place, index=kd, bucket=4)`)
	for i := 0; i < 12; i++ {
		insertPoint(t, db, "rebuilt", "grid", string(rune('a'+i)), float64(i%4), float64(i/4))
	}
	insertPoint(t, db, "rebuilt", "solo", "x", 1, 2, 3)

	ctx := context.Background()
	datasets, err := Rebuild(ctx, db, "main._kd_rebuilt")
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	grid := datasets[0]
	assert.Equal(t, "grid", grid.Dataset)
	assert.Equal(t, indexKD, grid.Kind)
	assert.Equal(t, 12, grid.Points)
	assert.Equal(t, 2, grid.Dims)
	assert.Equal(t, 12, grid.Tree.Size)
	assert.Greater(t, grid.Tree.Leaves, 1)
	assert.LessOrEqual(t, grid.Tree.MaxBucket, 4, "bucket comes from the table declaration")

	solo := datasets[1]
	assert.Equal(t, "solo", solo.Dataset)
	assert.Equal(t, 3, solo.Dims)
	assert.Equal(t, 1, solo.Tree.Nodes)

	// The rebuilt index is what the next MATCH reads.
	path, err := resolveDbPath(ctx, db, "main")
	require.NoError(t, err)
	cache, err := indexCache()
	require.NoError(t, err)
	entry, ok := cache.Get(cacheKey(path, "rebuilt", "grid"))
	require.True(t, ok)
	assert.Equal(t, 12, entry.index.Len())
	assert.Len(t, entry.rowids, 12)

	insertPoint(t, db, "rebuilt", "grid", "z", 9, 9)
	_, ok = cache.Get(cacheKey(path, "rebuilt", "grid"))
	assert.False(t, ok, "shadow writes retire the rebuilt index")
}

func TestRebuild_BruteForce(t *testing.T) {
	db := openTable(t, "scanned", `CREATE VIRTUAL TABLE scanned USING kdtree(place, index=brute)`)
	insertPoint(t, db, "scanned", "d", "p1", 3, 4)

	datasets, err := Rebuild(context.Background(), db, "_kd_scanned")
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, DatasetStats{Dataset: "d", Kind: indexBrute, Points: 1, Dims: 2}, datasets[0])
}

func TestRebuild_Errors(t *testing.T) {
	db, err := engine.Open(filepath.Join(t.TempDir(), "errors.sqlite"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE plain(id TEXT)`)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = Rebuild(ctx, db, "plain")
	assert.EqualError(t, err, `kdtree: "plain" is not a kdtree shadow table`)
	_, err = Rebuild(ctx, db, "main._kd_")
	assert.Error(t, err)
	_, err = Rebuild(ctx, db, "main._kd_missing")
	assert.EqualError(t, err, "kdtree: virtual table missing not found")
	_, err = Rebuild(ctx, db, "_kd_plain")
	assert.Error(t, err)
}
