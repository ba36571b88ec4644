package kdtable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modernc.org/sqlite/vtab"
)

func newTestCursor(args ...string) *Cursor {
	m := &Module{}
	return &Cursor{table: m.newTable("main", "goats", parseTableOptions(args))}
}

func TestCursor_Decode(t *testing.T) {
	testCases := []struct {
		description string
		args        []string
		idxNum      int
		vals        []vtab.Value
		expect      query
		expectK     vtab.Value
	}{
		{
			description: "nearest",
			idxNum:      planMatch,
			vals:        []vtab.Value{"farm", "[1,2]"},
			expect:      query{point: []float64{1, 2}},
		},
		{
			description: "inclusive radius",
			idxNum:      planMatch | planRadius,
			vals:        []vtab.Value{"farm", "1,2", 5.0},
			expect:      query{point: []float64{1, 2}, radius: 5, bounded: true},
		},
		{
			description: "euclidean radius is not squared",
			args:        []string{"metric=l2"},
			idxNum:      planMatch | planRadius,
			vals:        []vtab.Value{"farm", "1,2", int64(5)},
			expect:      query{point: []float64{1, 2}, radius: 5, bounded: true},
		},
		{
			description: "strict radius",
			idxNum:      planMatch | planRadius | planStrict,
			vals:        []vtab.Value{"farm", "1,2", "5"},
			expect:      query{point: []float64{1, 2}, radius: math.Nextafter(5, math.Inf(-1)), bounded: true},
		},
		{
			description: "strict zero radius goes negative",
			idxNum:      planMatch | planRadius | planStrict,
			vals:        []vtab.Value{"farm", "1,2", 0.0},
			expect:      query{point: []float64{1, 2}, radius: -math.SmallestNonzeroFloat64, bounded: true},
		},
		{
			description: "k",
			idxNum:      planMatch | planLimit,
			vals:        []vtab.Value{"farm", "1,2", int64(3)},
			expect:      query{point: []float64{1, 2}, k: 3},
			expectK:     int64(3),
		},
		{
			description: "radius then k",
			idxNum:      planMatch | planRadius | planLimit,
			vals:        []vtab.Value{"farm", "1,2", 2.5, "4"},
			expect:      query{point: []float64{1, 2}, radius: 2.5, bounded: true, k: 4},
			expectK:     int64(4),
		},
	}
	for _, testCase := range testCases {
		c := newTestCursor(testCase.args...)
		actual, err := c.decode(testCase.idxNum, testCase.vals)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, *actual, testCase.description)
		assert.Equal(t, testCase.expectK, c.k, testCase.description)
	}
}

func TestCursor_DecodeErrors(t *testing.T) {
	c := newTestCursor()
	_, err := c.decode(planMatch|planRadius, []vtab.Value{"farm", "1,2"})
	assert.EqualError(t, err, "kdtree: missing distance constraint")
	_, err = c.decode(planMatch|planLimit, []vtab.Value{"farm", "1,2"})
	assert.EqualError(t, err, "kdtree: missing k constraint")
	_, err = c.decode(planMatch|planRadius, []vtab.Value{"farm", "1,2", "far"})
	assert.Error(t, err)
	_, err = c.decode(planMatch, []vtab.Value{"farm", int64(1)})
	assert.Error(t, err)
}

func TestCursor_FilterEmptyResults(t *testing.T) {
	testCases := []struct {
		description string
		idxNum      int
		vals        []vtab.Value
	}{
		{description: "k zero", idxNum: planMatch | planLimit, vals: []vtab.Value{"farm", "[1,2]", int64(0)}},
		{description: "negative k", idxNum: planMatch | planLimit, vals: []vtab.Value{"farm", "[1,2]", int64(-2)}},
		{description: "negative radius", idxNum: planMatch | planRadius, vals: []vtab.Value{"farm", "[1,2]", -1.0}},
		{description: "NaN radius", idxNum: planMatch | planRadius, vals: []vtab.Value{"farm", "[1,2]", math.NaN()}},
		{description: "strict zero radius", idxNum: planMatch | planRadius | planStrict, vals: []vtab.Value{"farm", "[1,2]", 0.0}},
	}
	for _, testCase := range testCases {
		// No database: these plans must answer without building an index.
		c := newTestCursor()
		require.NoError(t, c.Filter(testCase.idxNum, "", testCase.vals), testCase.description)
		assert.True(t, c.Eof(), testCase.description)
		assert.True(t, c.matched, testCase.description)
	}
}

func TestCursor_FilterErrors(t *testing.T) {
	c := newTestCursor()
	assert.EqualError(t, c.Filter(planMatch, "", nil), "kdtree: dataset_id argument is required")
	assert.EqualError(t, c.Filter(planRadius, "", []vtab.Value{"farm"}), "kdtree: unsupported query plan")
	assert.EqualError(t, c.Filter(planMatch, "", []vtab.Value{"farm", "[1,2]"}), "kdtree: db is nil")
	assert.EqualError(t, c.Filter(planMatch, "", []vtab.Value{"", "[1,2]"}), "kdtree: dataset_id is required")
}

func TestCursor_Columns(t *testing.T) {
	c := newTestCursor()
	c.rows = []resultRow{{rowid: 7, dataset: "farm", id: "Melvin", distance: 2}}
	c.k = int64(1)

	value, err := c.Column(columnValue)
	require.NoError(t, err)
	assert.Equal(t, "Melvin", value)
	value, err = c.Column(columnDataset)
	require.NoError(t, err)
	assert.Equal(t, "farm", value)
	value, err = c.Column(columnDistance)
	require.NoError(t, err)
	assert.Nil(t, value, "distance is NULL outside MATCH")
	c.matched = true
	value, err = c.Column(columnDistance)
	require.NoError(t, err)
	assert.Equal(t, 2.0, value)
	value, err = c.Column(columnK)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
	rowid, err := c.Rowid()
	require.NoError(t, err)
	assert.Equal(t, int64(7), rowid)

	_, err = c.Column(9)
	assert.Error(t, err)
	require.NoError(t, c.Next())
	assert.True(t, c.Eof())
	_, err = c.Column(columnValue)
	assert.Error(t, err)
}

func TestTable_BestIndex(t *testing.T) {
	table := (&Module{}).newTable("main", "goats", parseTableOptions(nil))

	info := &vtab.IndexInfo{Constraints: []vtab.Constraint{
		{Column: columnK, Op: vtab.OpEQ, Usable: true},
		{Column: columnDistance, Op: vtab.OpLT, Usable: true},
		{Column: columnValue, Op: vtab.OpMATCH, Usable: true},
		{Column: columnDataset, Op: vtab.OpEQ, Usable: true},
	}}
	require.NoError(t, table.BestIndex(info))
	assert.Equal(t, planMatch|planRadius|planStrict|planLimit, info.IdxNum)
	for i, expect := range []int{3, 2, 1, 0} {
		assert.Equal(t, expect, info.Constraints[i].ArgIndex)
		assert.True(t, info.Constraints[i].Omit)
	}

	info = &vtab.IndexInfo{Constraints: []vtab.Constraint{
		{Column: columnDataset, Op: vtab.OpEQ, Usable: true},
		{Column: columnValue, Op: vtab.OpMATCH, Usable: false},
	}}
	require.NoError(t, table.BestIndex(info))
	assert.Equal(t, planDatasetScan, info.IdxNum)

	info = &vtab.IndexInfo{Constraints: []vtab.Constraint{
		{Column: columnValue, Op: vtab.OpMATCH, Usable: true},
	}}
	assert.EqualError(t, table.BestIndex(info), "kdtree: dataset_id constraint is required with MATCH")
}
