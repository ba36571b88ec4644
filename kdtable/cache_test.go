package kdtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNameFromShadow(t *testing.T) {
	assert.Equal(t, "places", tableNameFromShadow("main._kd_places"))
	assert.Equal(t, "places", tableNameFromShadow("_kd_places"))
	assert.Equal(t, "", tableNameFromShadow("places"))
	assert.Equal(t, "", tableNameFromShadow(""))
}

func TestInvalidateCache(t *testing.T) {
	before := cacheKey("/tmp/a.db", "gen_table", "ds1")
	other := cacheKey("/tmp/a.db", "gen_table", "ds2")

	generation := InvalidateCache("main._kd_gen_table", "ds1")
	assert.Equal(t, uint64(1), generation)
	assert.NotEqual(t, before, cacheKey("/tmp/a.db", "gen_table", "ds1"))
	assert.Equal(t, other, cacheKey("/tmp/a.db", "gen_table", "ds2"), "other datasets keep their key")

	InvalidateCache("_kd_gen_table", "")
	assert.NotEqual(t, other, cacheKey("/tmp/a.db", "gen_table", "ds2"), "table-wide invalidation")
}

func TestIndexCache(t *testing.T) {
	cache, err := indexCache()
	assert.NoError(t, err)
	again, err := indexCache()
	assert.NoError(t, err)
	assert.Same(t, cache, again)
}
