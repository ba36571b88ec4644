package kdtable

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/viant/sqlite-kdtree/index"
)

// cachedIndex is a built index together with the shadow rowids of its points.
type cachedIndex struct {
	index  index.Index
	kind   string
	dims   int
	rowids map[string]int64
}

const (
	cacheNumCounters = 1 << 16
	cacheMaxCost     = 1 << 30
	cacheBufferItems = 64
)

// Shared cache of indices keyed by db path/table/dataset for cross-connection
// reuse. Ristretto cannot enumerate keys, so invalidation bumps a generation
// counter that is part of the key; superseded entries age out.
var shared = struct {
	once    sync.Once
	cache   *ristretto.Cache[string, *cachedIndex]
	err     error
	builds  singleflight.Group
	mu      sync.Mutex
	tables  map[string]uint64
	dataset map[string]uint64
}{tables: map[string]uint64{}, dataset: map[string]uint64{}}

func indexCache() (*ristretto.Cache[string, *cachedIndex], error) {
	shared.once.Do(func() {
		shared.cache, shared.err = ristretto.NewCache(&ristretto.Config[string, *cachedIndex]{
			NumCounters: cacheNumCounters,
			MaxCost:     cacheMaxCost,
			BufferItems: cacheBufferItems,
		})
	})
	return shared.cache, shared.err
}

// cacheKey returns the current key for a dataset of a table.
func cacheKey(dbPath, tableName, dataset string) string {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	return fmt.Sprintf("%s|%s|%s#%d.%d", dbPath, tableName, dataset,
		shared.tables[tableName], shared.dataset[tableName+"|"+dataset])
}

// cacheCost approximates the memory held by an index over n points.
func cacheCost(n, dims int) int64 {
	return int64(n) * int64(dims+4) * 8
}

// InvalidateCache drops cached indices of a shadow table across active
// connections. An empty dataset invalidates every dataset of the table. It
// returns the new generation.
func InvalidateCache(shadow, dataset string) uint64 {
	tableName := tableNameFromShadow(shadow)
	if tableName == "" {
		tableName = shadow
	}
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if dataset == "" {
		shared.tables[tableName]++
		return shared.tables[tableName]
	}
	key := tableName + "|" + dataset
	shared.dataset[key]++
	return shared.dataset[key]
}

func tableNameFromShadow(shadow string) string {
	if shadow == "" {
		return ""
	}
	shadow = strings.Trim(shadow, `"`)
	if i := strings.Index(shadow, "."+shadowPrefix); i >= 0 {
		return shadow[i+1+len(shadowPrefix):]
	}
	if strings.HasPrefix(shadow, shadowPrefix) {
		return strings.TrimPrefix(shadow, shadowPrefix)
	}
	return ""
}
