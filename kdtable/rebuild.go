package kdtable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/viant/sqlite-kdtree/index/kd"
	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

// DatasetStats describes the index of one dataset stored by Rebuild.
type DatasetStats struct {
	Dataset string
	Kind    string
	Points  int
	Dims    int
	// Tree is zero for brute-force indices.
	Tree tree.Stats
}

// Rebuild builds the index of every dataset of a shadow table with the
// options declared on its virtual table and stores them in the shared cache,
// replacing earlier entries. Datasets are returned in dataset_id order.
func Rebuild(ctx context.Context, db *sql.DB, shadow string, options ...Option) ([]DatasetStats, error) {
	t, err := newModule(db, options).tableFromShadow(ctx, shadow)
	if err != nil {
		return nil, err
	}
	if err := t.ensureShadow(ctx); err != nil {
		return nil, err
	}
	datasets, err := t.datasets(ctx)
	if err != nil {
		return nil, err
	}
	cache, err := indexCache()
	if err != nil {
		return nil, fmt.Errorf("kdtree: failed to create index cache: %w", err)
	}
	InvalidateCache(t.shadow, "")
	dbPath := t.cachedDbPath(ctx)
	out := make([]DatasetStats, 0, len(datasets))
	for _, dataset := range datasets {
		entry, dims, err := t.build(ctx, dataset)
		if err != nil {
			return nil, err
		}
		cache.Set(cacheKey(dbPath, t.tableName, dataset), entry, cacheCost(len(entry.rowids), dims))
		out = append(out, entry.stats(dataset))
	}
	cache.Wait()
	return out, nil
}

func (e *cachedIndex) stats(dataset string) DatasetStats {
	s := DatasetStats{Dataset: dataset, Kind: e.kind, Points: e.index.Len(), Dims: e.dims}
	if idx, ok := e.index.(*kd.Index); ok {
		s.Tree = idx.Stats()
	}
	return s
}

// tableFromShadow resolves the virtual table owning a shadow table and
// parses its declared options from the schema.
func (m *Module) tableFromShadow(ctx context.Context, shadow string) (*Table, error) {
	shadow = strings.TrimSpace(shadow)
	dbName, bare := "", shadow
	if i := strings.LastIndex(shadow, "."); i >= 0 {
		dbName, bare = shadow[:i], shadow[i+1:]
	}
	if !strings.HasPrefix(bare, shadowPrefix) || len(bare) == len(shadowPrefix) {
		return nil, fmt.Errorf("kdtree: %q is not a kdtree shadow table", shadow)
	}
	tableName := strings.TrimPrefix(bare, shadowPrefix)
	master := "sqlite_master"
	if dbName != "" {
		master = dbName + ".sqlite_master"
	}
	var ddl string
	q := fmt.Sprintf("SELECT sql FROM %s WHERE type = 'table' AND name = ?", master)
	if err := m.db.QueryRowContext(ctx, q, tableName).Scan(&ddl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("kdtree: virtual table %s not found", tableName)
		}
		return nil, err
	}
	args, err := usingArgs(ddl)
	if err != nil {
		return nil, fmt.Errorf("kdtree: table %s: %w", tableName, err)
	}
	_, opts := parseModuleArgs(args)
	return m.newTable(dbName, tableName, opts), nil
}

var usingClause = regexp.MustCompile(`(?is)\busing\s+([a-z_][a-z0-9_]*)\s*(?:\((.*)\))?\s*;?\s*$`)

// usingArgs extracts the module arguments of a CREATE VIRTUAL TABLE statement.
func usingArgs(ddl string) ([]string, error) {
	m := usingClause.FindStringSubmatch(ddl)
	if m == nil {
		return nil, fmt.Errorf("not a virtual table: %s", ddl)
	}
	if !strings.EqualFold(m[1], "kdtree") {
		return nil, fmt.Errorf("not a kdtree table: %s", ddl)
	}
	if strings.TrimSpace(m[2]) == "" {
		return nil, nil
	}
	return strings.Split(m[2], ","), nil
}

func (t *Table) datasets(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT dataset_id FROM %s WHERE point IS NOT NULL ORDER BY dataset_id", t.shadow)
	rows, err := t.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var dataset string
		if err := rows.Scan(&dataset); err != nil {
			return nil, err
		}
		out = append(out, dataset)
	}
	return out, rows.Err()
}
