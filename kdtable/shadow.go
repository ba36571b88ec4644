package kdtable

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const shadowPrefix = "_kd_"

// ShadowName returns the bare shadow table name of a kdtree virtual table.
func ShadowName(tableName string) string {
	return shadowPrefix + tableName
}

// qualifiedShadow returns a fully-qualified shadow table name.
func (t *Table) qualifiedShadow() string {
	base := ShadowName(t.tableName)
	if strings.TrimSpace(t.dbName) == "" {
		return base
	}
	return t.dbName + "." + base
}

// ensureShadow ensures the per-table shadow table and its invalidation
// triggers exist.
func (t *Table) ensureShadow(ctx context.Context) error {
	t.shadowOnce.Do(func() { t.shadowErr = createShadow(ctx, t.db, t.shadow) })
	return t.shadowErr
}

func createShadow(ctx context.Context, db *sql.DB, name string) error {
	if db == nil {
		return fmt.Errorf("kdtree: db is nil")
	}
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    dataset_id TEXT NOT NULL,
    id TEXT NOT NULL,
    payload TEXT,
    point BLOB,
    PRIMARY KEY(dataset_id, id)
);
`, name)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return err
	}
	// Triggers must live in the shadow's schema and name an unqualified table.
	schema, bare := "", name
	if i := strings.LastIndex(name, "."); i >= 0 {
		schema, bare = name[:i+1], name[i+1:]
	}
	trigBase := schema + sanitizeName("trg_"+bare)
	shadowLit := quoteLiteral(name)
	invNew := `SELECT kd_invalidate(` + shadowLit + `, NEW.dataset_id);`
	invOld := `SELECT kd_invalidate(` + shadowLit + `, OLD.dataset_id);`
	triggers := []string{
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_ins AFTER INSERT ON %s BEGIN %s END;`, trigBase, bare, invNew),
		// Both datasets are invalidated so moving a point between datasets is seen.
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_upd AFTER UPDATE ON %s BEGIN %s %s END;`, trigBase, bare, invNew, invOld),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_del AFTER DELETE ON %s BEGIN %s END;`, trigBase, bare, invOld),
	}
	for _, trigger := range triggers {
		if _, err := db.ExecContext(ctx, trigger); err != nil {
			return err
		}
	}
	return nil
}

func resolveDbPath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("kdtree: db is nil")
	}
	rows, err := db.QueryContext(ctx, `SELECT name, file FROM pragma_database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	if dbName == "" {
		dbName = "main"
	}
	for rows.Next() {
		var name, file string
		if err := rows.Scan(&name, &file); err != nil {
			return "", err
		}
		if name == dbName {
			if file == "" {
				return name, nil
			}
			return file, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return dbName, nil
}

func (t *Table) cachedDbPath(ctx context.Context) string {
	t.dbPathOnce.Do(func() {
		path, err := resolveDbPath(ctx, t.db, t.dbName)
		if err != nil {
			t.logger.Warn("kdtree: failed to resolve database path", "db", t.dbName, "error", err)
			path = t.dbName
			if path == "" {
				path = "main"
			}
		}
		t.dbPath = path
	})
	return t.dbPath
}

// sanitizeName converts a qualified name into a safe identifier for triggers.
func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '.', '-', ' ', '"':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// quoteLiteral returns SQL string literal with single quotes escaped for safe embedding.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// EnsureShadow creates the shadow table of a kdtree virtual table in the main
// schema together with its invalidation triggers. Virtual tables create their
// shadow lazily; calling this up front lets writes invalidate cached indices
// before the first query.
func EnsureShadow(ctx context.Context, db *sql.DB, virtualTable string) error {
	return createShadow(ctx, db, "main."+ShadowName(virtualTable))
}
