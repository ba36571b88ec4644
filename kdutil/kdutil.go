// Package kdutil provides client helpers for kdtree virtual tables: writing
// points into their shadow tables and running spatial MATCH queries.
package kdutil

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/viant/sqlite-kdtree/kdtable"
	"github.com/viant/sqlite-kdtree/vector"
)

// Match represents a single spatial search hit.
type Match struct {
	ID       string
	Distance float64
	Payload  string
}

// ShadowTableName derives the shadow table name for a given kdtree virtual
// table, which prefixes the table name with _kd_.
//
// For example:
//
//	ShadowTableName("places") == "_kd_places".
func ShadowTableName(virtualTable string) string {
	return kdtable.ShadowName(virtualTable)
}

// UpsertPoint inserts or updates a point row in the shadow table of a kdtree
// virtual table. Triggers on the shadow table invalidate cached indices.
//
// Table names are interpolated into SQL; callers should ensure virtualTable
// is trusted and not derived from untrusted input.
func UpsertPoint(ctx context.Context, db *sql.DB, virtualTable, dataset, id, payload string, point []float64) error {
	if db == nil {
		return fmt.Errorf("kdutil: db is nil")
	}
	if len(point) == 0 {
		return fmt.Errorf("kdutil: point %q has no coordinates", id)
	}
	blob, err := vector.EncodePoint(point)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`
INSERT INTO %s(dataset_id, id, payload, point)
VALUES (?, ?, ?, ?)
ON CONFLICT(dataset_id, id) DO UPDATE SET
  payload = excluded.payload,
  point = excluded.point`, ShadowTableName(virtualTable))
	_, err = db.ExecContext(ctx, stmt, dataset, id, payload, blob)
	return err
}

// DeletePoints removes points with the given ids from a dataset.
func DeletePoints(ctx context.Context, db *sql.DB, virtualTable, dataset string, ids ...string) error {
	if db == nil {
		return fmt.Errorf("kdutil: db is nil")
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ? AND id = ?", ShadowTableName(virtualTable))
	for _, id := range ids {
		if _, err := db.ExecContext(ctx, stmt, dataset, id); err != nil {
			return err
		}
	}
	return nil
}

// MatchNearest returns the k points of a dataset nearest to point, ascending
// by distance. When k <= 0 every point of the dataset is returned.
func MatchNearest(ctx context.Context, db *sql.DB, virtualTable, dataset string, point []float64, k int) ([]Match, error) {
	return match(ctx, db, virtualTable, dataset, point, math.Inf(1), k)
}

// MatchWithin returns points of a dataset whose distance to point does not
// exceed radius, ascending by distance and at most k of them when k > 0.
func MatchWithin(ctx context.Context, db *sql.DB, virtualTable, dataset string, point []float64, radius float64, k int) ([]Match, error) {
	if math.IsInf(radius, 1) {
		radius = math.MaxFloat64
	}
	return match(ctx, db, virtualTable, dataset, point, radius, k)
}

func match(ctx context.Context, db *sql.DB, virtualTable, dataset string, point []float64, radius float64, k int) ([]Match, error) {
	if db == nil {
		return nil, fmt.Errorf("kdutil: db is nil")
	}
	blob, err := vector.EncodePoint(point)
	if err != nil {
		return nil, err
	}
	column, err := matchColumn(ctx, db, virtualTable)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s, distance FROM %s WHERE dataset_id = ? AND %s MATCH ?", column, virtualTable, column)
	args := []interface{}{dataset, blob}
	if !math.IsInf(radius, 1) {
		q += " AND distance <= ?"
		args = append(args, radius)
	}
	if k > 0 {
		q += " AND k = ?"
		args = append(args, k)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Distance); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, m)
	}
	err = rows.Err()
	rows.Close()
	if err != nil || len(out) == 0 {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT payload FROM %s WHERE dataset_id = ? AND id = ?", ShadowTableName(virtualTable))
	for i := range out {
		var payload sql.NullString
		if err := db.QueryRowContext(ctx, stmt, dataset, out[i].ID).Scan(&payload); err != nil {
			return nil, err
		}
		out[i].Payload = payload.String
	}
	return out, nil
}

// matchColumn resolves the declared point id column of a kdtree table.
func matchColumn(ctx context.Context, db *sql.DB, virtualTable string) (string, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM pragma_table_info(?) WHERE cid = 1`, virtualTable).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("kdutil: failed to resolve MATCH column of %s: %w", virtualTable, err)
	}
	return name, nil
}
