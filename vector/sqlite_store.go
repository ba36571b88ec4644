package vector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kdtree/index/kd"
)

// SQLiteStore implements Store on top of a SQLite points table. Spatial
// queries load the table into an in-memory k-d tree; the tree itself is never
// persisted.
type SQLiteStore struct {
	db      *sql.DB
	options []kd.Option
}

// NewSQLiteStore creates a new SQLite-backed Store. It ensures the points
// schema exists in the provided database. Options configure the k-d tree
// built for each query.
func NewSQLiteStore(db *sql.DB, options ...kd.Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("vector: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, options: options}, nil
}

// AddPoints inserts or replaces points in the points table. Point.ID must be
// non-empty and all points must carry coordinates.
func (s *SQLiteStore) AddPoints(ctx context.Context, points []Point) ([]string, error) {
	if len(points) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO points(id, payload, point) VALUES(?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(points))
	for _, p := range points {
		if p.ID == "" {
			return nil, fmt.Errorf("vector: Point.ID must be set in AddPoints")
		}
		if len(p.Coordinates) == 0 {
			return nil, fmt.Errorf("vector: point %q has no coordinates", p.ID)
		}
		blob, err := EncodePoint(p.Coordinates)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Payload, blob); err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Nearest returns up to k points closest to query, ascending by squared
// Euclidean distance.
func (s *SQLiteStore) Nearest(ctx context.Context, query []float64, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	points, idx, err := s.load(ctx)
	if err != nil || idx == nil {
		return nil, err
	}
	ids, distances, err := idx.Query(query, k)
	if err != nil {
		return nil, err
	}
	return neighbors(points, ids, distances), nil
}

// Within returns points within radius of query (inclusive), ascending by
// squared Euclidean distance, at most k of them when k > 0.
func (s *SQLiteStore) Within(ctx context.Context, query []float64, radius float64, k int) ([]Neighbor, error) {
	points, idx, err := s.load(ctx)
	if err != nil || idx == nil {
		return nil, err
	}
	ids, distances, err := idx.QueryBall(query, radius, k)
	if err != nil {
		return nil, err
	}
	return neighbors(points, ids, distances), nil
}

func (s *SQLiteStore) load(ctx context.Context) (map[string]Point, *kd.Index, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload, point FROM points`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	points := map[string]Point{}
	var ids []string
	var coordinates [][]float64
	for rows.Next() {
		var p Point
		var payload sql.NullString
		var blob []byte
		if err := rows.Scan(&p.ID, &payload, &blob); err != nil {
			return nil, nil, err
		}
		if p.Coordinates, err = DecodePoint(blob); err != nil {
			return nil, nil, fmt.Errorf("vector: point %q: %w", p.ID, err)
		}
		p.Payload = payload.String
		points[p.ID] = p
		ids = append(ids, p.ID)
		coordinates = append(coordinates, p.Coordinates)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}
	idx := kd.New(s.options...)
	if err := idx.Build(ids, coordinates); err != nil {
		return nil, nil, fmt.Errorf("vector: failed to index points: %w", err)
	}
	return points, idx, nil
}

func neighbors(points map[string]Point, ids []string, distances []float64) []Neighbor {
	out := make([]Neighbor, len(ids))
	for i, id := range ids {
		out[i] = Neighbor{Point: points[id], Distance: distances[i]}
	}
	return out
}

// Remove deletes a point by ID from the points table.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("vector: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM points WHERE id = ?`, id)
	return err
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
