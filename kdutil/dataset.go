package kdutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kdtree/vector"
)

// Dataset provides a higher-level API over one dataset of a kdtree virtual
// table and its shadow table.
type Dataset struct {
	DB          *sql.DB
	VirtualName string
	ShadowName  string
	ID          string
}

// NewDataset constructs a Dataset for a given kdtree virtual table name.
//
// The caller is responsible for having created the virtual table; the shadow
// table is created with kdtable.EnsureShadow or on the first query.
func NewDataset(db *sql.DB, virtualTable, datasetID string) (*Dataset, error) {
	if db == nil {
		return nil, fmt.Errorf("kdutil: db is nil")
	}
	if datasetID == "" {
		return nil, fmt.Errorf("kdutil: dataset id is empty")
	}
	return &Dataset{
		DB:          db,
		VirtualName: virtualTable,
		ShadowName:  ShadowTableName(virtualTable),
		ID:          datasetID,
	}, nil
}

// Upsert writes the provided points into the shadow table.
func (d *Dataset) Upsert(ctx context.Context, points []vector.Point) error {
	for _, p := range points {
		if err := UpsertPoint(ctx, d.DB, d.VirtualName, d.ID, p.ID, p.Payload, p.Coordinates); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes points with the given ids.
func (d *Dataset) Delete(ctx context.Context, ids ...string) error {
	return DeletePoints(ctx, d.DB, d.VirtualName, d.ID, ids...)
}

// Nearest returns the k points nearest to point.
func (d *Dataset) Nearest(ctx context.Context, point []float64, k int) ([]Match, error) {
	return MatchNearest(ctx, d.DB, d.VirtualName, d.ID, point, k)
}

// Within returns up to k points within radius of point; k <= 0 returns all.
func (d *Dataset) Within(ctx context.Context, point []float64, radius float64, k int) ([]Match, error) {
	return MatchWithin(ctx, d.DB, d.VirtualName, d.ID, point, radius, k)
}
