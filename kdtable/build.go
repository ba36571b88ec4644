package kdtable

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/bruteforce"
	"github.com/viant/sqlite-kdtree/index/kd"
	"github.com/viant/sqlite-kdtree/vector"
)

// build loads a dataset from the shadow table and indexes it.
func (t *Table) build(ctx context.Context, dataset string) (*cachedIndex, int, error) {
	started := time.Now()
	q := fmt.Sprintf("SELECT rowid, id, point FROM %s WHERE dataset_id = ? AND point IS NOT NULL", t.shadow)
	rows, err := t.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var ids []string
	var points [][]float64
	rowids := map[string]int64{}
	for rows.Next() {
		var rowid int64
		var id string
		var blob []byte
		if err := rows.Scan(&rowid, &id, &blob); err != nil {
			return nil, 0, err
		}
		if len(blob) == 0 {
			continue
		}
		point, err := vector.DecodePoint(blob)
		if err != nil {
			return nil, 0, fmt.Errorf("kdtree: point %q: %w", id, err)
		}
		ids = append(ids, id)
		points = append(points, point)
		rowids[id] = rowid
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	kind := t.opts.resolveIndexKind(len(ids))
	var built index.Index
	switch kind {
	case indexKD:
		built = kd.New(
			kd.WithBucketCapacity(t.opts.bucket),
			kd.WithMetric(t.opts.metric),
			kd.WithLogger(t.logger),
		)
	default:
		built = bruteforce.New(t.opts.metric)
	}
	if err := built.Build(ids, points); err != nil {
		return nil, 0, fmt.Errorf("kdtree: failed to build %s index for %s/%s: %w", kind, t.tableName, dataset, err)
	}
	dims := 0
	if len(points) > 0 {
		dims = len(points[0])
	}
	t.logger.Info("kdtree index built",
		"table", t.tableName,
		"dataset", dataset,
		"kind", kind,
		"points", len(ids),
		"dims", dims,
		"elapsed", time.Since(started),
	)
	return &cachedIndex{index: built, kind: kind, dims: dims, rowids: rowids}, dims, nil
}
