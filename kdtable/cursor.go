package kdtable

import (
	"context"
	"fmt"
	"math"

	"modernc.org/sqlite/vtab"
)

type resultRow struct {
	rowid    int64
	dataset  string
	id       string
	distance float64
}

// Cursor scans results from a kdtree table.
type Cursor struct {
	table   *Table
	rows    []resultRow
	pos     int
	matched bool
	k       vtab.Value
}

// query is a decoded MATCH plan.
type query struct {
	point   []float64
	radius  float64
	bounded bool
	k       int
}

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos, c.matched, c.k = nil, 0, false, nil
	if c.table == nil {
		return nil
	}
	ctx := context.Background()
	if len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("kdtree: dataset_id argument is required")
	}
	dataset, err := asString(vals[0])
	if err != nil {
		return err
	}
	if idxNum == planDatasetScan {
		return c.scan(ctx, dataset)
	}
	if idxNum&planMatch == 0 || len(vals) < 2 || vals[1] == nil {
		return fmt.Errorf("kdtree: unsupported query plan")
	}
	q, err := c.decode(idxNum, vals)
	if err != nil {
		return err
	}
	c.matched = true
	if q.k <= 0 && idxNum&planLimit != 0 {
		return nil
	}
	if q.bounded && (q.radius < 0 || math.IsNaN(q.radius)) {
		return nil
	}
	entry, err := c.table.ensureIndex(ctx, dataset)
	if err != nil {
		return err
	}
	var (
		ids       []string
		distances []float64
	)
	if q.bounded {
		ids, distances, err = entry.index.QueryBall(q.point, q.radius, q.k)
	} else {
		ids, distances, err = entry.index.Query(q.point, q.k)
	}
	if err != nil {
		return err
	}
	c.rows = make([]resultRow, 0, len(ids))
	for i, id := range ids {
		rowid, ok := entry.rowids[id]
		if !ok {
			continue
		}
		c.rows = append(c.rows, resultRow{rowid: rowid, dataset: dataset, id: id, distance: distances[i]})
	}
	return nil
}

func (c *Cursor) decode(idxNum int, vals []vtab.Value) (*query, error) {
	point, err := decodeMatchArg(vals[1])
	if err != nil {
		return nil, err
	}
	q := &query{point: point}
	next := 2
	if idxNum&planRadius != 0 {
		if len(vals) <= next {
			return nil, fmt.Errorf("kdtree: missing distance constraint")
		}
		if q.radius, err = asFloat(vals[next]); err != nil {
			return nil, err
		}
		next++
		q.bounded = true
		if idxNum&planStrict != 0 {
			q.radius = math.Nextafter(q.radius, math.Inf(-1))
		}
	}
	if idxNum&planLimit != 0 {
		if len(vals) <= next {
			return nil, fmt.Errorf("kdtree: missing k constraint")
		}
		if q.k, err = asInt(vals[next]); err != nil {
			return nil, err
		}
		c.k = int64(q.k)
	}
	return q, nil
}

func (c *Cursor) scan(ctx context.Context, dataset string) error {
	if err := c.table.ensureShadow(ctx); err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT rowid, dataset_id, id FROM %s WHERE dataset_id = ? ORDER BY rowid", c.table.shadow)
	rows, err := c.table.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r resultRow
		if err := rows.Scan(&r.rowid, &r.dataset, &r.id); err != nil {
			return err
		}
		c.rows = append(c.rows, r)
	}
	return rows.Err()
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("kdtree: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	switch col {
	case columnDataset:
		return c.rows[c.pos].dataset, nil
	case columnValue:
		return c.rows[c.pos].id, nil
	case columnDistance:
		if !c.matched {
			return nil, nil
		}
		return c.rows[c.pos].distance, nil
	case columnK:
		return c.k, nil
	}
	return nil, fmt.Errorf("kdtree: unsupported column %d", col)
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("kdtree: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }
