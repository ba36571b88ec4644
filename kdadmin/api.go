// Package kdadmin provides administrative operations over kdtree virtual
// tables through a SQLite virtual table.
package kdadmin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-kdtree/kdtable"
)

// Module provides administrative operations via a virtual table.
// Usage:
//
//	CREATE VIRTUAL TABLE kd_admin USING kd_admin(op);
//	SELECT op FROM kd_admin WHERE op MATCH 'main._kd_places'; -- rebuild index
//
// Returns op='reindexed:<count>' followed by one stats row per dataset. The
// rebuilt indices replace the cached ones used by MATCH queries.
type Module struct {
	db      *sql.DB
	options []kdtable.Option
}

type Table struct {
	db      *sql.DB
	options []kdtable.Option
}

type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

// Register registers the kd_admin module. Options apply to the index builds
// run on reindex; tree shape follows each virtual table's own declaration.
func Register(db *sql.DB, options ...kdtable.Option) error {
	if err := vtab.RegisterModule(db, "kd_admin", &Module{db: db, options: options}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Connect(ctx, args)
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("kd_admin: need at least 3 args")
	}
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op TEXT)", args[2])); err != nil {
		return nil, err
	}
	return &Table{db: m.db, options: m.options}, nil
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = 1
			break
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }
func (t *Table) Disconnect() error         { return nil }
func (t *Table) Destroy() error            { return nil }

func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	shadow, ok := vals[0].(string)
	if !ok {
		return fmt.Errorf("kd_admin: MATCH expects shadow table name as TEXT")
	}
	rows, err := reindex(context.Background(), c.table.db, shadow, c.table.options)
	if err != nil {
		return err
	}
	c.rows = rows
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("kd_admin: Column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}

func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }
func (c *Cursor) Close() error          { c.rows = nil; c.pos = 0; return nil }

// reindex rebuilds and caches the index of every dataset of the given shadow
// table and reports their statistics.
func reindex(ctx context.Context, db *sql.DB, shadow string, options []kdtable.Option) ([]string, error) {
	datasets, err := kdtable.Rebuild(ctx, db, shadow, options...)
	if err != nil {
		return nil, fmt.Errorf("kd_admin: %w", err)
	}
	count := 0
	for _, d := range datasets {
		count += d.Points
	}
	out := []string{fmt.Sprintf("reindexed:%d", count)}
	for _, d := range datasets {
		out = append(out, fmt.Sprintf("stats:dataset=%s,kind=%s,points=%d,dims=%d,nodes=%d,leaves=%d,depth=%d,max_bucket=%d",
			d.Dataset, d.Kind, d.Points, d.Dims, d.Tree.Nodes, d.Tree.Leaves, d.Tree.Depth, d.Tree.MaxBucket))
	}
	return out, nil
}
