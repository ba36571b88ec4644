package kdtable

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"
)

// Module implements vtab.Module for the kdtree virtual table. It creates a
// per-table shadow store and supports MATCH-based spatial scans.
type Module struct {
	db     *sql.DB
	logger *slog.Logger
}

// Table represents a single kdtree virtual table instance.
type Table struct {
	db        *sql.DB
	dbName    string
	tableName string
	shadow    string // qualified shadow table name (e.g. "main._kd_places")
	logger    *slog.Logger
	opts      tableOptions

	shadowOnce sync.Once
	shadowErr  error

	dbPathOnce sync.Once
	dbPath     string
}

// Columns of the declared virtual table schema.
const (
	columnDataset = iota
	columnValue
	columnDistance
	columnK
)

// Query plans; idxNum 0 scans a dataset, otherwise it is a combination of
// the flags below.
const (
	planDatasetScan = 0
	planMatch       = 1
	planRadius      = 2
	planStrict      = 4
	planLimit       = 8
)

var registerInvalidateOnce sync.Once

// Register registers the kdtree virtual table module with the provided *sql.DB.
func Register(db *sql.DB, options ...Option) error {
	// kd_invalidate must exist before any connection installs shadow triggers.
	registerInvalidateOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("kd_invalidate", 2, invalidateFunc)
	})
	if err := vtab.RegisterModule(db, "kdtree", newModule(db, options)); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

func newModule(db *sql.DB, options []Option) *Module {
	mod := &Module{db: db, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range options {
		opt(mod)
	}
	return mod
}

// invalidateFunc implements SQL scalar kd_invalidate(shadow TEXT, dataset TEXT) → INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return int64(0), nil
	}
	shadow, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	dataset, _ := asString(args[1])
	return int64(InvalidateCache(shadow, dataset)), nil
}

// Create initializes a kdtree table instance.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, "CREATE", args)
}

// Connect attaches to an existing kdtree table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, "CONNECT", args)
}

func (m *Module) connect(ctx vtab.Context, verb string, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("kdtree: %s expects at least 3 args, got %d", verb, len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("kdtree: EnableConstraintSupport failed: %w", err)
	}
	col, opts := parseModuleArgs(args[3:])
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s TEXT, distance REAL HIDDEN, k INTEGER HIDDEN)", args[2], col)); err != nil {
		return nil, err
	}
	// Shadow DDL is deferred until first use to avoid cross-connection DDL here.
	return m.newTable(args[1], args[2], opts), nil
}

func (m *Module) newTable(dbName, tableName string, opts tableOptions) *Table {
	t := &Table{
		db:        m.db,
		dbName:    dbName,
		tableName: tableName,
		logger:    m.logger,
		opts:      opts,
	}
	t.shadow = t.qualifiedShadow()
	return t
}

// BestIndex pushes down dataset equality, MATCH, distance bounds and k.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var (
		datasetConstraint  *vtab.Constraint
		matchConstraint    *vtab.Constraint
		distanceConstraint *vtab.Constraint
		kConstraint        *vtab.Constraint
	)
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == columnDataset && c.Op == vtab.OpEQ && datasetConstraint == nil:
			datasetConstraint = c
		case c.Column == columnValue && c.Op == vtab.OpMATCH && matchConstraint == nil:
			matchConstraint = c
		case c.Column == columnDistance && (c.Op == vtab.OpLE || c.Op == vtab.OpLT) && distanceConstraint == nil:
			distanceConstraint = c
		case c.Column == columnK && c.Op == vtab.OpEQ && kConstraint == nil:
			kConstraint = c
		}
	}
	if datasetConstraint == nil {
		if matchConstraint != nil {
			return fmt.Errorf("kdtree: dataset_id constraint is required with MATCH")
		}
		return fmt.Errorf("kdtree: dataset_id constraint required")
	}

	nextArg := 0
	use := func(c *vtab.Constraint) {
		c.ArgIndex = nextArg
		c.Omit = true
		nextArg++
	}
	use(datasetConstraint)
	info.IdxNum = planDatasetScan
	if matchConstraint == nil {
		return nil
	}
	use(matchConstraint)
	info.IdxNum = planMatch
	if distanceConstraint != nil {
		use(distanceConstraint)
		info.IdxNum |= planRadius
		if distanceConstraint.Op == vtab.OpLT {
			info.IdxNum |= planStrict
		}
	}
	if kConstraint != nil {
		use(kConstraint)
		info.IdxNum |= planLimit
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy drops cached indices; the shadow table persists.
func (t *Table) Destroy() error {
	InvalidateCache(t.shadow, "")
	return nil
}

// ensureIndex returns the cached index of a dataset, building it from the
// shadow table on a miss. Concurrent misses share a single build.
func (t *Table) ensureIndex(ctx context.Context, dataset string) (*cachedIndex, error) {
	if strings.TrimSpace(dataset) == "" {
		return nil, fmt.Errorf("kdtree: dataset_id is required")
	}
	if err := t.ensureShadow(ctx); err != nil {
		return nil, err
	}
	cache, err := indexCache()
	if err != nil {
		return nil, fmt.Errorf("kdtree: failed to create index cache: %w", err)
	}
	key := cacheKey(t.cachedDbPath(ctx), t.tableName, dataset)
	if entry, ok := cache.Get(key); ok {
		return entry, nil
	}
	v, err, _ := shared.builds.Do(key, func() (interface{}, error) {
		if entry, ok := cache.Get(key); ok {
			return entry, nil
		}
		entry, dims, err := t.build(ctx, dataset)
		if err != nil {
			return nil, err
		}
		cache.Set(key, entry, cacheCost(len(entry.rowids), dims))
		cache.Wait()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cachedIndex), nil
}
