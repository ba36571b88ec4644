package engine

import (
	"database/sql"

	_ "modernc.org/sqlite" // pure-Go driver registered as "sqlite"
)

// DriverName is the database/sql driver every package of this module opens.
const DriverName = "sqlite"

// Open returns a handle to the SQLite database at path, or an in-memory one
// for ":memory:". Register kdtree modules and distance functions before the
// first query so pooled connections pick them up.
func Open(path string) (*sql.DB, error) { return sql.Open(DriverName, path) }
