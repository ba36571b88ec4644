// Package kdtable implements a SQLite virtual table for spatial search backed
// by an in-memory k-d tree. Each virtual table has a per-table shadow table
// that stores dataset ids, point ids, payloads and point coordinates. Indices
// are built on demand from the shadow table and kept in a shared cache that
// triggers on the shadow table invalidate.
//
// Features:
//   - WHERE value MATCH ? for k-nearest neighbors, ordered by distance
//   - AND distance <= ? for radius queries, AND k = ? to cap the result count
//   - Auto-created shadow tables and invalidation triggers
//   - Brute-force index for small datasets, k-d tree otherwise
package kdtable
