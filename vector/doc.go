// Package vector defines the point model and SQLite-backed utilities used by
// this project. It includes:
//   - Point model and Store interface
//   - SQLiteStore: durable point storage with in-memory k-d tree search
//   - Schema helpers to create a points table
//   - Point encoding (BLOB) and distance functions
package vector
