// Package kd adapts the dynamic k-d tree to the index.Index interface. It maps
// string ids onto tree payloads, guards the tree with a single-writer lock and
// fans batched queries out over goroutines that each own a reusable searcher.
package kd
