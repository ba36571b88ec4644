// Package tree implements a dynamic bucketed k-d tree. Points are routed to
// leaf buckets that split along their widest bounding-box dimension once they
// reach capacity; queries prune subtrees by the distance from the query point
// to each node's bounding box.
//
// The tree is single-writer: concurrent read-only queries are safe, but any
// insertion or split must be excluded from all other access by the caller.
// Buckets whose points all coincide cannot be split and are scanned linearly,
// so heavily duplicated data degrades towards linear search within that bucket.
package tree
