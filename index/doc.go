// Package index defines a minimal abstraction for spatial indexes that can be
// built from points and queried for nearest neighbours or radius matches.
// Implementations in this module include a brute-force baseline and a
// dynamic k-d tree.
package index
