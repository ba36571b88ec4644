package vector

import (
	"fmt"

	"github.com/viant/sqlite-kdtree/internal/codec"
)

// EncodePoint encodes point coordinates into a BLOB suitable for storage in
// SQLite: a little-endian sequence of IEEE 754 float64 values without a
// length prefix. The dimensionality is derived from the BLOB size on decode.
func EncodePoint(point []float64) ([]byte, error) {
	return codec.EncodePoint(point), nil
}

// DecodePoint decodes a BLOB produced by EncodePoint.
func DecodePoint(b []byte) ([]float64, error) {
	point, err := codec.DecodePoint(b)
	if err != nil {
		return nil, fmt.Errorf("vector: %w", err)
	}
	return point, nil
}
