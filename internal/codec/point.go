// Package codec holds the BLOB layout of points stored in SQLite.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

const scalarSize = 8

// EncodePoint writes point as little-endian IEEE 754 float64 values without a
// length prefix. The dimensionality is derived from the BLOB size on decode.
func EncodePoint(point []float64) []byte {
	if len(point) == 0 {
		return nil
	}
	b := make([]byte, len(point)*scalarSize)
	for i, v := range point {
		binary.LittleEndian.PutUint64(b[i*scalarSize:], math.Float64bits(v))
	}
	return b
}

// DecodePoint decodes a BLOB produced by EncodePoint. An empty BLOB decodes
// to a nil point.
func DecodePoint(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%scalarSize != 0 {
		return nil, fmt.Errorf("invalid point blob length %d (not multiple of %d)", len(b), scalarSize)
	}
	point := make([]float64, len(b)/scalarSize)
	for i := range point {
		point[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*scalarSize:]))
	}
	return point, nil
}
