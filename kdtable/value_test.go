package kdtable

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kdtree/vector"
)

func TestDecodeMatchArg(t *testing.T) {
	blob, err := vector.EncodePoint([]float64{1.5, -2})
	require.NoError(t, err)

	testCases := []struct {
		description string
		arg         interface{}
		expect      []float64
		expectErr   bool
	}{
		{description: "blob", arg: blob, expect: []float64{1.5, -2}},
		{description: "json", arg: "[1.5, -2]", expect: []float64{1.5, -2}},
		{description: "csv", arg: " 1.5, -2 ", expect: []float64{1.5, -2}},
		{description: "single value", arg: "7", expect: []float64{7}},
		{description: "base64", arg: base64.StdEncoding.EncodeToString(blob), expect: []float64{1.5, -2}},
		{description: "empty", arg: "  ", expectErr: true},
		{description: "bad json", arg: "[1,", expectErr: true},
		{description: "bad csv", arg: "1,x", expectErr: true},
		{description: "empty blob", arg: []byte{}, expectErr: true},
		{description: "bad blob", arg: []byte{1, 2, 3}, expectErr: true},
		{description: "unsupported", arg: int64(3), expectErr: true},
	}
	for _, testCase := range testCases {
		actual, err := decodeMatchArg(testCase.arg)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestScalarArgs(t *testing.T) {
	f, err := asFloat(int64(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
	f, err = asFloat("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
	_, err = asFloat("x")
	assert.Error(t, err)

	n, err := asInt(int64(4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = asInt([]byte("5"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	_, err = asInt(nil)
	assert.Error(t, err)

	s, err := asString([]byte("ds"))
	require.NoError(t, err)
	assert.Equal(t, "ds", s)
	_, err = asString(nil)
	assert.Error(t, err)
}
