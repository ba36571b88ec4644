package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistances(t *testing.T) {
	testCases := []struct {
		description string
		fn          func(a, b []float64) (float64, error)
		a, b        []float64
		expect      float64
	}{
		{description: "squared l2", fn: SquaredL2, a: []float64{0, 0}, b: []float64{3, 4}, expect: 25},
		{description: "l2", fn: L2, a: []float64{0, 0}, b: []float64{3, 4}, expect: 5},
		{description: "l1", fn: L1, a: []float64{1, -1}, b: []float64{-2, 3}, expect: 7},
		{description: "identical", fn: L2, a: []float64{1.5, 2}, b: []float64{1.5, 2}, expect: 0},
	}
	for _, testCase := range testCases {
		actual, err := testCase.fn(testCase.a, testCase.b)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestDistances_DimensionMismatch(t *testing.T) {
	for _, fn := range []func(a, b []float64) (float64, error){SquaredL2, L2, L1} {
		_, err := fn([]float64{1}, []float64{1, 2})
		assert.Error(t, err)
	}
}
