package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"

	sqlite "modernc.org/sqlite"

	"github.com/viant/sqlite-kdtree/internal/codec"
	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

// RegisterDistanceFunctions registers kd_l2sq, kd_l1 and kd_l2 with the driver
// so they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
func RegisterDistanceFunctions(_ *sql.DB) error {
	// The driver rejects duplicates; repeated registration is harmless.
	_ = sqlite.RegisterDeterministicScalarFunction("kd_l2sq", 2, distanceFunction("kd_l2sq", tree.SquaredL2[float64]{}.Distance))
	_ = sqlite.RegisterDeterministicScalarFunction("kd_l1", 2, distanceFunction("kd_l1", tree.L1[float64]{}.Distance))
	_ = sqlite.RegisterDeterministicScalarFunction("kd_l2", 2, distanceFunction("kd_l2", euclidean))
	return nil
}

func euclidean(a, b []float64) float64 {
	return math.Sqrt(tree.SquaredL2[float64]{}.Distance(a, b))
}

func distanceFunction(name string, distance func(a, b []float64) float64) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
		}
		a, err := asPoint(args[0])
		if err != nil {
			return nil, err
		}
		b, err := asPoint(args[1])
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		if len(a) != len(b) {
			return nil, fmt.Errorf("%s: dim mismatch %d vs %d", name, len(a), len(b))
		}
		return distance(a, b), nil
	}
}

func asPoint(arg driver.Value) ([]float64, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		point, err := codec.DecodePoint(v)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		return point, nil
	default:
		return nil, fmt.Errorf("engine: unsupported argument type %T for point; want BLOB", arg)
	}
}
