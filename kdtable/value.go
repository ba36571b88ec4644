package kdtable

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-kdtree/vector"
)

// decodeMatchArg accepts a point as an encoded BLOB or as a string holding a
// JSON array, base64-encoded BLOB or comma separated coordinates.
func decodeMatchArg(v vtab.Value) ([]float64, error) {
	var (
		point []float64
		err   error
	)
	switch val := v.(type) {
	case []byte:
		point, err = vector.DecodePoint(val)
	case string:
		point, err = decodeMatchString(val)
	default:
		return nil, fmt.Errorf("kdtree: expected MATCH arg as BLOB or string, got %T", v)
	}
	if err != nil {
		return nil, err
	}
	if len(point) == 0 {
		return nil, fmt.Errorf("kdtree: MATCH point is empty")
	}
	return point, nil
}

func decodeMatchString(raw string) ([]float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("kdtree: MATCH string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var point []float64
		if err := json.Unmarshal([]byte(s), &point); err != nil {
			return nil, fmt.Errorf("kdtree: invalid MATCH JSON array: %w", err)
		}
		return point, nil
	}
	if !strings.Contains(s, ",") {
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			if point, err := vector.DecodePoint(b); err == nil {
				return point, nil
			}
		}
	}
	parts := strings.Split(s, ",")
	point := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("kdtree: MATCH string must be base64-encoded point or JSON/CSV float list: invalid float %q: %w", p, err)
		}
		point = append(point, f)
	}
	return point, nil
}

func asFloat(v vtab.Value) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case []byte:
		return parseFloat(string(val))
	case string:
		return parseFloat(val)
	default:
		return 0, fmt.Errorf("kdtree: unsupported distance type %T", v)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("kdtree: cannot parse distance %q: %w", s, err)
	}
	return f, nil
}

func asInt(v vtab.Value) (int, error) {
	switch val := v.(type) {
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case []byte:
		return atoi(string(val))
	case string:
		return atoi(val)
	default:
		return 0, fmt.Errorf("kdtree: unsupported k type %T", v)
	}
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("kdtree: cannot parse k %q: %w", s, err)
	}
	return n, nil
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("kdtree: dataset_id is nil")
	default:
		return "", fmt.Errorf("kdtree: unsupported dataset_id type %T", v)
	}
}
