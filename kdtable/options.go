package kdtable

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

const (
	indexAuto  = "auto"
	indexKD    = "kd"
	indexBrute = "brute"

	// autoKDMinPoints is the dataset size from which auto switches from a
	// linear scan to a k-d tree.
	autoKDMinPoints = 256
)

// Option configures the module.
type Option func(*Module)

// WithLogger sets the logger used for index builds.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		if logger != nil {
			m.logger = logger
		}
	}
}

type tableOptions struct {
	kind   string
	bucket int
	metric tree.DistanceFunction
}

func (o tableOptions) resolveIndexKind(points int) string {
	switch o.kind {
	case indexKD, indexBrute:
		return o.kind
	}
	if points >= autoKDMinPoints {
		return indexKD
	}
	return indexBrute
}

// parseModuleArgs splits the USING kdtree(...) arguments into the declared
// column name (e.g. USING kdtree(place_id)) and table options.
func parseModuleArgs(args []string) (string, tableOptions) {
	col := "value"
	if len(args) > 0 {
		if a := strings.TrimSpace(args[0]); a != "" && !strings.Contains(a, "=") {
			col = a
			args = args[1:]
		}
	}
	return col, parseTableOptions(args)
}

func parseTableOptions(args []string) tableOptions {
	opts := tableOptions{
		kind:   indexAuto,
		bucket: tree.DefaultBucketCapacity,
		metric: tree.DistanceFunctionSquaredL2,
	}
	for _, raw := range args {
		a := strings.TrimSpace(raw)
		if a == "" {
			continue
		}
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := strings.Trim(strings.TrimSpace(parts[1]), `'"`)
		switch key {
		case "index":
			switch strings.ToLower(val) {
			case indexKD, "kdtree", "kd_tree":
				opts.kind = indexKD
			case indexBrute, indexAuto:
				opts.kind = strings.ToLower(val)
			}
		case "bucket", "bucket_capacity":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				opts.bucket = n
			}
		case "metric", "distance":
			if metric, ok := tree.ParseDistanceFunction(val); ok {
				opts.metric = metric
			}
		}
	}
	return opts
}
