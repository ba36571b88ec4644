package kd

import (
	"log/slog"
	"runtime"

	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

// Option configures an Index.
type Option func(*options)

type options struct {
	bucketCapacity int
	metric         tree.DistanceFunction
	logger         *slog.Logger
	parallelism    int
}

// WithBucketCapacity sets the k-d tree leaf capacity.
func WithBucketCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bucketCapacity = n
		}
	}
}

// WithMetric selects the distance metric. Squared Euclidean and L1 index
// float64 points; Euclidean indexes them as float32 and reports distances at
// that precision.
func WithMetric(metric tree.DistanceFunction) Option {
	return func(o *options) {
		switch metric {
		case tree.DistanceFunctionSquaredL2, tree.DistanceFunctionL1, tree.DistanceFunctionEuclidean:
			o.metric = metric
		}
	}
}

// WithLogger sets the logger for build events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithParallelism caps the number of goroutines used by QueryBatch.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		bucketCapacity: tree.DefaultBucketCapacity,
		metric:         tree.DistanceFunctionSquaredL2,
		logger:         slog.New(slog.DiscardHandler),
		parallelism:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
