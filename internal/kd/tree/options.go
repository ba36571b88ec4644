package tree

import "log/slog"

// DefaultBucketCapacity is the leaf capacity used when none is configured.
const DefaultBucketCapacity = 32

// Option configures a Tree at construction time.
type Option func(*options)

type options struct {
	bucketCapacity int
	logger         *slog.Logger
}

// WithBucketCapacity sets the number of entries a leaf holds before it
// becomes eligible for splitting. Roughly twice the typical K works well;
// higher dimensions favour larger buckets.
func WithBucketCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bucketCapacity = n
		}
	}
}

// WithLogger sets the logger used for bulk maintenance events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		bucketCapacity: DefaultBucketCapacity,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
