package repository

import (
	"time"

	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	log logger.Logger
}

func buildOptions(component string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get().Named(component)
	}
	return o
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// observe records the latency and outcome of one store call. It is meant to
// be deferred with a pointer to the named error result.
func observe(driver, op string, start time.Time, err *error) {
	metrics.RecordStoreCall(driver, op, float64(time.Since(start).Microseconds())/1000, *err)
}
