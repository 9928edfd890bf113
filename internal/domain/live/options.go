package live

import "github.com/okian/matchday/pkg/logger"

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxPauses sets the per-participant pause quota.
func WithMaxPauses(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxPauses = n
		}
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}
