package matchmaking

import (
	"time"

	"github.com/okian/matchday/pkg/logger"
)

// Option configures a Queue.
type Option func(*Queue)

// WithSkillWindow sets the maximum skill gap for a pairing.
func WithSkillWindow(points int) Option {
	return func(q *Queue) {
		if points >= 0 {
			q.window = points
		}
	}
}

// WithQueueTTL sets how long an idle queue entry survives.
func WithQueueTTL(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.queueTTL = d
		}
	}
}

// WithStagedTTL sets how long a staged outcome survives.
func WithStagedTTL(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.stagedTTL = d
		}
	}
}

// WithSweepInterval sets the background sweep period used by Run.
func WithSweepInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.sweepEvery = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(l logger.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.log = l
		}
	}
}
