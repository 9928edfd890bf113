package simulation

import (
	"math/rand/v2"
	"time"

	"github.com/okian/matchday/pkg/logger"
)

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic for a single caller.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand installs a caller-owned random source.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// WithBotStrength sets the uniform range synthetic opponents are drawn from.
// lo == hi pins the bot to a single value.
func WithBotStrength(lo, hi float64) Option {
	return func(g *Generator) {
		if lo >= 0 && hi >= lo {
			g.botLo, g.botHi = lo, hi
		}
	}
}

// WithClock overrides time.Now for outcome timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDGenerator overrides outcome id generation.
func WithIDGenerator(next func() string) Option {
	return func(g *Generator) {
		if next != nil {
			g.nextID = next
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}
