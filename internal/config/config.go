// Package config defines service configuration and its layered loading.
//
// Conventions:
//   - New(ctx) returns a Config populated with defaults.
//   - Load(ctx) layers an optional YAML file and MATCHDAY_ env vars on top.
//   - Validate reports ErrInvalidConfig for unusable values.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresDSN string `koanf:"postgres_dsn"`

	// JWTSecret verifies bearer tokens. Empty enables the X-User-ID header.
	JWTSecret string `koanf:"jwt_secret"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// QueueTTL and StagedTTL bound how long matchmaking entries survive.
	QueueTTL      time.Duration `koanf:"queue_ttl"`
	StagedTTL     time.Duration `koanf:"staged_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// SkillWindow is the maximum manager skill gap for pairing.
	SkillWindow int `koanf:"skill_window"`
	// MaxPauses is the per-participant pause quota of a live session.
	MaxPauses int `koanf:"max_pauses"`

	// WorkerCount and JobQueueSize size the batch simulation pipeline.
	WorkerCount  int `koanf:"worker_count"`
	JobQueueSize int `koanf:"job_queue_size"`

	// RNGSeed fixes the simulation RNG when non-zero.
	RNGSeed int64 `koanf:"rng_seed"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreDriver:         DriverMemory,
		SQLitePath:          "matchday.db",
		CORSAllowedOrigins:  []string{"*"},
		QueueTTL:            5 * time.Minute,
		StagedTTL:           10 * time.Minute,
		SweepInterval:       time.Minute,
		SkillWindow:         5,
		MaxPauses:           3,
		WorkerCount:         runtime.NumCPU(),
		JobQueueSize:        1_000,
		MaxLeaderboardLimit: 100,
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.QueueTTL <= 0 || c.StagedTTL <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("%w: queue_ttl, staged_ttl and sweep_interval must be positive", ErrInvalidConfig)
	}
	if c.SkillWindow < 0 {
		return fmt.Errorf("%w: skill_window must not be negative", ErrInvalidConfig)
	}
	if c.MaxPauses < 0 {
		return fmt.Errorf("%w: max_pauses must not be negative", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 || c.JobQueueSize <= 0 {
		return fmt.Errorf("%w: worker_count and job_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// StoreSource returns the SQLite path or Postgres DSN for the selected driver.
func (c *Config) StoreSource() string {
	switch c.StoreDriver {
	case DriverSQLite:
		return c.SQLitePath
	case DriverPostgres:
		return c.PostgresDSN
	}
	return ""
}
