package repository

import (
	"context"
	"fmt"
)

// Open returns the Store for driver. source is the SQLite path or the
// Postgres DSN and is ignored for the memory driver.
func Open(ctx context.Context, driver, source string, opts ...Option) (Store, error) {
	switch driver {
	case "", driverMemory:
		return NewMemoryStore(opts...), nil
	case driverSQLite:
		return OpenSQLite(ctx, source, opts...)
	case driverPostgres:
		return OpenPostgres(ctx, source, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
