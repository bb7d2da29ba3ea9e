package config

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const maxConnAttempts = 3

var (
	ErrDBNotReady    = errors.New("database not initialized")
	ErrConnAcquire   = errors.New("could not acquire database connection")
	ErrConnUnhealthy = errors.New("database connection failed liveness probe")
)

// WithConn runs fn on a dedicated pooled connection. The connection is probed
// before use; a dead one is discarded and replaced, up to maxConnAttempts times.
// The connection goes back to the pool on every exit path.
func WithConn(ctx context.Context, fn func(conn *gorm.DB) error) error {
	gdb := GetDB()
	if gdb == nil {
		return ErrDBNotReady
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnAcquire, err)
	}

	conn, err := acquireLiveConn(ctx, sqlDB)
	if err != nil {
		connAcquireFailures.Inc()
		return err
	}
	defer conn.Close()

	tx := gdb.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = conn
	return fn(tx)
}

func acquireLiveConn(ctx context.Context, sqlDB *sql.DB) (*sql.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= maxConnAttempts; attempt++ {
		acquireCtx, cancel := context.WithTimeout(ctx, AcquireTimeout())
		conn, err := sqlDB.Conn(acquireCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnAcquire, err)
		}

		probeCtx, cancel := context.WithTimeout(ctx, AcquireTimeout())
		_, err = conn.ExecContext(probeCtx, "SELECT 1")
		cancel()
		if err == nil {
			return conn, nil
		}

		lastErr = err
		// drop the dead connection instead of handing it back to the pool
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		_ = conn.Close()
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrConnUnhealthy, lastErr)
}
