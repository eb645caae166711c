package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // pure Go driver registered as "sqlite"

	"meilisync/internal/logging"
	"meilisync/internal/metrics"
)

// Driver names accepted by Open.
const (
	DriverCgo    = "sqlite3"
	DriverPureGo = "sqlite"
)

const pingTimeout = 5 * time.Second

// RetryConfig configures retries while the database is locked by the
// media server.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry policy used when none is given.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// dsn builds a read-only connection string for driver.
func dsn(driver, path string) (string, error) {
	switch driver {
	case DriverCgo, "":
		return fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path), nil
	case DriverPureGo:
		return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// isBusyError reports whether err means another connection holds a lock.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// Open opens the library database read-only and verifies it can be read,
// retrying with capped exponential backoff while it is locked.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverCgo
	}
	connStr, err := dsn(driver, opts.Path)
	if err != nil {
		return nil, err
	}

	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.InitialBackoff == 0 {
		retry = DefaultRetryConfig()
	}

	var lastErr error
	backoff := retry.InitialBackoff

	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		db, err := openAndPing(ctx, driver, connStr)
		if err == nil {
			if attempt > 0 {
				logging.Info("Opened database %s on retry %d", opts.Path, attempt)
			}
			return db, nil
		}

		lastErr = err
		if !isBusyError(err) {
			return nil, err
		}

		// Don't sleep after the last attempt
		if attempt < retry.MaxRetries {
			metrics.SourceOpenRetries.Inc()
			logging.Debug("Database %s is locked, retrying in %v (attempt %d/%d)",
				opts.Path, backoff, attempt+1, retry.MaxRetries)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > retry.MaxBackoff {
				backoff = retry.MaxBackoff
			}
		}
	}

	logging.Warn("Database %s still locked after %d retries: %v", opts.Path, retry.MaxRetries, lastErr)
	return nil, lastErr
}

func openAndPing(ctx context.Context, driver, connStr string) (*sql.DB, error) {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}
