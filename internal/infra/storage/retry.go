package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	writeAttempts    = 3
	writeBackoffStep = 100 * time.Millisecond
)

// retryWrite reintenta escrituras "valiosas" (enqueue, block) ante errores transitorios de SQLite.
func retryWrite(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(writeAttempts-1, linearBackoff(writeBackoffStep))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func linearBackoff(step time.Duration) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * step, false
	})
}

func isTransient(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR:
		return true
	}
	return false
}
