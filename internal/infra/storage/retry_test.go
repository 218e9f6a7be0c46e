package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modernc.org/sqlite"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// openImpatient abre otra conexión al mismo archivo sin busy_timeout: un lock ajeno falla al instante.
func openImpatient(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(0)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Ping())
	return db
}

// holdWriteLock abre una tx que ya escribió, así el archivo queda con el lock de escritura tomado.
func holdWriteLock(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO queue (guild_id, user_id, enqueued_at, priority_score) VALUES (?, 99, ?, 0)`, guild, t0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func busyError(t *testing.T, db *sql.DB) error {
	t.Helper()
	_, err := db.Exec(`INSERT INTO queue (guild_id, user_id, enqueued_at, priority_score) VALUES (?, 98, ?, 0)`, guild, t0)
	require.Error(t, err)
	var se *sqlite.Error
	require.True(t, errors.As(err, &se), "want *sqlite.Error, got %T", err)
	return err
}

func TestRetryWrite_EnqueueWaitsOutWriteLock(t *testing.T) {
	db, path := openTestDB(t)
	other := openImpatient(t, path)
	tx := holdWriteLock(t, db)

	// intentos en 0, 100ms y 300ms: se suelta el lock entre el segundo y el tercero
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = tx.Rollback()
	}()

	start := time.Now()
	require.NoError(t, NewQueueRepo(other).Enqueue(context.Background(), guild, 1, t0, t0-3600))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	e, err := NewQueueRepo(db).Get(context.Background(), guild, 1)
	require.NoError(t, err)
	assert.Equal(t, t0, e.EnqueuedAt)
}

func TestRetryWrite_GivesUpAfterThreeAttempts(t *testing.T) {
	db, path := openTestDB(t)
	other := openImpatient(t, path)
	holdWriteLock(t, db)
	busy := busyError(t, other)

	attempts := 0
	err := retryWrite(context.Background(), func(context.Context) error {
		attempts++
		return eris.Wrap(busy, "enqueue")
	})
	require.Error(t, err)
	assert.Equal(t, writeAttempts, attempts)
	assert.True(t, isTransient(err))
}

func TestRetryWrite_DoesNotRetryDomainErrors(t *testing.T) {
	attempts := 0
	err := retryWrite(context.Background(), func(context.Context) error {
		attempts++
		return domain.ErrAlreadyQueued
	})
	require.ErrorIs(t, err, domain.ErrAlreadyQueued)
	assert.Equal(t, 1, attempts)
}

func TestIsTransient(t *testing.T) {
	db, path := openTestDB(t)
	other := openImpatient(t, path)
	holdWriteLock(t, db)
	busy := busyError(t, other)

	assert.True(t, isTransient(busy))
	assert.True(t, isTransient(eris.Wrap(busy, "x")))
	assert.False(t, isTransient(domain.ErrAlreadyQueued))
	assert.False(t, isTransient(eris.New("x")))
	assert.False(t, isTransient(nil))
}
