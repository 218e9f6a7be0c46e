package storage

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PoolSize: conexiones fijas compartidas por todo el bot.
const PoolSize = 3

// Open abre la base SQLite (WAL + busy_timeout + FKs) y verifica health.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open sqlite")
	}
	// pool chico y estable: el checkout bloquea hasta que se libera una conexión
	db.SetMaxOpenConns(PoolSize)
	db.SetMaxIdleConns(PoolSize)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "db ping")
	}
	return db, nil
}

// Migrate aplica todas las migraciones embebidas.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return eris.Wrap(err, "goose dialect")
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return eris.Wrap(err, "goose up")
	}
	return nil
}

// WithTx corre fn en una transacción: commit si todo va bien, rollback ante error o panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin tx")
	}
	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback()
			panic(rec)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit")
	}
	return nil
}

// WithConn presta una conexión del pool y la devuelve al terminar.
func WithConn(ctx context.Context, db *sql.DB, fn func(conn *sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return eris.Wrap(err, "checkout conn")
	}
	defer conn.Close()
	return fn(conn)
}

// Checkpoint vuelca el WAL al archivo principal y lo trunca (lo usa el janitor).
func Checkpoint(ctx context.Context, db *sql.DB) error {
	return WithConn(ctx, db, func(conn *sql.Conn) error {
		var busy, logFrames, checkpointed int
		err := conn.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`).Scan(&busy, &logFrames, &checkpointed)
		if err != nil {
			return eris.Wrap(err, "wal checkpoint")
		}
		if busy != 0 {
			return eris.New("wal checkpoint: database busy")
		}
		return nil
	})
}
