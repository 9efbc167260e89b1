// Package sqlite opens the plan database, keeps its schema in sync with schema.sql, and seeds the exercise catalog.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/trainingplan/internal/errors"
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.sql
var fixtures string

// Database holds a single writer pool and a pool of readers against the same file.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to path, migrates the schema, and applies fixtures.
//
// path is a file path or ":memory:". In-memory databases get a unique shared-cache name so that parallel tests do not
// see each other's data.
func NewDatabase(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, path, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}

	if _, err = db.ReadWrite.ExecContext(ctx, fixtures); err != nil {
		return nil, errors.Join(fmt.Errorf("apply fixtures: %w", err), db.Close())
	}

	db.startDatabaseOptimizer(ctx)

	return db, nil
}

//nolint:gochecknoglobals // the driver may only be registered once per process.
var registerOnce sync.Once

const (
	tunedDriver    = "sqlite3tuned"
	inMemoryPrefix = "memory-"
	maxReaders     = 10
)

// tuningPragmas run on every new connection. go-sqlite3 has no DSN option for them.
var tuningPragmas = []string{ //nolint:gochecknoglobals // read-only.
	"PRAGMA temp_store = memory",
	"PRAGMA mmap_size = 268435456",
	"PRAGMA cache_size = -16000",
}

func registerTunedDriver() {
	sql.Register(tunedDriver, &sqlite3.SQLiteDriver{
		Extensions: nil,
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, pragma := range tuningPragmas {
				if _, err := conn.Exec(pragma, nil); err != nil {
					return fmt.Errorf("exec %q: %w", pragma, err)
				}
			}
			return nil
		},
	})
}

// dsn builds a go-sqlite3 data source name. Parameters prefixed with an underscore are driver options documented at
// https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open, the rest are SQLite URI parameters.
func dsn(path string, readOnly bool) string {
	q := url.Values{}
	q.Set("_loc", "auto")
	q.Set("_journal_mode", "wal")
	q.Set("_busy_timeout", "5000")
	q.Set("_synchronous", "normal")
	q.Set("_foreign_keys", "on")
	switch {
	case strings.HasPrefix(path, inMemoryPrefix):
		q.Set("mode", "memory")
		q.Set("cache", "shared")
	case readOnly:
		q.Set("mode", "ro")
	default:
		q.Set("mode", "rwc")
	}
	if readOnly {
		q.Set("_txlock", "deferred")
		q.Set("_query_only", "true")
	} else {
		q.Set("_txlock", "immediate")
	}
	return "file:" + path + "?" + q.Encode()
}

// openPool opens a pool of at most conns connections that live for an hour.
func openPool(ctx context.Context, dataSource string, conns int) (*sql.DB, error) {
	db, err := sql.Open(tunedDriver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)
	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping: %w", err), db.Close())
	}
	return db, nil
}

func connect(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	if strings.Contains(path, ":memory:") {
		path = inMemoryPrefix + rand.Text()
	}
	registerOnce.Do(registerTunedDriver)

	// SQLite allows one writer at a time. A single connection serialises writes without SQLITE_BUSY.
	writer, err := openPool(ctx, dsn(path, false), 1)
	if err != nil {
		return nil, errors.Wrap(err, "open writer", slog.String("path", path))
	}
	readers, err := openPool(ctx, dsn(path, true), maxReaders)
	if err != nil {
		return nil, errors.Join(errors.Wrap(err, "open readers", slog.String("path", path)), writer.Close())
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("path", path),
		slog.Int("max_readers", maxReaders))

	return &Database{
		ReadWrite: writer,
		ReadOnly:  readers,
		logger:    logger,
	}, nil
}

// WithTx runs fn inside a write transaction and commits when fn returns nil.
func (db *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes both pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}
