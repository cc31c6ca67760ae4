// Package store persists form revisions, their rows and values, and the
// classification references in a relational database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrNotFound is returned when a project, revision or row does not exist.
var ErrNotFound = errors.New("not found")

// Error wraps a failure of the backing database with the operation that
// hit it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return &Error{Op: op, Err: err}
}

// Store is a handle on the database. It takes no locks of its own: callers
// serialize writers of the same revision.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NormalizeDriver maps accepted driver spellings to DriverSQLite or
// DriverPostgres.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Open connects to the database and applies pending migrations. For SQLite
// dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database dsn required")
	}

	connDSN := dsn
	if driver == DriverSQLite {
		abs, err := filepath.Abs(dsn)
		if err != nil {
			return nil, fmt.Errorf("resolving sqlite path: %w", err)
		}
		dsn = abs
		connDSN = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", abs)
	}

	if err := Migrate(driver, dsn); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, connDSN)
	if err != nil {
		return nil, wrap("open", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("ping", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string {
	return s.driver
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// readTx runs fn in a read-only transaction. PostgreSQL gets a repeatable
// read snapshot; SQLite transactions are serializable already.
func (s *Store) readTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	var opts *sql.TxOptions
	if s.driver == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return wrap("begin read", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(tx)
}

// now returns the timestamp format stored in every dialect.
func now() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}
