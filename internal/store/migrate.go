package store

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies all up migrations for driver. For SQLite dsn is an
// absolute file path; for PostgreSQL it is a postgres:// URL.
func Migrate(driver, dsn string) error {
	dir, url, err := migrationTarget(driver, dsn)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return wrap("migrate", fmt.Errorf("loading migrations: %w", err))
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return wrap("migrate", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return wrap("migrate", err)
	}
	return nil
}

func migrationTarget(driver, dsn string) (dir, url string, err error) {
	switch driver {
	case DriverSQLite:
		return "migrations/sqlite", "sqlite3://" + dsn + "?_foreign_keys=on", nil
	case DriverPostgres:
		for _, prefix := range []string{"postgres://", "postgresql://"} {
			if strings.HasPrefix(dsn, prefix) {
				return "migrations/postgres", "pgx5://" + strings.TrimPrefix(dsn, prefix), nil
			}
		}
		return "", "", fmt.Errorf("postgres dsn must be a postgres:// URL, got %q", dsn)
	}
	return "", "", fmt.Errorf("unsupported database driver %q", driver)
}
