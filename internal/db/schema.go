package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// EnsureSchema creates the usuarios table if it is absent. Existing tables
// are left untouched.
func (d *DB) EnsureSchema(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(d.target.Dialect))
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	// migrate's Close would close the shared pool, so the driver's resources
	// are released here instead.
	var driver database.Driver
	switch d.target.Dialect {
	case DialectPostgres:
		conn, err := d.sql.Conn(ctx)
		if err != nil {
			return fmt.Errorf("acquire schema connection: %w", err)
		}
		defer func() {
			_ = conn.Close()
		}()
		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			return fmt.Errorf("init postgres schema driver: %w", err)
		}
	case DialectSQLite:
		driver, err = sqlite.WithInstance(d.sql, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("init sqlite schema driver: %w", err)
		}
	default:
		return fmt.Errorf("unsupported dialect %q", d.target.Dialect)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, string(d.target.Dialect), driver)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("create schema failed: %w", err)
	}
	return nil
}
