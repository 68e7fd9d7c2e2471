package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Driver names as registered with database/sql
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// ParseDSN maps a configured DSN onto a database/sql driver and data source.
// postgres:// and postgresql:// URLs go to pgx, everything else is treated
// as a sqlite path with an optional sqlite:// prefix.
func ParseDSN(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	default:
		return DriverSQLite, dsn
	}
}

// Open initializes the database connection and runs migrations
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver, source := ParseDSN(dsn)

	if driver == DriverSQLite {
		if source == "" {
			return nil, fmt.Errorf("empty sqlite path")
		}
		if source != ":memory:" {
			// Ensure directory exists
			dir := filepath.Dir(source)
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		sep := "?"
		if strings.Contains(source, "?") {
			sep = "&"
		}
		source += sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite && strings.HasPrefix(source, ":memory:") {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate runs all pending migrations for the connection's dialect
func Migrate(ctx context.Context, db *sqlx.DB) error {
	list, ok := dialectMigrations[db.DriverName()]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}

	// Create migrations table
	if _, err := db.ExecContext(ctx, list.table); err != nil {
		return err
	}

	for _, m := range list.steps {
		if err := runMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
	}

	return nil
}

func runMigration(ctx context.Context, db *sqlx.DB, m migration) error {
	return WithTx(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
		// Check if already applied
		var count int
		err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM migrations WHERE name = ?"), m.name)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, stmt := range m.up {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, tx.Rebind("INSERT INTO migrations (name) VALUES (?)"), m.name)
		return err
	})
}
