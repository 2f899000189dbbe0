package repository

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	config "github.com/maheshrc27/postpilot/configs"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverFile     = "file"
	DriverMemory   = "memory"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenPreferences builds the preference repository selected by cfg.Driver.
// The returned closer releases the underlying database, if any.
func OpenPreferences(cfg config.Preferences) (PreferenceRepository, io.Closer, error) {
	switch cfg.Driver {
	case DriverPostgres:
		db, err := OpenDatabase(DriverPostgres, cfg.PostgresURI)
		if err != nil {
			return nil, nil, err
		}
		return NewPreferenceRepository(db), db, nil
	case DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		db, err := OpenDatabase(DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return NewPreferenceRepository(db), db, nil
	case DriverFile:
		return NewFilePreferenceRepository(cfg.FilePath), noopCloser{}, nil
	case DriverMemory:
		return NewMemoryPreferenceRepository(), noopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported preferences driver %q", cfg.Driver)
	}
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// OpenDatabase connects to driver/dsn and applies pending migrations.
func OpenDatabase(driver, dsn string) (*sqlx.DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	if err := runMigrations(sqlDB, driver); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db := sqlx.NewDb(sqlDB, driver)
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func runMigrations(db *sql.DB, driver string) error {
	var (
		instance database.Driver
		err      error
	)
	switch driver {
	case DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		instance, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return fmt.Errorf("no migration driver for %q", driver)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
