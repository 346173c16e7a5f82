package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrations embed.FS

// DB wraps the shared-schema store connection
type DB struct {
	*sqlx.DB
	Driver string
}

// Config holds database configuration
type Config struct {
	Driver  string
	DSN     string
	Migrate bool
}

// Open connects to the store and, when asked, runs the embedded migrations
func Open(cfg Config) (*DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = sqlx.Open("pgx", cfg.DSN)
	case DriverSQLite:
		db, err = sqlx.Open("sqlite", cfg.DSN)
		if err == nil {
			// one writer; also keeps :memory: databases on a single connection
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Migrate {
		if err := migrateUp(db.DB, cfg); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &DB{DB: db, Driver: cfg.Driver}, nil
}

func migrateUp(db *sql.DB, cfg Config) error {
	src, err := iofs.New(migrations, "migrations/"+cfg.Driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var (
		inst  migratedb.Driver
		owned *sql.DB
	)
	switch cfg.Driver {
	case DriverPostgres:
		// the postgres driver pins a connection and closes its handle, so it gets its own
		owned, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
		inst, err = migratepg.WithInstance(owned, &migratepg.Config{})
	case DriverSQLite:
		inst, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
	if err != nil {
		src.Close()
		if owned != nil {
			owned.Close()
		}
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, cfg.Driver, inst)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if owned != nil {
		m.Close()
		return nil
	}
	return src.Close()
}
