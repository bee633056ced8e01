package db

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// IsPostgres reports whether databaseURL is a postgres DSN rather than a
// sqlite file path.
func IsPostgres(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// Open connects to postgres through pgx or to a sqlite file, depending on the
// shape of databaseURL.
func Open(databaseURL string) (*sqlx.DB, error) {
	if IsPostgres(databaseURL) {
		return NewPostgresDB(databaseURL)
	}
	return NewSQLiteDB(databaseURL)
}

func NewPostgresDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}

// NewSQLiteDB opens a sqlite database. ":memory:" is accepted as is.
func NewSQLiteDB(dbFile string) (*sqlx.DB, error) {
	dsn := dbFile
	if dbFile != ":memory:" {
		absPath, err := filepath.Abs(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = absPath
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// sqlite allows a single writer; an in-memory database also lives only
	// as long as its one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// RunMigrations applies the embedded migrations for the database's dialect.
func RunMigrations(db *sqlx.DB, databaseURL string) error {
	dialect := "sqlite"
	if IsPostgres(databaseURL) {
		dialect = "postgres"
	}

	source, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	var m *migrate.Migrate
	switch dialect {
	case "postgres":
		driver, err := migratepgx.WithInstance(db.DB, &migratepgx.Config{})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "pgx", driver)
		if err != nil {
			return fmt.Errorf("failed to create migration instance: %w", err)
		}
	default:
		driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("failed to create migration instance: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
