package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/tally/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationConnString enables multi-statement execution for MySQL, whose
// migration files carry several statements each.
func migrationConnString(backend schema.DatabaseBackend, connStr string) (string, error) {
	if backend != schema.MySQLBackend {
		return connStr, nil
	}
	cfg, err := gomysql.ParseDSN(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}

// migrationDriver wraps an open handle in the golang-migrate driver for backend.
func migrationDriver(backend schema.DatabaseBackend, db *sql.DB) (database.Driver, error) {
	var (
		driver database.Driver
		err    error
	)
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return nil, fmt.Errorf("no migration driver for backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", backend, err)
	}
	return driver, nil
}

// newMigrator pairs the embedded scripts for backend with its driver.
func newMigrator(backend schema.DatabaseBackend, db *sql.DB) (*migrate.Migrate, error) {
	driver, err := migrationDriver(backend, db)
	if err != nil {
		return nil, err
	}
	scripts, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return nil, fmt.Errorf("no migrations embedded for %s: %w", backend, err)
	}
	source, err := iofs.New(scripts, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "tally", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare migrations: %w", err)
	}
	return m, nil
}

// stepTo moves m to target and describes what happened.
// A negative target means latest, zero means every migration rolled back.
func stepTo(m *migrate.Migrate, from uint, target int) (string, error) {
	var (
		err   error
		label string
	)
	switch {
	case target < 0:
		err, label = m.Up(), "the latest version"
	case target == 0:
		err, label = m.Down(), "version 0"
	default:
		err, label = m.Migrate(uint(target)), fmt.Sprintf("version %d", target)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return fmt.Sprintf("Store schema already at %s, nothing to do.", label), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to move store schema to %s: %w", label, err)
	}
	to, _, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		to = 0
	}
	return fmt.Sprintf("Store schema moved from version %d to version %d.", from, to), nil
}

// MigrateStore applies the embedded schema migrations to a SQL store.
// targetVersion follows stepTo: negative for latest, zero to roll back fully.
func MigrateStore(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return errors.New("the none backend has no schema to migrate")
	}

	connStr, err := migrationConnString(backend, connStr)
	if err != nil {
		return err
	}
	db, _, err := openDB(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m, err := newMigrator(backend, db)
	if err != nil {
		return err
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read store schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("store schema is dirty at version %d, force a version before migrating again", from)
	}

	summary, err := stepTo(m, from, targetVersion)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}
