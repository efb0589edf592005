package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite3/*.sql migrations/mysql/*.sql
var EmbeddedMigrationsFS embed.FS

// goose keeps its dialect and base FS in package globals
var gooseMux sync.Mutex

// migrationsDir returns the embedded directory holding the driver's migrations
func migrationsDir(driver string) (string, error) {
	switch driver {
	case DriverSQLite, DriverMySQL:
		return "migrations/" + driver, nil
	}
	return "", fmt.Errorf("no migrations for driver %q", driver)
}

// Migrate applies all pending embedded migrations for the store's dialect
func (db *Database) Migrate(ctx context.Context) error {
	dir, err := migrationsDir(db.driver)
	if err != nil {
		return err
	}

	gooseMux.Lock()
	defer gooseMux.Unlock()

	goose.SetBaseFS(EmbeddedMigrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(db.driver); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())

	if err := goose.UpContext(ctx, db.mainDB, dir); err != nil {
		return fmt.Errorf("failed to migrate main database: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db.mainDB)
	if err == nil {
		log.Printf("[DB]: schema at version %d", version)
	}
	return nil
}

// listMigrations returns the embedded migration file names for a driver
func listMigrations(driver string) ([]string, error) {
	dir, err := migrationsDir(driver)
	if err != nil {
		return nil, err
	}
	return fs.Glob(EmbeddedMigrationsFS, dir+"/*.sql")
}
