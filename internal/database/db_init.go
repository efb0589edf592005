package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite3 driver

	"github.com/go-while/go-guweb/internal/config"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Database wraps the connection to the users/stats/config store
type Database struct {
	mainDB *sql.DB
	driver string
}

// OpenDatabase connects to the configured store and brings its schema up to date
func OpenDatabase(ctx context.Context, dbconfig config.DatabaseConfig) (*Database, error) {
	db := &Database{driver: dbconfig.Driver}
	if err := db.initMainDB(ctx, dbconfig); err != nil {
		return nil, fmt.Errorf("failed to initialize main database: %w", err)
	}

	// Run migrations to ensure all tables exist
	if err := db.Migrate(ctx); err != nil {
		db.mainDB.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Printf("[DB]: %s store ready", db.driver)
	return db, nil
}

// NewWithDB wraps an already opened connection. Migrations are not run.
func NewWithDB(conn *sql.DB, driver string) *Database {
	return &Database{mainDB: conn, driver: driver}
}

// initMainDB initializes the main database connection
func (db *Database) initMainDB(ctx context.Context, dbconfig config.DatabaseConfig) error {
	dsn := dbconfig.DataSourceName()
	if db.driver == DriverSQLite && !isMemoryDSN(dsn) {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	mainDB, err := sql.Open(db.driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open main database: %w", err)
	}

	// Configure connection pool
	switch {
	case isMemoryDSN(dsn):
		// every connection to :memory: is its own database
		mainDB.SetMaxOpenConns(1)
	case dbconfig.MaxOpenConns > 0:
		mainDB.SetMaxOpenConns(dbconfig.MaxOpenConns)
	}
	if db.driver == DriverMySQL {
		mainDB.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mainDB.PingContext(pingCtx); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to ping main database: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to ping main database: %w", err)
	}

	if db.driver == DriverSQLite {
		if err := applySQLitePragmas(ctx, mainDB, isMemoryDSN(dsn)); err != nil {
			if cerr := mainDB.Close(); cerr != nil {
				return fmt.Errorf("failed to apply SQLite pragmas: %w; also failed to close mainDB: %v", err, cerr)
			}
			return fmt.Errorf("failed to apply SQLite pragmas: %w", err)
		}
	}

	db.mainDB = mainDB
	return nil
}

// applySQLitePragmas applies performance and configuration pragmas to SQLite connection
func applySQLitePragmas(ctx context.Context, conn *sql.DB, memory bool) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000", // 30 seconds
	}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute pragma '%s': %w", pragma, err)
		}
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}
