// Package database provides the relational store for go-guweb:
// accounts, per-mode stats and runtime config values.
package database

import (
	"database/sql"
	"log"
)

// GetMainDB returns the main database connection for direct access
// This should only be used by specialized tools and tests
func (db *Database) GetMainDB() *sql.DB {
	return db.mainDB
}

// Driver returns the sql driver name the store was opened with
func (db *Database) Driver() string {
	return db.driver
}

// Close closes the underlying connection pool
func (db *Database) Close() error {
	if db == nil || db.mainDB == nil {
		return nil
	}
	if err := db.mainDB.Close(); err != nil {
		log.Printf("[DB]: close failed: %v", err)
		return err
	}
	return nil
}
