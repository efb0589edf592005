package database

import (
	"context"
	"database/sql"
	"errors"
)

const ConfigRegistrationEnabled = "registration_enabled"

const query_GetConfigValue = "SELECT value FROM config WHERE `key` = ?"

// GetConfigValue retrieves a configuration value from the config table
func (db *Database) GetConfigValue(ctx context.Context, key string) (string, error) {
	var value string
	err := retryableQueryRowScan(ctx, db.mainDB, query_GetConfigValue, []interface{}{key}, &value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil // Return empty string for missing keys
		}
		return "", err
	}
	return value, nil
}

// REPLACE INTO is understood by both SQLite and MySQL
const query_SetConfigValue = "REPLACE INTO config (`key`, value) VALUES (?, ?)"

// SetConfigValue sets or updates a configuration value in the config table
func (db *Database) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := retryableExec(ctx, db.mainDB, query_SetConfigValue, key, value)
	return err
}

// SetConfigBool sets a boolean configuration value
func (db *Database) SetConfigBool(ctx context.Context, key string, value bool) error {
	stringValue := "false"
	if value {
		stringValue = "true"
	}
	return db.SetConfigValue(ctx, key, stringValue)
}

// IsRegistrationEnabled reports the registration_enabled config row.
// ok is false when no row exists so callers can fall back to their default.
func (db *Database) IsRegistrationEnabled(ctx context.Context) (enabled bool, ok bool, err error) {
	value, err := db.GetConfigValue(ctx, ConfigRegistrationEnabled)
	if err != nil {
		return false, false, err
	}
	if value == "" {
		return false, false, nil
	}
	return value == "true", true, nil
}
