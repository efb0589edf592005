package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-while/go-guweb/internal/models"
)

const userColumns = `id, name, safe_name, email, pw_bcrypt, priv, country, silence_end, creation_time, latest_activity`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.SafeName, &u.Email, &u.PwBcrypt, &u.Priv,
		&u.Country, &u.SilenceEnd, &u.CreationTime, &u.LatestActivity); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *Database) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	for attempt := 0; ; attempt++ {
		u, err := scanUser(db.mainDB.QueryRowContext(ctx, query, arg))
		switch {
		case err == nil:
			return u, nil
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		case isRetryableError(err) && attempt < maxRetries-1:
			if !backoff(ctx, attempt) {
				return nil, ctx.Err()
			}
		default:
			return nil, err
		}
	}
}

const query_GetUserBySafeName = `SELECT ` + userColumns + ` FROM users WHERE safe_name = ?`

// GetUserBySafeName returns the account with the given safe name, or nil
func (db *Database) GetUserBySafeName(ctx context.Context, safeName string) (*models.User, error) {
	return db.getUser(ctx, query_GetUserBySafeName, safeName)
}

const query_GetUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID returns the account with the given id, or nil
func (db *Database) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, query_GetUserByID, id)
}

// a display name is taken when it or its safe form is in use
const query_NameExists = `SELECT 1 FROM users WHERE name = ? OR safe_name = ? LIMIT 1`

// NameExists reports whether an account already uses name
func (db *Database) NameExists(ctx context.Context, name string) (bool, error) {
	return db.exists(ctx, query_NameExists, name, models.SafeName(name))
}

const query_EmailExists = `SELECT 1 FROM users WHERE email = ? LIMIT 1`

// EmailExists reports whether an account already uses email
func (db *Database) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.exists(ctx, query_EmailExists, email)
}

func (db *Database) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := retryableQueryRowScan(ctx, db.mainDB, query, args, &one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const query_InsertUser = `INSERT INTO users (name, safe_name, email, priv, pw_bcrypt, country, silence_end, creation_time, latest_activity) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
const query_InsertEmptyStats = `INSERT INTO stats (id, mode) VALUES (?, ?)`

// CreateUser inserts u and its zeroed stats rows in one transaction.
// On success u.ID is set to the new account id.
func (db *Database) CreateUser(ctx context.Context, u *models.User) error {
	return retryableTransactionExec(ctx, db.mainDB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query_InsertUser, u.Name, u.SafeName, u.Email, u.Priv,
			u.PwBcrypt, u.Country, u.SilenceEnd, u.CreationTime, u.LatestActivity)
		if err != nil {
			return fmt.Errorf("insert user %q: %w", u.SafeName, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert user %q: %w", u.SafeName, err)
		}

		stmt, err := tx.PrepareContext(ctx, query_InsertEmptyStats)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, mode := range models.AllModeIndexes {
			if _, err := stmt.ExecContext(ctx, id, mode); err != nil {
				return fmt.Errorf("insert stats %d/%d: %w", id, mode, err)
			}
		}
		u.ID = id
		return nil
	})
}

const query_UpdatePrivileges = `UPDATE users SET priv = ? WHERE id = ?`

// UpdatePrivileges overwrites the privilege bitmask of an account
func (db *Database) UpdatePrivileges(ctx context.Context, id int64, priv models.Privileges) error {
	return db.updateOne(ctx, query_UpdatePrivileges, priv, id)
}

const query_SetSilenceEnd = `UPDATE users SET silence_end = ? WHERE id = ?`

// SetSilenceEnd sets the unix time at which an account's silence ends
func (db *Database) SetSilenceEnd(ctx context.Context, id int64, end int64) error {
	return db.updateOne(ctx, query_SetSilenceEnd, end, id)
}

func (db *Database) updateOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := retryableExec(ctx, db.mainDB, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const query_ListUsers = `SELECT ` + userColumns + ` FROM users ORDER BY id ASC LIMIT ? OFFSET ?`

// ListUsers returns accounts ordered by id
func (db *Database) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	rows, err := retryableQuery(ctx, db.mainDB, query_ListUsers, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
