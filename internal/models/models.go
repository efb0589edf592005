// Package models defines the records shared by the web frontend, the
// store and the user manager.
package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BotUserID is the reserved id of the in-game bot account.
// The stored hash of that account is not a usable bcrypt hash.
const BotUserID int64 = 1

// UnknownCountry is stored when the requester's country can't be resolved.
const UnknownCountry = "xx"

// User represents an account row of the users table
type User struct {
	ID             int64      `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	SafeName       string     `json:"safe_name" db:"safe_name"`
	Email          string     `json:"email" db:"email"`
	PwBcrypt       string     `json:"-" db:"pw_bcrypt"`
	Priv           Privileges `json:"priv" db:"priv"`
	Country        string     `json:"country" db:"country"`
	SilenceEnd     int64      `json:"silence_end" db:"silence_end"`         // unix seconds
	CreationTime   int64      `json:"creation_time" db:"creation_time"`     // unix seconds
	LatestActivity int64      `json:"latest_activity" db:"latest_activity"` // unix seconds
}

// Stats represents one row of the stats table for a user and mode index
type Stats struct {
	ID       int64   `json:"id" db:"id"`
	Mode     int     `json:"mode" db:"mode"`
	TScore   int64   `json:"tscore" db:"tscore"`
	RScore   int64   `json:"rscore" db:"rscore"`
	PP       int     `json:"pp" db:"pp"`
	Plays    int     `json:"plays" db:"plays"`
	Playtime int     `json:"playtime" db:"playtime"`
	Acc      float64 `json:"acc" db:"acc"`
	MaxCombo int     `json:"max_combo" db:"max_combo"`
}

// LeaderboardEntry is one ranked line of the leaderboard page
type LeaderboardEntry struct {
	Rank    int
	UserID  int64
	Name    string
	Country string
	Stats
}

// SessionUser is the snapshot of a User kept in an authenticated session.
// It is taken at login and is not refreshed on later moderation actions.
type SessionUser struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Priv       Privileges `json:"priv"`
	SilenceEnd int64      `json:"silence_end"`
	IsStaff    bool       `json:"is_staff"`
}

// NewSessionUser builds the session snapshot of u
func NewSessionUser(u *User) *SessionUser {
	return &SessionUser{
		ID:         u.ID,
		Name:       u.Name,
		Priv:       u.Priv,
		SilenceEnd: u.SilenceEnd,
		IsStaff:    u.Priv.Has(Staff),
	}
}

// SafeName returns the normalized form of a display name used for
// uniqueness checks and lookups: lowercase, spaces replaced by underscores.
func SafeName(name string) string {
	return strings.ReplaceAll(cases.Lower(language.Und).String(name), " ", "_")
}
