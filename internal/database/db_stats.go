package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-while/go-guweb/internal/models"
)

const query_GetStats = `SELECT id, mode, tscore, rscore, pp, plays, playtime, acc, max_combo FROM stats WHERE id = ? AND mode = ?`

// GetStats returns the stats row of an account for a mode index, or nil
func (db *Database) GetStats(ctx context.Context, id int64, mode int) (*models.Stats, error) {
	var s models.Stats
	err := retryableQueryRowScan(ctx, db.mainDB, query_GetStats, []interface{}{id, mode},
		&s.ID, &s.Mode, &s.TScore, &s.RScore, &s.PP, &s.Plays, &s.Playtime, &s.Acc, &s.MaxCombo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// sortColumns maps leaderboard sort keys to stats columns
var sortColumns = map[string]string{
	"tscore":   "s.tscore",
	"rscore":   "s.rscore",
	"pp":       "s.pp",
	"plays":    "s.plays",
	"playtime": "s.playtime",
	"acc":      "s.acc",
	"maxcombo": "s.max_combo",
}

// the ORDER BY column is substituted from sortColumns only
const query_GetLeaderboard = `SELECT u.id, u.name, u.country, s.id, s.mode, s.tscore, s.rscore, s.pp, s.plays, s.playtime, s.acc, s.max_combo
FROM stats s JOIN users u ON u.id = s.id
WHERE s.mode = ? AND (u.priv & ?) != 0 AND u.id != ?
ORDER BY %s DESC, u.id ASC LIMIT ?`

// GetLeaderboard returns the top unrestricted players of a mode index
// ordered by the given sort key
func (db *Database) GetLeaderboard(ctx context.Context, mode int, sort string, limit int) ([]*models.LeaderboardEntry, error) {
	col, ok := sortColumns[sort]
	if !ok {
		return nil, fmt.Errorf("invalid leaderboard sort %q", sort)
	}
	rows, err := retryableQuery(ctx, db.mainDB, fmt.Sprintf(query_GetLeaderboard, col),
		mode, models.Normal, models.BotUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		e := &models.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&e.UserID, &e.Name, &e.Country, &e.ID, &e.Mode, &e.TScore, &e.RScore,
			&e.PP, &e.Plays, &e.Playtime, &e.Acc, &e.MaxCombo); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
