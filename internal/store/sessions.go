package store

import (
	"context"
	"fmt"
	"time"
)

// SessionInfo summarizes one session label.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	Count     int       `json:"count"`
	FirstAt   time.Time `json:"first_at"`
	LastAt    time.Time `json:"last_at"`
}

// ListSessions returns every session label with its record count and
// activity window, most recently active first. Records without a label
// are skipped.
func (db *DB) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
		FROM memories
		WHERE session_id != ''
		GROUP BY session_id
		ORDER BY MAX(created_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var s SessionInfo
		var first, last int64
		if err := rows.Scan(&s.SessionID, &s.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.FirstAt = time.UnixMilli(first)
		s.LastAt = time.UnixMilli(last)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
