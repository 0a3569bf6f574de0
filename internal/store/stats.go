package store

import (
	"context"
	"fmt"
	"os"
)

// Stats summarizes the database for the stats command and endpoint.
type Stats struct {
	Path         string         `json:"db_path"`
	SizeBytes    int64          `json:"db_size_bytes"`
	MemoryCount  int            `json:"memory_count"`
	TagCount     int            `json:"tag_count"`
	Tags         map[string]int `json:"tags"`
	SessionCount int            `json:"session_count"`
}

// Stats gathers record, tag, and session counts plus the on-disk size.
// SizeBytes stays zero for in-memory databases.
func (db *DB) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{Path: db.Path, Tags: map[string]int{}}
	if fi, err := os.Stat(db.Path); err == nil {
		s.SizeBytes = fi.Size()
	}

	var err error
	if s.MemoryCount, err = db.CountMemories(ctx); err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}
	if s.Tags, err = db.TagCounts(ctx); err != nil {
		return nil, err
	}
	s.TagCount = len(s.Tags)
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT session_id) FROM memories WHERE session_id != ''",
	).Scan(&s.SessionCount); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	return s, nil
}
