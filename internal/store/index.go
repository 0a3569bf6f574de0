package store

import (
	"context"
	"fmt"
)

// RebuildIndex regenerates the full-text index from the memories table.
// Safe to run at any time; returns the number of records indexed.
func (db *DB) RebuildIndex(ctx context.Context) (int, error) {
	if _, err := db.ExecContext(ctx, "INSERT INTO memories_fts(memories_fts) VALUES ('rebuild')"); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	n, err := db.CountMemories(ctx)
	if err != nil {
		return 0, fmt.Errorf("count after rebuild: %w", err)
	}
	return n, nil
}

// CheckIndex verifies the full-text index against the memories table and
// returns ErrIndexInconsistent when they disagree. The caller decides
// whether to RebuildIndex.
func (db *DB) CheckIndex(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, "INSERT INTO memories_fts(memories_fts, rank) VALUES ('integrity-check', 1)"); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexInconsistent, err)
	}
	return nil
}
