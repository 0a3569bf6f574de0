package store

import (
	"context"
	"fmt"
)

// AddTag appends a tag to a memory. The returned bool reports whether the
// tag was actually added; adding a tag the memory already carries is a
// no-op that leaves updated_at alone.
func (db *DB) AddTag(ctx context.Context, id int64, tag string) (*Memory, bool, error) {
	if tag == "" {
		return nil, false, fmt.Errorf("%w: empty tag", ErrValidation)
	}
	m, err := db.GetMemory(ctx, id)
	if err != nil {
		return nil, false, err
	}
	for _, t := range m.Tags {
		if t == tag {
			return m, false, nil
		}
	}
	m, err = db.UpdateMemory(ctx, id, UpdateParams{AddTags: []string{tag}})
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// RemoveTag drops a tag from a memory. The returned bool reports whether
// the memory had the tag.
func (db *DB) RemoveTag(ctx context.Context, id int64, tag string) (*Memory, bool, error) {
	m, err := db.GetMemory(ctx, id)
	if err != nil {
		return nil, false, err
	}
	idx := -1
	for i, t := range m.Tags {
		if t == tag {
			idx = i
			break
		}
	}
	if idx < 0 {
		return m, false, nil
	}
	tags := append(append([]string{}, m.Tags[:idx]...), m.Tags[idx+1:]...)
	m, err = db.UpdateMemory(ctx, id, UpdateParams{SetTags: &tags})
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// ClearTags removes every tag from a memory.
func (db *DB) ClearTags(ctx context.Context, id int64) (*Memory, error) {
	empty := []string{}
	return db.UpdateMemory(ctx, id, UpdateParams{SetTags: &empty})
}

// AddSeeAlso appends a cross-reference to another memory. The target id
// is stored as a weak reference and never checked for existence. The
// returned bool reports whether the reference was new.
func (db *DB) AddSeeAlso(ctx context.Context, id, refID int64) (*Memory, bool, error) {
	m, err := db.GetMemory(ctx, id)
	if err != nil {
		return nil, false, err
	}
	for _, r := range m.SeeAlso {
		if r == refID {
			return m, false, nil
		}
	}
	m, err = db.UpdateMemory(ctx, id, UpdateParams{AddSeeAlso: []int64{refID}})
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// TagCounts returns each distinct tag with the number of memories
// carrying it.
func (db *DB) TagCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, "SELECT tag, COUNT(*) FROM memory_tags GROUP BY tag")
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var tag string
		var n int
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		counts[tag] = n
	}
	return counts, rows.Err()
}
