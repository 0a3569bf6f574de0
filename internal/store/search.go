package store

import (
	"context"
	"fmt"
	"strings"
)

// SearchHit pairs a memory with its relevance score. Scores follow the
// bm25 cost convention: lower (more negative) means a stronger match.
type SearchHit struct {
	Memory *Memory
	Score  float64
}

// SearchMemories runs a ranked full-text query over content and context.
// The query string uses FTS5 grammar, so OR, NOT, "phrases", and prefix*
// all work; a malformed query maps to ErrValidation. An empty or blank
// query matches nothing.
func (db *DB) SearchMemories(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.QueryContext(ctx, `
		SELECT m.id, m.content, m.context, m.source, m.session_id, m.supersedes,
			m.source_url, m.source_file, m.importance, m.created_at, m.updated_at,
			bm25(memories_fts) AS score
		FROM memories_fts
		JOIN memories m ON m.id = memories_fts.rowid
		WHERE memories_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, matchError(query, err)
	}
	defer rows.Close()

	var hits []SearchHit
	var ms []*Memory
	for rows.Next() {
		var score float64
		m, err := scanMemory(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hits = append(hits, SearchHit{Memory: m, Score: score})
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, matchError(query, err)
	}
	if err := db.loadAssociations(ctx, ms); err != nil {
		return nil, err
	}
	return hits, nil
}

// matchError distinguishes a user-written query the FTS5 parser rejected
// from a real storage failure. The driver surfaces parse problems only as
// message text.
func matchError(query string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "syntax error") ||
		strings.Contains(msg, "unterminated string") ||
		strings.Contains(msg, "no such column") {
		return fmt.Errorf("%w: query %q: %v", ErrValidation, query, err)
	}
	return fmt.Errorf("search %q: %w", query, err)
}
