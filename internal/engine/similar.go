package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/lazypower/mem/internal/store"
)

const (
	// SimilarHintLimit and SimilarHintThreshold govern the "similar
	// existing memories" hint shown after storing a record. The hint
	// threshold is tighter than the dedupe default, so only strong
	// matches surface at save time.
	SimilarHintLimit     = 3
	SimilarHintThreshold = -5.0

	seedWordLimit = 10
)

// Similar finds records that read like duplicates of m. The leading
// words of its content become an OR query against the text index;
// matches scoring at or below threshold come back best first, excluding
// m itself, capped at limit. A seed the index grammar rejects means no
// similars, not an error.
func (e *Engine) Similar(ctx context.Context, m *store.Memory, limit int, threshold float64) ([]ScoredMemory, error) {
	if limit <= 0 {
		limit = SimilarHintLimit
	}
	query := seedQuery(m.Content)
	if query == "" {
		return nil, nil
	}

	hits, err := e.DB.SearchMemories(ctx, query, limit+1)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			return nil, nil
		}
		return nil, err
	}

	var similar []ScoredMemory
	for _, h := range hits {
		if h.Memory.ID == m.ID {
			continue
		}
		if h.Score > threshold {
			continue
		}
		similar = append(similar, ScoredMemory{Memory: h.Memory, Score: h.Score})
		if len(similar) >= limit {
			break
		}
	}
	return similar, nil
}

// seedQuery derives an OR query from the first words of content. Each
// word is quoted so index operator characters inside it read as plain
// text.
func seedQuery(content string) string {
	words := strings.Fields(content)
	if len(words) > seedWordLimit {
		words = words[:seedWordLimit]
	}
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}
