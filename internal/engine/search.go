package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/lazypower/mem/internal/store"
)

// ScoredMemory pairs a recalled record with its relevance score. Scores
// keep the bm25 cost convention: lower (more negative) means a stronger
// match.
type ScoredMemory struct {
	Memory *store.Memory `json:"memory"`
	Score  float64       `json:"score"`
}

// RecallOpts controls recall filtering and ordering.
type RecallOpts struct {
	Limit          int      // max results (default 10)
	Tags           []string // keep only records carrying any of these tags
	SessionID      string   // keep only records in this session
	MinImportance  int      // keep only records at or above this importance
	RecentFirst    bool     // order by creation time instead of relevance
	BoostImportant bool     // order by importance first, relevance within
}

func (o RecallOpts) limit() int {
	if o.Limit <= 0 {
		return 10
	}
	return o.Limit
}

// Recall runs a ranked full-text query and applies the metadata filters
// the index cannot express. It over-fetches from the index so filtered
// result sets still fill the limit. An empty query matches nothing.
func (e *Engine) Recall(ctx context.Context, query string, opts RecallOpts) ([]ScoredMemory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	limit := opts.limit()

	hits, err := e.DB.SearchMemories(ctx, query, limit*2)
	if err != nil {
		return nil, err
	}

	var results []ScoredMemory
	for _, h := range hits {
		m := h.Memory
		if len(opts.Tags) > 0 && !hasAnyTag(m, opts.Tags) {
			continue
		}
		if opts.SessionID != "" && m.SessionID != opts.SessionID {
			continue
		}
		if opts.MinImportance > 0 && m.Importance < opts.MinImportance {
			continue
		}
		results = append(results, ScoredMemory{Memory: m, Score: h.Score})
	}

	switch {
	case opts.RecentFirst:
		sort.Slice(results, func(i, j int) bool {
			a, b := results[i].Memory, results[j].Memory
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
	case opts.BoostImportant:
		sort.Slice(results, func(i, j int) bool {
			a, b := results[i], results[j]
			if a.Memory.Importance != b.Memory.Importance {
				return a.Memory.Importance > b.Memory.Importance
			}
			return a.Score < b.Score
		})
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func hasAnyTag(m *store.Memory, tags []string) bool {
	for _, want := range tags {
		for _, t := range m.Tags {
			if t == want {
				return true
			}
		}
	}
	return false
}
