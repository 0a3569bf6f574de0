package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/lazypower/mem/internal/store"
)

const (
	// DefaultDedupeThreshold is the bm25 score at or below which two
	// records count as near-duplicates during a scan. Lower thresholds
	// are stricter.
	DefaultDedupeThreshold = -3.0

	dedupeSimilarLimit = 10
)

// Cluster is one group of near-duplicate records found by DedupeScan.
// The seed record comes first; the rest follow in similarity order.
type Cluster struct {
	Members []*store.Memory `json:"members"`
}

// DedupeScan groups records into near-duplicate clusters without
// mutating anything. Records are visited in id order; each unclaimed
// record seeds a ranked self-query, and unclaimed matches at or below
// the threshold join its cluster. Clustering is greedy and single-pass:
// the first cluster to claim a record keeps it, and clusters of size
// one are dropped.
func (e *Engine) DedupeScan(ctx context.Context, threshold float64) ([]Cluster, error) {
	all, err := e.DB.AllMemories(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, nil
	}

	claimed := make(map[int64]bool)
	var clusters []Cluster
	for _, m := range all {
		if claimed[m.ID] {
			continue
		}

		similar, err := e.Similar(ctx, m, dedupeSimilarLimit, threshold)
		if err != nil {
			return nil, err
		}
		if len(similar) == 0 {
			continue
		}

		members := []*store.Memory{m}
		for _, s := range similar {
			if claimed[s.Memory.ID] {
				continue
			}
			members = append(members, s.Memory)
			claimed[s.Memory.ID] = true
		}
		if len(members) > 1 {
			claimed[m.ID] = true
			clusters = append(clusters, Cluster{Members: members})
		}
	}
	return clusters, nil
}

// MergeResult reports one cluster merge.
type MergeResult struct {
	WinnerID   int64    `json:"winner_id"`
	DeletedIDs []int64  `json:"deleted_ids"`
	Tags       []string `json:"tags"`
}

// MergeCluster collapses one cluster. The member with the newest
// created_at keeps its content, its tag set becomes the union of every
// member's tags (winner's order first), and the rest are deleted. Each
// deletion is its own transaction, so a failure part way through leaves
// the cluster half merged; the partial result comes back with the
// error.
func (e *Engine) MergeCluster(ctx context.Context, c Cluster) (*MergeResult, error) {
	if len(c.Members) < 2 {
		return nil, fmt.Errorf("%w: merge needs a cluster of at least two", store.ErrValidation)
	}

	members := append([]*store.Memory{}, c.Members...)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})
	winner := members[0]

	tags := append([]string{}, winner.Tags...)
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		seen[t] = true
	}
	for _, m := range members[1:] {
		for _, t := range m.Tags {
			if seen[t] {
				continue
			}
			tags = append(tags, t)
			seen[t] = true
		}
	}

	if _, err := e.DB.UpdateMemory(ctx, winner.ID, store.UpdateParams{SetTags: &tags}); err != nil {
		return nil, fmt.Errorf("merge tags into %d: %w", winner.ID, err)
	}

	res := &MergeResult{WinnerID: winner.ID, Tags: tags}
	for _, m := range members[1:] {
		if err := e.DB.DeleteMemory(ctx, m.ID); err != nil {
			return res, fmt.Errorf("delete duplicate %d: %w", m.ID, err)
		}
		res.DeletedIDs = append(res.DeletedIDs, m.ID)
		e.log.Debug("dedupe removed", "id", m.ID, "winner", winner.ID)
	}
	return res, nil
}

// DedupeMerge scans and merges every cluster with no confirmation.
// Returns the merges completed; on error the slice holds whatever
// finished beforehand.
func (e *Engine) DedupeMerge(ctx context.Context, threshold float64) ([]MergeResult, error) {
	clusters, err := e.DedupeScan(ctx, threshold)
	if err != nil {
		return nil, err
	}

	var results []MergeResult
	for _, c := range clusters {
		r, err := e.MergeCluster(ctx, c)
		if err != nil {
			return results, err
		}
		results = append(results, *r)
	}
	return results, nil
}
