package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lazypower/mem/internal/store"
)

// seedTrio stores three near-identical records at t1 < t2 < t3 plus one
// unrelated record, returning the trio oldest first.
func seedTrio(t *testing.T, eng *Engine) [3]*store.Memory {
	t.Helper()
	base := time.Now().Add(-3 * time.Hour)

	a := remember(t, eng, RememberParams{CreateParams: store.CreateParams{
		Content: "the nightly etl job loads invoices into the postgres warehouse",
		Tags:    []string{"etl"},
	}})
	backdate(t, eng, a.ID, base)
	b := remember(t, eng, RememberParams{CreateParams: store.CreateParams{
		Content: "the nightly etl job loads invoices into the postgres lake",
		Tags:    []string{"postgres"},
	}})
	backdate(t, eng, b.ID, base.Add(time.Hour))
	c := remember(t, eng, RememberParams{CreateParams: store.CreateParams{
		Content: "the nightly etl job loads invoices into the postgres cluster",
		Tags:    []string{"nightly"},
	}})
	backdate(t, eng, c.ID, base.Add(2*time.Hour))

	remember(t, eng, RememberParams{CreateParams: store.CreateParams{
		Content: "buy coffee beans",
	}})

	// Reload so CreatedAt reflects the backdating.
	for i, id := range []int64{a.ID, b.ID, c.ID} {
		m, err := eng.DB.GetMemory(context.Background(), id)
		if err != nil {
			t.Fatalf("GetMemory %d: %v", id, err)
		}
		switch i {
		case 0:
			a = m
		case 1:
			b = m
		case 2:
			c = m
		}
	}
	return [3]*store.Memory{a, b, c}
}

func TestDedupeScan(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	trio := seedTrio(t, eng)

	clusters, err := eng.DedupeScan(ctx, -0.5)
	if err != nil {
		t.Fatalf("DedupeScan: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want exactly 1", len(clusters))
	}
	members := clusters[0].Members
	if len(members) != 3 {
		t.Fatalf("cluster size = %d, want 3", len(members))
	}
	if members[0].ID != trio[0].ID {
		t.Errorf("seed = %d, want lowest id %d first", members[0].ID, trio[0].ID)
	}
	got := map[int64]bool{}
	for _, m := range members {
		got[m.ID] = true
	}
	for _, m := range trio {
		if !got[m.ID] {
			t.Errorf("cluster missing %d", m.ID)
		}
	}

	// A scan never mutates the store.
	n, err := eng.DB.CountMemories(ctx)
	if err != nil {
		t.Fatalf("CountMemories: %v", err)
	}
	if n != 4 {
		t.Errorf("count after scan = %d, want 4", n)
	}
}

func TestDedupeScanNoDuplicates(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	remember(t, eng, RememberParams{CreateParams: store.CreateParams{Content: "alpha omega"}})
	remember(t, eng, RememberParams{CreateParams: store.CreateParams{Content: "totally different words"}})

	clusters, err := eng.DedupeScan(ctx, DefaultDedupeThreshold)
	if err != nil {
		t.Fatalf("DedupeScan: %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("clusters = %d, want 0", len(clusters))
	}
}

func TestDedupeScanTooFewRecords(t *testing.T) {
	eng := testEngine(t)

	remember(t, eng, RememberParams{CreateParams: store.CreateParams{Content: "lonely"}})

	clusters, err := eng.DedupeScan(context.Background(), DefaultDedupeThreshold)
	if err != nil {
		t.Fatalf("DedupeScan: %v", err)
	}
	if clusters != nil {
		t.Errorf("clusters = %v, want nil", clusters)
	}
}

func TestMergeCluster(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	trio := seedTrio(t, eng)

	clusters, err := eng.DedupeScan(ctx, -0.5)
	if err != nil {
		t.Fatalf("DedupeScan: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}

	res, err := eng.MergeCluster(ctx, clusters[0])
	if err != nil {
		t.Fatalf("MergeCluster: %v", err)
	}

	newest := trio[2]
	if res.WinnerID != newest.ID {
		t.Errorf("WinnerID = %d, want newest %d", res.WinnerID, newest.ID)
	}
	if !reflect.DeepEqual(res.DeletedIDs, []int64{trio[1].ID, trio[0].ID}) {
		t.Errorf("DeletedIDs = %v, want [%d %d]", res.DeletedIDs, trio[1].ID, trio[0].ID)
	}

	winner, err := eng.DB.GetMemory(ctx, newest.ID)
	if err != nil {
		t.Fatalf("GetMemory winner: %v", err)
	}
	if winner.Content != newest.Content {
		t.Errorf("Content = %q, want newest member's kept verbatim", winner.Content)
	}
	// Union keeps the winner's tags first, then the rest newest first.
	if !reflect.DeepEqual(winner.Tags, []string{"nightly", "postgres", "etl"}) {
		t.Errorf("Tags = %v, want [nightly postgres etl]", winner.Tags)
	}

	for _, loser := range []*store.Memory{trio[0], trio[1]} {
		if _, err := eng.DB.GetMemory(ctx, loser.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("loser %d: err = %v, want ErrNotFound", loser.ID, err)
		}
	}
}

func TestMergeClusterRejectsSingleton(t *testing.T) {
	eng := testEngine(t)

	m := remember(t, eng, RememberParams{CreateParams: store.CreateParams{Content: "solo"}})

	_, err := eng.MergeCluster(context.Background(), Cluster{Members: []*store.Memory{m}})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestDedupeMerge(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	trio := seedTrio(t, eng)

	results, err := eng.DedupeMerge(ctx, -0.5)
	if err != nil {
		t.Fatalf("DedupeMerge: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].WinnerID != trio[2].ID || len(results[0].DeletedIDs) != 2 {
		t.Errorf("result = %+v, want winner %d with 2 deleted", results[0], trio[2].ID)
	}

	n, err := eng.DB.CountMemories(ctx)
	if err != nil {
		t.Fatalf("CountMemories: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want winner plus unrelated", n)
	}

	// Idempotent once collapsed.
	again, err := eng.DedupeMerge(ctx, -0.5)
	if err != nil {
		t.Fatalf("second DedupeMerge: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second pass results = %d, want 0", len(again))
	}
}
