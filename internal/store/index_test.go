package store

import (
	"context"
	"errors"
	"testing"
)

func TestRebuildIndex(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	mustCreate(t, db, CreateParams{Content: "first note"})
	mustCreate(t, db, CreateParams{Content: "second note"})

	n, err := db.RebuildIndex(ctx)
	if err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	if n != 2 {
		t.Errorf("indexed = %d, want 2", n)
	}

	hits, err := db.SearchMemories(ctx, "note", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("hits after rebuild = %d, want 2", len(hits))
	}
}

func TestRebuildIndexIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	mustCreate(t, db, CreateParams{Content: "stable entry about caching"})
	mustCreate(t, db, CreateParams{Content: "another caching note"})

	snapshot := func() []SearchHit {
		hits, err := db.SearchMemories(ctx, "caching", 10)
		if err != nil {
			t.Fatalf("SearchMemories: %v", err)
		}
		return hits
	}

	if _, err := db.RebuildIndex(ctx); err != nil {
		t.Fatalf("first RebuildIndex: %v", err)
	}
	first := snapshot()
	if _, err := db.RebuildIndex(ctx); err != nil {
		t.Fatalf("second RebuildIndex: %v", err)
	}
	second := snapshot()

	if len(first) != len(second) {
		t.Fatalf("result count changed: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Memory.ID != second[i].Memory.ID || first[i].Score != second[i].Score {
			t.Errorf("result %d: (%d, %f) then (%d, %f), want identical",
				i, first[i].Memory.ID, first[i].Score, second[i].Memory.ID, second[i].Score)
		}
	}
}

func TestCheckIndexClean(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	mustCreate(t, db, CreateParams{Content: "indexed fine"})

	if err := db.CheckIndex(ctx); err != nil {
		t.Errorf("CheckIndex: %v", err)
	}
}

func TestCheckIndexDetectsDrift(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	m := mustCreate(t, db, CreateParams{Content: "drifting entry", Context: "ctx"})

	// Knock the index out from under the row.
	if _, err := db.Exec(
		"INSERT INTO memories_fts(memories_fts, rowid, content, context) VALUES ('delete', ?, ?, ?)",
		m.ID, m.Content, m.Context,
	); err != nil {
		t.Fatalf("drop index entry: %v", err)
	}

	if err := db.CheckIndex(ctx); !errors.Is(err, ErrIndexInconsistent) {
		t.Fatalf("CheckIndex: err = %v, want ErrIndexInconsistent", err)
	}

	if _, err := db.RebuildIndex(ctx); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	if err := db.CheckIndex(ctx); err != nil {
		t.Errorf("CheckIndex after rebuild: %v", err)
	}
	hits, err := db.SearchMemories(ctx, "drifting", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("hits after repair = %d, want 1", len(hits))
	}
}
