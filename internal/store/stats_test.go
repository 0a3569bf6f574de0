package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	mustCreate(t, db, CreateParams{Content: "one", Tags: []string{"api"}, SessionID: "s1"})
	mustCreate(t, db, CreateParams{Content: "two", Tags: []string{"api", "database"}, SessionID: "s1"})
	mustCreate(t, db, CreateParams{Content: "three"})

	s, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.MemoryCount != 3 {
		t.Errorf("MemoryCount = %d, want 3", s.MemoryCount)
	}
	if s.TagCount != 2 {
		t.Errorf("TagCount = %d, want 2", s.TagCount)
	}
	if s.Tags["api"] != 2 || s.Tags["database"] != 1 {
		t.Errorf("Tags = %v, want api:2 database:1", s.Tags)
	}
	if s.SessionCount != 1 {
		t.Errorf("SessionCount = %d, want 1", s.SessionCount)
	}
	if s.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", s.Path)
	}
}

func TestStatsFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	mustCreate(t, db, CreateParams{Content: "on disk"})

	s, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.SizeBytes == 0 {
		t.Error("SizeBytes = 0, want > 0 for file database")
	}
}
