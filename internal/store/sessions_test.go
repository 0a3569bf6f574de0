package store

import (
	"context"
	"testing"
	"time"
)

func TestListSessions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	base := time.Now().Add(-2 * time.Hour)
	a := mustCreate(t, db, CreateParams{Content: "early in alpha", SessionID: "alpha"})
	backdate(t, db, a.ID, base)
	b := mustCreate(t, db, CreateParams{Content: "late in alpha", SessionID: "alpha"})
	backdate(t, db, b.ID, base.Add(30*time.Minute))
	c := mustCreate(t, db, CreateParams{Content: "only beta", SessionID: "beta"})
	backdate(t, db, c.ID, base.Add(time.Hour))
	mustCreate(t, db, CreateParams{Content: "no session"})

	sessions, err := db.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len = %d, want 2", len(sessions))
	}
	if sessions[0].SessionID != "beta" || sessions[1].SessionID != "alpha" {
		t.Errorf("order = %s,%s, want beta,alpha (most recent first)",
			sessions[0].SessionID, sessions[1].SessionID)
	}
	alpha := sessions[1]
	if alpha.Count != 2 {
		t.Errorf("alpha Count = %d, want 2", alpha.Count)
	}
	if alpha.FirstAt.UnixMilli() != base.UnixMilli() {
		t.Errorf("alpha FirstAt = %v, want %v", alpha.FirstAt, base)
	}
	if alpha.LastAt.UnixMilli() != base.Add(30*time.Minute).UnixMilli() {
		t.Errorf("alpha LastAt = %v, want %v", alpha.LastAt, base.Add(30*time.Minute))
	}
}

func TestListSessionsEmpty(t *testing.T) {
	db := testDB(t)

	sessions, err := db.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("len = %d, want 0", len(sessions))
	}
}
