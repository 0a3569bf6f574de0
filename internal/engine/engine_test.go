package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lazypower/mem/internal/store"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func remember(t *testing.T, eng *Engine, p RememberParams) *store.Memory {
	t.Helper()
	m, _, err := eng.Remember(context.Background(), p)
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	return m
}

// backdate rewrites a record's timestamps directly so ordering tests do
// not need to sleep between inserts.
func backdate(t *testing.T, eng *Engine, id int64, at time.Time) {
	t.Helper()
	if _, err := eng.DB.Exec(
		"UPDATE memories SET created_at = ?, updated_at = ? WHERE id = ?",
		at.UnixMilli(), at.UnixMilli(), id,
	); err != nil {
		t.Fatalf("backdate %d: %v", id, err)
	}
}

func TestRemember(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	m, auto, err := eng.Remember(ctx, RememberParams{
		CreateParams: store.CreateParams{
			Content: "standup moved to 9:30",
			Tags:    []string{"team"},
		},
	})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if len(auto) != 0 {
		t.Errorf("auto = %v, want none without AutoTag", auto)
	}
	if len(m.Tags) != 1 || m.Tags[0] != "team" {
		t.Errorf("Tags = %v, want [team]", m.Tags)
	}

	got, err := eng.DB.GetMemory(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got.Content != "standup moved to 9:30" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestRememberAutoTag(t *testing.T) {
	eng := testEngine(t)
	ctx := context.Background()

	m, auto, err := eng.Remember(ctx, RememberParams{
		CreateParams: store.CreateParams{
			Content: "The API uses JWT",
			Tags:    []string{"api"},
		},
		AutoTag: true,
	})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	// "api" was already supplied by the caller, so only the new tags count.
	if !reflect.DeepEqual(auto, []string{"auth", "security"}) {
		t.Errorf("auto = %v, want [auth security]", auto)
	}
	if !reflect.DeepEqual(m.Tags, []string{"api", "auth", "security"}) {
		t.Errorf("Tags = %v, want caller's first then auto", m.Tags)
	}
}

func TestRememberAutoTagNoMatches(t *testing.T) {
	eng := testEngine(t)

	m, auto, err := eng.Remember(context.Background(), RememberParams{
		CreateParams: store.CreateParams{Content: "water the plants on friday"},
		AutoTag:      true,
	})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if len(auto) != 0 {
		t.Errorf("auto = %v, want none", auto)
	}
	if len(m.Tags) != 0 {
		t.Errorf("Tags = %v, want none", m.Tags)
	}
}

func TestRememberPropagatesValidation(t *testing.T) {
	eng := testEngine(t)

	_, _, err := eng.Remember(context.Background(), RememberParams{
		CreateParams: store.CreateParams{Content: "   "},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
