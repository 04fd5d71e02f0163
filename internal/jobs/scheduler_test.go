package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/store"
)

func TestCleanup(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	user, err := store.CreateUser(ctx, database, "ana", "ana@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	store.RevokeToken(ctx, database, "expired", now.Add(-time.Hour))
	store.RevokeToken(ctx, database, "live", now.Add(time.Hour))
	store.CreatePasswordReset(ctx, database, user.ID, "old", now.Add(-time.Minute))
	store.CreatePasswordReset(ctx, database, user.ID, "used", now.Add(time.Hour))
	store.CreatePasswordReset(ctx, database, user.ID, "fresh", now.Add(time.Hour))
	if _, err := store.ConsumePasswordReset(ctx, database, "used", now); err != nil {
		t.Fatalf("ConsumePasswordReset: %v", err)
	}

	tokens, resets, err := Cleanup(ctx, database, now)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if tokens != 1 {
		t.Errorf("expected 1 purged token, got %d", tokens)
	}
	if resets != 2 {
		t.Errorf("expected 2 purged resets, got %d", resets)
	}

	if _, err := store.ConsumePasswordReset(ctx, database, "fresh", now); err != nil {
		t.Errorf("fresh reset should survive cleanup: %v", err)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(db.NewTestDB(t))

	if err := s.Start("not a schedule"); err == nil {
		t.Fatal("expected error for invalid schedule")
	}

	if err := s.Start("@every 1m"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
