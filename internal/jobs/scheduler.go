// Package jobs runs periodic housekeeping against the database.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/zaloga/internal/store"
)

// DefaultSchedule purges expired auth rows once an hour.
const DefaultSchedule = "@every 1h"

// Scheduler purges expired revoked tokens and spent password resets.
type Scheduler struct {
	cron *cron.Cron
	db   *sql.DB
	now  func() time.Time
}

// NewScheduler returns a scheduler for db. It does nothing until Start.
func NewScheduler(db *sql.DB) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		db:   db,
		now:  time.Now,
	}
}

// Start registers the cleanup job on schedule and starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := s.cron.AddFunc(schedule, s.cleanup); err != nil {
		return fmt.Errorf("scheduling cleanup %q: %w", schedule, err)
	}
	s.cron.Start()
	slog.Info("housekeeping scheduled", "schedule", schedule)
	return nil
}

// Stop halts the cron loop and waits for a running job, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("housekeeping did not stop in time")
	}
}

func (s *Scheduler) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, _, err := Cleanup(ctx, s.db, s.now()); err != nil {
		slog.Error("housekeeping failed", "error", err)
	}
}

// Cleanup deletes revoked tokens that have expired and password resets that
// are expired or used, returning how many rows of each were removed.
func Cleanup(ctx context.Context, db *sql.DB, now time.Time) (tokens, resets int64, err error) {
	tokens, err = store.PurgeRevokedTokens(ctx, db, now)
	if err != nil {
		return 0, 0, err
	}
	resets, err = store.PurgePasswordResets(ctx, db, now)
	if err != nil {
		return tokens, 0, err
	}
	if tokens > 0 || resets > 0 {
		slog.Info("purged expired auth records", "revoked_tokens", tokens, "password_resets", resets)
	}
	return tokens, resets, nil
}
