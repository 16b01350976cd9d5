// Package scheduler runs the periodic summary checkpoint: every active
// session gets a refreshed rolling summary so long conversations stay
// cheap to re-enter.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/store"
)

const summarySystem = "Summarize the conversation so far in under 120 words. " +
	"Keep decisions, open questions and user preferences. Plain prose, no preamble."

const checkpointTimeout = 60 * time.Second

// Completer issues one low-fan-out completion; satisfied by the
// orchestrator's First method.
type Completer interface {
	First(ctx context.Context, prompt, system string, temperature *float64) (string, string, error)
}

// Scheduler manages the cron-driven summary checkpoint job
type Scheduler struct {
	cron      *cron.Cron
	store     *store.Store
	completer Completer
	spec      string
	logger    *slog.Logger

	lastRun time.Time
}

// New creates a scheduler over the given store
func New(st *store.Store, completer Completer, cfg *config.Config, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		store:     st,
		completer: completer,
		spec:      cfg.Scheduler.Spec(),
		logger:    logger,
		lastRun:   time.Now(),
	}
	if _, err := s.cron.AddFunc(s.spec, s.checkpoint); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", s.spec, err)
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "spec", s.spec)
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// checkpoint summarizes every session touched since the previous run
func (s *Scheduler) checkpoint() {
	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()

	since := s.lastRun
	s.lastRun = time.Now()

	sessions, err := s.store.SessionsUpdatedSince(ctx, since)
	if err != nil {
		s.logger.Error("Checkpoint session scan failed", "error", err)
		return
	}
	for _, info := range sessions {
		if err := s.summarize(ctx, info.ID); err != nil {
			s.logger.Warn("Session summary failed", "session", info.ID, "error", err)
		}
	}
	if len(sessions) > 0 {
		s.logger.Info("Checkpoint complete", "sessions", len(sessions))
	}
}

func (s *Scheduler) summarize(ctx context.Context, sessionID string) error {
	turns, err := s.store.RecentContext(ctx, sessionID, 12)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	prev, err := s.store.GetSummary(ctx, sessionID)
	if err != nil {
		return err
	}

	var b strings.Builder
	if prev.RollingSummary != "" {
		fmt.Fprintf(&b, "Previous summary:\n%s\n\n", prev.RollingSummary)
	}
	b.WriteString("Recent turns:\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}

	lowTemp := 0.2
	summary, _, err := s.completer.First(ctx, b.String(), summarySystem, &lowTemp)
	if err != nil {
		return err
	}
	return s.store.SaveSummary(ctx, sessionID, summary, prev.Progress)
}
