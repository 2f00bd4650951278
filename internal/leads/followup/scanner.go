// Package followup finds leads whose next contact is due and moves them forward once
// the contact has been made.
package followup

import (
	"context"
	"log/slog"
	"time"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// Dispatcher hands a due lead to whatever delivers the follow-up. Dispatching the same
// lead and due time twice must be harmless.
type Dispatcher interface {
	Dispatch(ctx context.Context, lead domain.Lead) error
}

// Scanner periodically looks for leads due within the follow-up window.
type Scanner struct {
	repo       repository.FollowUpReader
	dispatcher Dispatcher
	window     time.Duration
	interval   time.Duration
	now        func() time.Time
	log        *logger.Logger
}

// NewScanner creates a Scanner that looks window ahead every interval.
func NewScanner(repo repository.FollowUpReader, dispatcher Dispatcher, window, interval time.Duration, log *logger.Logger) *Scanner {
	return &Scanner{
		repo:       repo,
		dispatcher: dispatcher,
		window:     window,
		interval:   interval,
		now:        time.Now,
		log:        log,
	}
}

// Scan returns leads whose next follow-up falls in [now, now+window] and whose stage
// still allows outreach. It never writes.
func (s *Scanner) Scan(ctx context.Context, window time.Duration) ([]domain.Lead, error) {
	from := s.now()
	return s.repo.FindLeadsDueForFollowUp(ctx, from, from.Add(window), domain.TerminalStages())
}

// ScanOnce scans the configured window and dispatches every due lead. It returns the
// number of leads dispatched.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	leads, err := s.Scan(ctx, s.window)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, lead := range leads {
		if err := s.dispatcher.Dispatch(ctx, lead); err != nil {
			s.log.Warn("follow-up dispatch failed",
				slog.String("lead_id", lead.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

// Run scans on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	if s == nil || s.repo == nil || s.dispatcher == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := s.ScanOnce(ctx)
		if err != nil {
			s.log.Warn("follow-up scan failed", "error", err)
			continue
		}
		if n > 0 {
			s.log.Info("follow-ups dispatched", "count", n)
		}
	}
}
