// Package service holds the lead operations behind the tracking and admin endpoints.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/engagement"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/platform/apperr"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

const msgLeadNotFound = "lead not found"

// Deduplicator reports whether an interaction was already seen within its window.
// SeenRecently marks the pair; Forget clears a mark whose event was never stored.
type Deduplicator interface {
	SeenRecently(ctx context.Context, leadID uuid.UUID, eventType domain.EventType) (bool, error)
	Forget(ctx context.Context, leadID uuid.UUID, eventType domain.EventType) error
}

// Store is what the service needs from the lead store.
type Store interface {
	repository.LeadReader
	repository.EventStore
	repository.ScheduleWriter
}

type Service struct {
	repo     Store
	dedup    Deduplicator
	eventBus events.Bus
	log      *logger.Logger
	loc      *time.Location
	now      func() time.Time
}

func New(repo Store, dedup Deduplicator, eventBus events.Bus, log *logger.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		dedup:    dedup,
		eventBus: eventBus,
		log:      log,
		loc:      loc,
		now:      time.Now,
	}
}

// RecordEvent stores an interaction for the lead behind token unless the same kind
// was already recorded within the dedup window. The lead is returned either way.
func (s *Service) RecordEvent(ctx context.Context, token string, eventType domain.EventType) (domain.Lead, bool, error) {
	if !domain.IsKnownEventType(eventType) {
		return domain.Lead{}, false, apperr.Validation("unknown event type")
	}

	lead, err := s.leadByToken(ctx, token)
	if err != nil {
		return domain.Lead{}, false, err
	}

	marked := false
	if s.dedup != nil {
		seen, err := s.dedup.SeenRecently(ctx, lead.ID, eventType)
		switch {
		case err != nil:
			s.log.Warn("event dedup unavailable, recording anyway", "lead_id", lead.ID, "error", err)
		case seen:
			return lead, false, nil
		default:
			marked = true
		}
	}

	at := s.now().In(s.loc)
	_, err = s.repo.InsertEvent(ctx, domain.Event{
		LeadID:    lead.ID,
		Type:      eventType,
		CreatedAt: at,
		DayOfWeek: engagement.DayOf(at),
		Period:    engagement.PeriodOf(at),
	})
	if err != nil {
		s.log.DatabaseError("insert_event", err, lead.ID)
		if marked {
			if ferr := s.dedup.Forget(ctx, lead.ID, eventType); ferr != nil {
				s.log.Warn("event dedup mark not cleared", "lead_id", lead.ID, "error", ferr)
			}
		}
		return lead, false, apperr.Wrap(apperr.KindInternal, "could not record event", err)
	}
	return lead, true, nil
}

// OverrideStage sets a stage chosen by an operator.
func (s *Service) OverrideStage(ctx context.Context, token string, stage domain.Stage, reason string) (domain.Lead, error) {
	if !domain.IsKnownStage(stage) {
		return domain.Lead{}, apperr.Validation("unknown stage")
	}

	lead, err := s.leadByToken(ctx, token)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Stage == stage {
		return lead, nil
	}

	updated, err := s.repo.UpdateStage(ctx, lead.ID, stage, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Lead{}, apperr.NotFound(msgLeadNotFound)
		}
		s.log.DatabaseError("update_stage", err, lead.ID)
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "could not update stage", err)
	}

	s.eventBus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    updated.ID,
		OldStage:  string(lead.Stage),
		NewStage:  string(updated.Stage),
		Reason:    reason,
	})
	return updated, nil
}

func (s *Service) leadByToken(ctx context.Context, token string) (domain.Lead, error) {
	lead, err := s.repo.GetLeadByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Lead{}, apperr.NotFound(msgLeadNotFound)
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "could not load lead", err)
	}
	return lead, nil
}
