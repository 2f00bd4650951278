package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/engagement"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// ErrStale marks a due task that no longer matches the lead's schedule.
var ErrStale = errors.New("follow-up no longer due")

// ErrUndelivered marks a follow-up whose schedule was advanced but whose message could
// not be sent. The touch is not retried.
var ErrUndelivered = errors.New("follow-up not delivered")

// Notifier delivers the follow-up message and reports the channel used.
type Notifier interface {
	Notify(ctx context.Context, contact domain.Contact, lead domain.Lead) (channel string, err error)
}

// Store is what the processor needs from the lead store.
type Store interface {
	repository.LeadReader
	repository.EventStore
	repository.FollowUpClaimer
}

// Processor sends a due follow-up and schedules the next one.
type Processor struct {
	store    Store
	notifier Notifier
	engine   *engagement.Engine
	rules    config.EngagementRules
	eventBus events.Bus
	log      *logger.Logger
}

func NewProcessor(store Store, notifier Notifier, engine *engagement.Engine, rules config.EngagementRules, eventBus events.Bus, log *logger.Logger) *Processor {
	return &Processor{
		store:    store,
		notifier: notifier,
		engine:   engine,
		rules:    rules,
		eventBus: eventBus,
		log:      log,
	}
}

// Process handles the follow-up of leadID that was due at dueAt. A lead that has been
// rescheduled or closed since the task was queued is skipped with ErrStale.
//
// The next touch is stored before the message goes out, so a redelivered task finds
// the lead rescheduled and never sends twice. A failed send returns the advanced lead
// with ErrUndelivered.
func (p *Processor) Process(ctx context.Context, leadID uuid.UUID, dueAt time.Time) (domain.Lead, error) {
	lead, err := p.store.GetLeadByID(ctx, leadID)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("load lead: %w", err)
	}
	if lead.Stage.IsTerminal() || !sameSecond(lead.NextFollowUp, dueAt) {
		return lead, ErrStale
	}

	contact, err := p.store.GetContact(ctx, lead.ContactID)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("load contact: %w", err)
	}

	history, err := p.store.ListEventsByLead(ctx, lead.ID)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("list events: %w", err)
	}

	advanced := p.engine.Advance(lead, history, p.rules)
	updated, err := p.store.ClaimFollowUp(ctx, advanced, lead.NextFollowUp, lead.Stage)
	if errors.Is(err, repository.ErrScheduleChanged) {
		return lead, ErrStale
	}
	if err != nil {
		p.log.WithLead(lead.ID).DatabaseError("advance_lead", err, advanced)
		return domain.Lead{}, fmt.Errorf("claim follow-up: %w", err)
	}

	channel, err := p.notifier.Notify(ctx, contact, lead)
	if err != nil {
		return updated, fmt.Errorf("%w: %w", ErrUndelivered, err)
	}

	p.log.FollowUpSent(updated.ID, channel, string(updated.Stage), updated.NextFollowUp)
	p.eventBus.Publish(ctx, events.FollowUpDispatched{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       updated.ID,
		Channel:      channel,
		Stage:        string(updated.Stage),
		NextFollowUp: updated.NextFollowUp,
	})
	return updated, nil
}

func sameSecond(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
