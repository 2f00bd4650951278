package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/engagement"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/matching"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// Pipeline applies lead submissions to the record store.
type Pipeline struct {
	store    repository.TxRunner
	engine   *engagement.Engine
	links    *LinkBuilder
	eventBus events.Bus
	log      *logger.Logger
	window   time.Duration
	newToken func() string
}

// NewPipeline creates a Pipeline. window is the follow-up window used to schedule the
// first contact of a new lead.
func NewPipeline(store repository.TxRunner, engine *engagement.Engine, links *LinkBuilder, eventBus events.Bus, log *logger.Logger, window time.Duration) *Pipeline {
	return &Pipeline{
		store:    store,
		engine:   engine,
		links:    links,
		eventBus: eventBus,
		log:      log,
		window:   window,
		newToken: uuid.NewString,
	}
}

// decision carries what the transaction did so that logging and events happen after
// commit.
type decision struct {
	outcome       Outcome
	lead          *domain.Lead
	contact       domain.Contact
	previousStage domain.Stage
}

// ManageLead processes one submission. It never returns an error: persistence failures
// surface as OutcomeFailed and leave the store as it was.
func (p *Pipeline) ManageLead(ctx context.Context, sub Submission) Result {
	log := p.log.WithContext(ctx)

	if !sub.Phones.Primary.Valid() {
		log.SubmissionRejected("lead", "no usable phone number")
		return Result{Outcome: OutcomeRejected}
	}

	var d decision
	err := p.store.WithinTx(ctx, lockKeys(sub), func(ctx context.Context, tx repository.Tx) error {
		var err error
		d, err = p.decide(ctx, tx, sub)
		return err
	})
	if err != nil {
		log.DatabaseError("manage_lead", err, sub)
		return Result{Outcome: OutcomeFailed}
	}

	p.report(ctx, log, d)
	return Result{Outcome: d.outcome, Lead: d.lead}
}

func (p *Pipeline) decide(ctx context.Context, tx repository.Tx, sub Submission) (decision, error) {
	address, hasAddress := matching.ToAddress(sub.Address)

	contact, err := tx.FindContactByPhone(ctx, sub.Phones.Primary.E164, secondaryNumber(sub))
	if errors.Is(err, repository.ErrNotFound) {
		return p.create(ctx, tx, sub, nil, address, hasAddress)
	}
	if err != nil {
		return decision{}, fmt.Errorf("find contact: %w", err)
	}

	leads, err := tx.FindLeadsByContact(ctx, contact.ID)
	if err != nil {
		return decision{}, fmt.Errorf("find leads: %w", err)
	}
	if len(leads) == 0 {
		return decision{outcome: OutcomeContactWithoutLead, contact: contact}, nil
	}

	for _, lead := range leads {
		if lead.Stage == domain.StageDoNotCall {
			return decision{outcome: OutcomeDoNotCall, contact: contact, lead: &lead}, nil
		}
	}

	if match, ok := matchingLead(leads, address, hasAddress); ok {
		// A converted lead is finished; the repeat submission must not reopen it or
		// add a second lead at the same place.
		if match.Stage.IsTerminal() {
			return decision{outcome: OutcomeDuplicateSuppressed, contact: contact, lead: &match}, nil
		}
		return p.resume(ctx, tx, contact, match)
	}

	return p.create(ctx, tx, sub, &contact, address, hasAddress)
}

// matchingLead returns the first lead at the submitted address, or the first
// addressless lead when the submission has no usable address.
func matchingLead(leads []domain.Lead, address domain.Address, hasAddress bool) (domain.Lead, bool) {
	for _, lead := range leads {
		switch {
		case hasAddress && lead.Address != nil && matching.AddressMatches(*lead.Address, address):
			return lead, true
		case !hasAddress && lead.Address == nil:
			return lead, true
		}
	}
	return domain.Lead{}, false
}

func (p *Pipeline) resume(ctx context.Context, tx repository.Tx, contact domain.Contact, lead domain.Lead) (decision, error) {
	history, err := tx.ListEventsByLead(ctx, lead.ID)
	if err != nil {
		return decision{}, fmt.Errorf("list events: %w", err)
	}

	resumed := p.engine.Resume(lead, history)
	updated, err := tx.UpdateLead(ctx, resumed)
	if err != nil {
		return decision{}, fmt.Errorf("update lead: %w", err)
	}

	return decision{
		outcome:       OutcomeResumed,
		contact:       contact,
		lead:          &updated,
		previousStage: lead.Stage,
	}, nil
}

func (p *Pipeline) create(ctx context.Context, tx repository.Tx, sub Submission, contact *domain.Contact, address domain.Address, hasAddress bool) (decision, error) {
	if contact == nil {
		inserted, err := tx.InsertContact(ctx, domain.Contact{
			FirstName: sub.FirstName,
			LastName:  sub.LastName,
			Email:     sub.Email,
			Primary:   primaryPhone(sub.Phones),
			Secondary: secondaryPhone(sub.Phones),
		})
		if err != nil {
			return decision{}, fmt.Errorf("insert contact: %w", err)
		}
		contact = &inserted
	}

	var addressID *uuid.UUID
	if hasAddress {
		stored, err := p.storeAddress(ctx, tx, address)
		if err != nil {
			return decision{}, err
		}
		addressID = &stored.ID
	}

	now := p.engine.Now()
	token := p.newToken()
	booking, tracking := p.links.Build(ctx, *contact, token)

	lead, err := tx.InsertLead(ctx, domain.Lead{
		ContactID:      contact.ID,
		AddressID:      addressID,
		TrackingToken:  token,
		BookingURL:     booking,
		TrackingURL:    tracking,
		Stage:          domain.StageNew,
		OriginalStage:  domain.StageNew,
		StageUpdatedAt: now,
		NextFollowUp:   now.Add(p.window + time.Minute),
		Source:         sub.Source,
		SubSource:      sub.SubSource,
	})
	if err != nil {
		return decision{}, fmt.Errorf("insert lead: %w", err)
	}

	return decision{outcome: OutcomeCreated, contact: *contact, lead: &lead}, nil
}

// storeAddress reuses a stored address at the same location before inserting a new one.
func (p *Pipeline) storeAddress(ctx context.Context, tx repository.Tx, address domain.Address) (domain.Address, error) {
	existing, err := tx.FindAddressMatch(ctx, address)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Address{}, fmt.Errorf("find address: %w", err)
	}

	inserted, err := tx.InsertAddress(ctx, address)
	if err != nil {
		return domain.Address{}, fmt.Errorf("insert address: %w", err)
	}
	return inserted, nil
}

func (p *Pipeline) report(ctx context.Context, log *logger.Logger, d decision) {
	attrs := []any{slog.String("contact_id", d.contact.ID.String())}
	if d.lead != nil {
		attrs = append(attrs, slog.String("lead_id", d.lead.ID.String()))
	}

	switch d.outcome {
	case OutcomeContactWithoutLead:
		log.IntegrityAnomaly("contact_without_lead", attrs...)
		return
	case OutcomeCreated:
		p.eventBus.Publish(ctx, createdEvent(d))
	case OutcomeResumed:
		p.eventBus.Publish(ctx, events.LeadResumed{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        d.lead.ID,
			PreviousStage: string(d.previousStage),
			NextFollowUp:  d.lead.NextFollowUp,
		})
	}

	log.PipelineOutcome(string(d.outcome), attrs...)
}

func createdEvent(d decision) events.LeadCreated {
	evt := events.LeadCreated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        d.lead.ID,
		ContactID:     d.contact.ID,
		TrackingToken: d.lead.TrackingToken,
		ContactName:   d.contact.FullName(),
		ContactPhone:  d.contact.Primary.Number,
		HasAddress:    d.lead.AddressID != nil,
	}
	if d.lead.Source != nil {
		evt.Source = *d.lead.Source
	}
	if d.lead.SubSource != nil {
		evt.SubSource = *d.lead.SubSource
	}
	if d.contact.Email != nil {
		evt.ContactEmail = *d.contact.Email
	}
	return evt
}

// lockKeys names every number of the submission, since a contact may be found through
// either one.
func lockKeys(sub Submission) []string {
	keys := []string{sub.Phones.Primary.E164}
	if sub.Phones.Secondary != nil {
		keys = append(keys, sub.Phones.Secondary.E164)
	}
	return keys
}

func secondaryNumber(sub Submission) *string {
	if sub.Phones.Secondary == nil {
		return nil
	}
	return &sub.Phones.Secondary.E164
}
