package crm

import (
	"context"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// Pusher sends a lead record to the CRM.
type Pusher interface {
	PushLead(ctx context.Context, lead LeadPayload) error
}

// Enqueuer queues a CRM sync for background delivery.
type Enqueuer interface {
	EnqueueCRMSync(ctx context.Context, leadID uuid.UUID) error
}

// Syncer loads a lead with its contact and pushes it.
type Syncer struct {
	leads  repository.LeadReader
	pusher Pusher
}

func NewSyncer(leads repository.LeadReader, pusher Pusher) *Syncer {
	return &Syncer{leads: leads, pusher: pusher}
}

func (s *Syncer) Sync(ctx context.Context, leadID uuid.UUID) error {
	lead, err := s.leads.GetLeadByID(ctx, leadID)
	if err != nil {
		return err
	}
	contact, err := s.leads.GetContact(ctx, lead.ContactID)
	if err != nil {
		return err
	}
	return s.pusher.PushLead(ctx, PayloadFor(contact, lead))
}

// PayloadFor maps a lead and its contact onto the CRM record.
func PayloadFor(contact domain.Contact, lead domain.Lead) LeadPayload {
	payload := LeadPayload{
		ExternalID: lead.ID.String(),
		FullName:   contact.FullName(),
		Phone:      contact.Primary.Number,
		Email:      deref(contact.Email),
		Source:     deref(lead.Source),
		SubSource:  deref(lead.SubSource),
		BookingURL: lead.BookingURL,
		Stage:      string(lead.Stage),
	}
	if lead.Address != nil {
		payload.Street = lead.Address.Street
		payload.City = deref(lead.Address.City)
		payload.State = deref(lead.Address.State)
		payload.PostalCode = deref(lead.Address.PostalCode)
	}
	return payload
}

// RegisterHandlers subscribes the CRM sync to new leads.
func RegisterHandlers(bus events.Bus, enqueuer Enqueuer, log *logger.Logger) {
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		created, ok := event.(events.LeadCreated)
		if !ok {
			return nil
		}
		if err := enqueuer.EnqueueCRMSync(ctx, created.LeadID); err != nil {
			log.Error("failed to enqueue crm sync", "lead_id", created.LeadID, "error", err)
			return err
		}
		return nil
	}))
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
