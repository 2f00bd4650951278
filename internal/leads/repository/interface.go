package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

// =====================================
// Narrow views of the store, one per consumer
// =====================================

// Tx is the set of record-store operations available while one submission is
// processed. Every call runs inside the same database transaction.
type Tx interface {
	FindContactByPhone(ctx context.Context, primary string, secondary *string) (domain.Contact, error)
	FindLeadsByContact(ctx context.Context, contactID uuid.UUID) ([]domain.Lead, error)
	FindAddressMatch(ctx context.Context, addr domain.Address) (domain.Address, error)
	InsertContact(ctx context.Context, contact domain.Contact) (domain.Contact, error)
	InsertAddress(ctx context.Context, addr domain.Address) (domain.Address, error)
	InsertLead(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	UpdateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	ListEventsByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Event, error)
}

// TxRunner runs fn in a transaction serialized against other transactions that share
// any of its lock keys.
type TxRunner interface {
	WithinTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, tx Tx) error) error
}

// LeadReader provides read-only access to leads outside a submission.
type LeadReader interface {
	GetLeadByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetLeadByToken(ctx context.Context, token string) (domain.Lead, error)
	GetContact(ctx context.Context, id uuid.UUID) (domain.Contact, error)
}

// FollowUpReader finds leads whose follow-up is due.
type FollowUpReader interface {
	FindLeadsDueForFollowUp(ctx context.Context, from, to time.Time, excluded []domain.Stage) ([]domain.Lead, error)
}

// ScheduleWriter persists stage overrides made by an admin.
type ScheduleWriter interface {
	UpdateStage(ctx context.Context, id uuid.UUID, stage domain.Stage, at time.Time) (domain.Lead, error)
}

// FollowUpClaimer writes the schedule of a dispatched follow-up only while the lead
// is still in the state the dispatch was computed from.
type FollowUpClaimer interface {
	ClaimFollowUp(ctx context.Context, advanced domain.Lead, dueAt time.Time, from domain.Stage) (domain.Lead, error)
}

// EventStore records and lists interaction events.
type EventStore interface {
	InsertEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	ListEventsByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Event, error)
}

// LeadsRepository composes all lead store interfaces.
type LeadsRepository interface {
	TxRunner
	LeadReader
	FollowUpReader
	ScheduleWriter
	FollowUpClaimer
	EventStore
}

var _ LeadsRepository = (*Repository)(nil)
var _ Tx = (*Repository)(nil)
