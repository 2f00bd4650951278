// Package events defines the lead and appointment domain events and aliases the
// bus types from platform/events so modules import a single package.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/platform/events"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads
// =============================================================================

// LeadCreated is published after a submission created a new lead.
type LeadCreated struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	ContactID     uuid.UUID `json:"contactId"`
	TrackingToken string    `json:"trackingToken"`
	Source        string    `json:"source,omitempty"`
	SubSource     string    `json:"subSource,omitempty"`
	ContactName   string    `json:"contactName"`
	ContactPhone  string    `json:"contactPhone"`
	ContactEmail  string    `json:"contactEmail,omitempty"`
	HasAddress    bool      `json:"hasAddress"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadResumed is published after a repeat submission rescheduled an existing lead.
type LeadResumed struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	PreviousStage string    `json:"previousStage"`
	NextFollowUp  time.Time `json:"nextFollowUp"`
}

func (e LeadResumed) EventName() string { return "leads.lead.resumed" }

// LeadStageChanged is published when a stage is changed outside the intake pipeline.
type LeadStageChanged struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	OldStage string    `json:"oldStage"`
	NewStage string    `json:"newStage"`
	Reason   string    `json:"reason"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// FollowUpDispatched is published after a follow-up message went out and the lead
// was rescheduled.
type FollowUpDispatched struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	Channel      string    `json:"channel"`
	Stage        string    `json:"stage"`
	NextFollowUp time.Time `json:"nextFollowUp"`
}

func (e FollowUpDispatched) EventName() string { return "leads.followup.dispatched" }

// =============================================================================
// Appointments
// =============================================================================

// AppointmentBooked is published when an appointment converted a lead.
type AppointmentBooked struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	LeadID        uuid.UUID `json:"leadId"`
	Type          string    `json:"type"`
	StartTime     time.Time `json:"startTime"`
}

func (e AppointmentBooked) EventName() string { return "appointments.booked" }
