package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LineType is the classification of a contact phone number.
type LineType string

const (
	LineTypeMobile   LineType = "mobile"
	LineTypeLandline LineType = "landline"
	LineTypeInvalid  LineType = "invalid"
)

// Phone is a normalized number with its classification.
type Phone struct {
	Number   string
	LineType LineType
}

// Contact is the deduplicated person identity. Two submissions belong to the same
// contact when either phone number matches.
type Contact struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	Primary   Phone
	Secondary *Phone
	CreatedAt time.Time
}

// FullName joins the first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// PreferredChannelNumber returns the first mobile number, if any.
func (c Contact) PreferredChannelNumber() (string, bool) {
	if c.Primary.LineType == LineTypeMobile {
		return c.Primary.Number, true
	}
	if c.Secondary != nil && c.Secondary.LineType == LineTypeMobile {
		return c.Secondary.Number, true
	}
	return "", false
}

// Address is a physical location. Street is always present on a stored address.
type Address struct {
	ID         uuid.UUID
	Street     string
	City       *string
	State      *string
	PostalCode *string
	CreatedAt  time.Time
}

// AddressInput is the raw address carried by a submission; any field may be absent.
type AddressInput struct {
	Street     *string
	City       *string
	State      *string
	PostalCode *string
}

// Lead is the unit of outreach for one contact and at most one address.
type Lead struct {
	ID               uuid.UUID
	ContactID        uuid.UUID
	AddressID        *uuid.UUID
	Address          *Address
	TrackingToken    string
	BookingURL       string
	TrackingURL      string
	Stage            Stage
	OriginalStage    Stage
	StageUpdatedAt   time.Time
	NextFollowUp     time.Time
	PreviousFollowUp *time.Time
	Source           *string
	SubSource        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasAddress reports whether the lead references an address.
func (l Lead) HasAddress() bool {
	return l.Address != nil
}

// EventType is the kind of interaction recorded against a lead.
type EventType string

const (
	EventTypeOpen  EventType = "open"
	EventTypeClick EventType = "click"
)

// IsKnownEventType reports whether t is a supported interaction.
func IsKnownEventType(t EventType) bool {
	return t == EventTypeOpen || t == EventTypeClick
}

// Event is an append-only interaction record.
type Event struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Type      EventType
	CreatedAt time.Time
	DayOfWeek time.Weekday
	Period    Period
}

// Appointment is a booked meeting for a lead.
type Appointment struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Type      string
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
}
