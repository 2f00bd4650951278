package transport

import "time"

// SubmitLeadRequest is the public lead form submission.
type SubmitLeadRequest struct {
	FirstName      string  `json:"firstName" validate:"required,notblank,max=100"`
	LastName       string  `json:"lastName" validate:"omitempty,max=100"`
	Email          *string `json:"email" validate:"omitempty,max=254"`
	Phone          string  `json:"phone" validate:"required,notblank,max=40"`
	SecondaryPhone string  `json:"secondaryPhone" validate:"omitempty,max=40"`
	Street         *string `json:"street" validate:"omitempty,max=200"`
	City           *string `json:"city" validate:"omitempty,max=100"`
	State          *string `json:"state" validate:"omitempty,max=100"`
	PostalCode     *string `json:"postalCode" validate:"omitempty,max=20"`
	Source         *string `json:"source" validate:"omitempty,max=100"`
	SubSource      *string `json:"subSource" validate:"omitempty,max=100"`
}

// AcceptedResponse acknowledges a fire-and-forget submission.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// RecordEventRequest reports an interaction with a lead's message.
type RecordEventRequest struct {
	LeadToken string `json:"leadToken" validate:"required,max=64"`
	EventType string `json:"eventType" validate:"required,oneof=open click"`
}

type RecordEventResponse struct {
	Recorded bool `json:"recorded"`
}

// UpdateStageRequest is the admin stage override.
type UpdateStageRequest struct {
	Stage  string `json:"stage" validate:"required,oneof=Do_Not_Call Converted Retargeted_No_Show Retargeted_Rehash"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type LeadResponse struct {
	ID               string     `json:"id"`
	TrackingToken    string     `json:"trackingToken"`
	Stage            string     `json:"stage"`
	OriginalStage    string     `json:"originalStage"`
	StageUpdatedAt   time.Time  `json:"stageUpdatedAt"`
	NextFollowUp     time.Time  `json:"nextFollowUp"`
	PreviousFollowUp *time.Time `json:"previousFollowUp,omitempty"`
	BookingURL       string     `json:"bookingUrl"`
	TrackingURL      string     `json:"trackingUrl"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
