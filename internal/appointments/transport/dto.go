package transport

import "time"

// BookAppointmentRequest is submitted by the booking page for a tracked lead.
type BookAppointmentRequest struct {
	LeadToken string    `json:"leadToken" validate:"required,max=64"`
	Type      string    `json:"type" validate:"required,min=1,max=100"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
}

type AppointmentResponse struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId"`
	Type      string    `json:"type"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
}
