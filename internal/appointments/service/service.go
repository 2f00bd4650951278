package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/repository"
	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/transport"
	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/apperr"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
	"github.com/spmiller41/saleset-v2-sub000/platform/sanitize"
)

const errEndTimeAfterStart = "endTime must be after startTime"

// Booker stores an appointment and converts its lead.
type Booker interface {
	Book(ctx context.Context, token string, appt domain.Appointment, at time.Time) (repository.Booking, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Appointment, error)
}

type Service struct {
	repo     Booker
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo Booker, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log, now: time.Now}
}

// Book records the appointment. Booking converts the lead, which ends its follow-ups.
func (s *Service) Book(ctx context.Context, req transport.BookAppointmentRequest) (domain.Appointment, error) {
	if !req.EndTime.After(req.StartTime) {
		return domain.Appointment{}, apperr.Validation(errEndTimeAfterStart)
	}

	appt := domain.Appointment{
		Type:      sanitize.Text(req.Type),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	now := s.now()
	booking, err := s.repo.Book(ctx, req.LeadToken, appt, now)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return domain.Appointment{}, apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("book_appointment", err, req.LeadToken)
		return domain.Appointment{}, apperr.Wrap(apperr.KindInternal, "could not book appointment", err)
	}

	s.eventBus.Publish(ctx, events.AppointmentBooked{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: booking.Appointment.ID,
		LeadID:        booking.LeadID,
		Type:          booking.Appointment.Type,
		StartTime:     booking.Appointment.StartTime,
	})
	if booking.PreviousStage != domain.StageConverted {
		s.eventBus.Publish(ctx, events.LeadStageChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    booking.LeadID,
			OldStage:  string(booking.PreviousStage),
			NewStage:  string(domain.StageConverted),
			Reason:    "appointment booked",
		})
	}

	s.log.Info("appointment booked", "lead_id", booking.LeadID, "appointment_id", booking.Appointment.ID)
	return booking.Appointment, nil
}

// ListByLead returns a lead's appointments.
func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Appointment, error) {
	return s.repo.ListByLead(ctx, leadID)
}
