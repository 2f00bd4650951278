package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/repository"
	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/transport"
	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/apperr"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

type memoryBooker struct {
	leadID uuid.UUID
	stage  domain.Stage
	booked []domain.Appointment
	err    error
}

func (m *memoryBooker) Book(_ context.Context, token string, appt domain.Appointment, _ time.Time) (repository.Booking, error) {
	if m.err != nil {
		return repository.Booking{}, m.err
	}
	if token != "tok-1" {
		return repository.Booking{}, repository.ErrLeadNotFound
	}
	previous := m.stage
	m.stage = domain.StageConverted
	appt.ID = uuid.New()
	appt.LeadID = m.leadID
	m.booked = append(m.booked, appt)
	return repository.Booking{Appointment: appt, LeadID: m.leadID, PreviousStage: previous}, nil
}

func (m *memoryBooker) ListByLead(context.Context, uuid.UUID) ([]domain.Appointment, error) {
	return m.booked, nil
}

type recordingBus struct{ names []string }

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.names = append(b.names, e.EventName()) }
func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.names = append(b.names, e.EventName())
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

var start = time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

func request(token string) transport.BookAppointmentRequest {
	return transport.BookAppointmentRequest{
		LeadToken: token,
		Type:      " Roof <i>inspection</i> ",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

func newTestService(repo Booker, bus events.Bus) *Service {
	return New(repo, bus, logger.NewWithWriter("test", io.Discard))
}

func TestBookConvertsLead(t *testing.T) {
	repo := &memoryBooker{leadID: uuid.New(), stage: domain.StageAgedLowPriority}
	bus := &recordingBus{}

	appt, err := newTestService(repo, bus).Book(context.Background(), request("tok-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.LeadID != repo.leadID || appt.Type != "Roof inspection" {
		t.Fatalf("unexpected appointment: %+v", appt)
	}
	if repo.stage != domain.StageConverted {
		t.Fatalf("expected lead converted, got %s", repo.stage)
	}
	if want := []string{"appointments.booked", "leads.stage.changed"}; !slices.Equal(bus.names, want) {
		t.Fatalf("expected events %v, got %v", want, bus.names)
	}
}

func TestBookAlreadyConvertedLeadSkipsStageEvent(t *testing.T) {
	repo := &memoryBooker{leadID: uuid.New(), stage: domain.StageConverted}
	bus := &recordingBus{}

	if _, err := newTestService(repo, bus).Book(context.Background(), request("tok-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"appointments.booked"}; !slices.Equal(bus.names, want) {
		t.Fatalf("expected events %v, got %v", want, bus.names)
	}
}

func TestBookRejectsInvertedRange(t *testing.T) {
	repo := &memoryBooker{leadID: uuid.New()}
	req := request("tok-1")
	req.EndTime = req.StartTime

	_, err := newTestService(repo, &recordingBus{}).Book(context.Background(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.booked) != 0 {
		t.Fatal("expected nothing booked")
	}
}

func TestBookUnknownToken(t *testing.T) {
	_, err := newTestService(&memoryBooker{}, &recordingBus{}).Book(context.Background(), request("nope"))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookStoreFailure(t *testing.T) {
	bus := &recordingBus{}
	_, err := newTestService(&memoryBooker{err: errors.New("boom")}, bus).Book(context.Background(), request("tok-1"))
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(bus.names) != 0 {
		t.Fatalf("expected no events, got %v", bus.names)
	}
}
