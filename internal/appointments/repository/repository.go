package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

// ErrLeadNotFound is returned when no lead carries the booking token.
var ErrLeadNotFound = errors.New("lead not found")

// Booking is the result of converting a lead with an appointment.
type Booking struct {
	Appointment   domain.Appointment
	LeadID        uuid.UUID
	PreviousStage domain.Stage
}

// Repository stores appointments in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Book stores the appointment and moves the lead to Converted in one transaction.
// The lead row is locked so a concurrent resumption cannot overwrite the stage.
func (r *Repository) Book(ctx context.Context, token string, appt domain.Appointment, at time.Time) (booking Booking, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return Booking{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var stage string
	err = tx.QueryRow(ctx, `
		SELECT id, stage::text FROM leads WHERE tracking_token = $1 FOR UPDATE
	`, token).Scan(&booking.LeadID, &stage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, ErrLeadNotFound
		}
		return Booking{}, err
	}
	booking.PreviousStage = domain.Stage(stage)

	appt.LeadID = booking.LeadID
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (lead_id, appointment_type, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, appt.LeadID, appt.Type, appt.StartTime, appt.EndTime).Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		return Booking{}, fmt.Errorf("insert appointment: %w", err)
	}

	if booking.PreviousStage != domain.StageConverted {
		if _, err = tx.Exec(ctx, `
			UPDATE leads
			SET stage = $2, stage_updated_at = $3, updated_at = $3
			WHERE id = $1
		`, booking.LeadID, string(domain.StageConverted), at); err != nil {
			return Booking{}, fmt.Errorf("convert lead: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return Booking{}, fmt.Errorf("commit tx: %w", err)
	}

	booking.Appointment = appt
	return booking, nil
}

// ListByLead returns the appointments of a lead, earliest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, appointment_type, start_time, end_time, created_at
		FROM appointments
		WHERE lead_id = $1
		ORDER BY start_time
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Appointment, 0)
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Type, &a.StartTime, &a.EndTime, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
