package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

func (r *Repository) InsertEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	var (
		out       domain.Event
		eventType string
		period    string
		day       int16
	)
	err := r.q.QueryRow(ctx, `
		INSERT INTO lead_events (lead_id, event_type, day_of_week, period, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, event_type, day_of_week, period, created_at
	`, event.LeadID, string(event.Type), int16(event.DayOfWeek), string(event.Period), event.CreatedAt).Scan(
		&out.ID, &out.LeadID, &eventType, &day, &period, &out.CreatedAt,
	)
	if err != nil {
		return domain.Event{}, err
	}
	out.Type = domain.EventType(eventType)
	out.DayOfWeek = time.Weekday(day)
	out.Period = domain.Period(period)
	return out, nil
}

// ListEventsByLead returns the lead's interaction history, oldest first.
func (r *Repository) ListEventsByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Event, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, lead_id, event_type, day_of_week, period, created_at
		FROM lead_events
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var (
			e         domain.Event
			eventType string
			period    string
			day       int16
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &eventType, &day, &period, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = domain.EventType(eventType)
		e.DayOfWeek = time.Weekday(day)
		e.Period = domain.Period(period)
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}
