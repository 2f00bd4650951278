package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

const leadSelect = `
	SELECT l.id, l.contact_id, l.address_id, l.tracking_token, l.booking_url, l.tracking_url,
		l.stage, l.original_stage, l.stage_updated_at, l.next_follow_up, l.previous_follow_up,
		l.source, l.sub_source, l.created_at, l.updated_at,
		a.street, a.city, a.state, a.postal_code, a.created_at
	FROM leads l
	LEFT JOIN addresses a ON a.id = l.address_id`

// FindLeadsByContact returns every lead of the contact with its address, oldest first.
// The lead rows stay locked until the surrounding transaction ends.
func (r *Repository) FindLeadsByContact(ctx context.Context, contactID uuid.UUID) ([]domain.Lead, error) {
	rows, err := r.q.Query(ctx, leadSelect+`
		WHERE l.contact_id = $1
		ORDER BY l.created_at ASC
		FOR UPDATE OF l
	`, contactID)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) GetLeadByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	return scanLead(r.q.QueryRow(ctx, leadSelect+` WHERE l.id = $1`, id))
}

func (r *Repository) GetLeadByToken(ctx context.Context, token string) (domain.Lead, error) {
	return scanLead(r.q.QueryRow(ctx, leadSelect+` WHERE l.tracking_token = $1`, token))
}

// FindLeadsDueForFollowUp returns leads due in [from, to] whose stage is not excluded,
// ordered by due time.
func (r *Repository) FindLeadsDueForFollowUp(ctx context.Context, from, to time.Time, excluded []domain.Stage) ([]domain.Lead, error) {
	stages := make([]string, len(excluded))
	for i, s := range excluded {
		stages[i] = string(s)
	}

	rows, err := r.q.Query(ctx, leadSelect+`
		WHERE l.next_follow_up BETWEEN $1 AND $2
		  AND NOT (l.stage::text = ANY($3))
		ORDER BY l.next_follow_up ASC
	`, from, to, stages)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) InsertLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	var id uuid.UUID
	err := r.q.QueryRow(ctx, `
		INSERT INTO leads (contact_id, address_id, tracking_token, booking_url, tracking_url,
			stage, original_stage, stage_updated_at, next_follow_up, previous_follow_up,
			source, sub_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		lead.ContactID, lead.AddressID, lead.TrackingToken, lead.BookingURL, lead.TrackingURL,
		string(lead.Stage), string(lead.OriginalStage), lead.StageUpdatedAt, lead.NextFollowUp,
		lead.PreviousFollowUp, lead.Source, lead.SubSource,
	).Scan(&id)
	if err != nil {
		return domain.Lead{}, err
	}
	return r.GetLeadByID(ctx, id)
}

// UpdateLead writes the mutable schedule fields of a lead.
func (r *Repository) UpdateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE leads
		SET stage = $2, stage_updated_at = $3, next_follow_up = $4, previous_follow_up = $5,
			booking_url = $6, tracking_url = $7, updated_at = now()
		WHERE id = $1
	`,
		lead.ID, string(lead.Stage), lead.StageUpdatedAt, lead.NextFollowUp, lead.PreviousFollowUp,
		lead.BookingURL, lead.TrackingURL,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Lead{}, ErrNotFound
	}
	return r.GetLeadByID(ctx, lead.ID)
}

// ClaimFollowUp stores the advanced schedule of a lead only if the lead is still at
// stage from and still due at dueAt. A lead changed in between yields ErrScheduleChanged.
func (r *Repository) ClaimFollowUp(ctx context.Context, advanced domain.Lead, dueAt time.Time, from domain.Stage) (domain.Lead, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE leads
		SET stage = $2, stage_updated_at = $3, next_follow_up = $4, previous_follow_up = $5,
			updated_at = now()
		WHERE id = $1
		  AND stage::text = $6
		  AND date_trunc('second', next_follow_up) = date_trunc('second', $7::timestamptz)
	`,
		advanced.ID, string(advanced.Stage), advanced.StageUpdatedAt, advanced.NextFollowUp,
		advanced.PreviousFollowUp, string(from), dueAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Lead{}, ErrScheduleChanged
	}
	return r.GetLeadByID(ctx, advanced.ID)
}

// UpdateStage overrides the stage of a lead.
func (r *Repository) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.Stage, at time.Time) (domain.Lead, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE leads
		SET stage = $2, stage_updated_at = $3, updated_at = now()
		WHERE id = $1
	`, id, string(stage), at)
	if err != nil {
		return domain.Lead{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Lead{}, ErrNotFound
	}
	return r.GetLeadByID(ctx, id)
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		l                       domain.Lead
		stage, originalStage    string
		street                  *string
		city, state, postalCode *string
		addressCreatedAt        *time.Time
	)
	err := row.Scan(
		&l.ID, &l.ContactID, &l.AddressID, &l.TrackingToken, &l.BookingURL, &l.TrackingURL,
		&stage, &originalStage, &l.StageUpdatedAt, &l.NextFollowUp, &l.PreviousFollowUp,
		&l.Source, &l.SubSource, &l.CreatedAt, &l.UpdatedAt,
		&street, &city, &state, &postalCode, &addressCreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}

	l.Stage = domain.Stage(stage)
	l.OriginalStage = domain.Stage(originalStage)
	if l.AddressID != nil && street != nil {
		l.Address = &domain.Address{
			ID:         *l.AddressID,
			Street:     *street,
			City:       city,
			State:      state,
			PostalCode: postalCode,
		}
		if addressCreatedAt != nil {
			l.Address.CreatedAt = *addressCreatedAt
		}
	}
	return l, nil
}
