package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

var ErrNotFound = errors.New("lead not found")
var ErrScheduleChanged = errors.New("lead schedule changed")

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
	q    querier
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// WithinTx runs fn in a transaction holding an advisory lock on every key until commit.
// Keys are locked in sorted order so that two submissions naming the same numbers in
// a different order cannot deadlock.
func (r *Repository) WithinTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, tx Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, key := range LockOrder(lockKeys) {
		if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
	}

	if err = fn(ctx, &Repository{pool: r.pool, q: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LockOrder returns the non-empty keys sorted and without duplicates.
func LockOrder(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// =====================================
// Contacts
// =====================================

const contactColumns = `id, first_name, last_name, email, primary_phone, primary_phone_type,
	secondary_phone, secondary_phone_type, created_at`

// FindContactByPhone returns the oldest contact owning either number in either slot.
func (r *Repository) FindContactByPhone(ctx context.Context, primary string, secondary *string) (domain.Contact, error) {
	phones := []string{primary}
	if secondary != nil && *secondary != "" {
		phones = append(phones, *secondary)
	}

	row := r.q.QueryRow(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE primary_phone = ANY($1) OR secondary_phone = ANY($1)
		ORDER BY created_at ASC
		LIMIT 1
	`, phones)
	return scanContact(row)
}

func (r *Repository) GetContact(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	row := r.q.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	return scanContact(row)
}

func (r *Repository) InsertContact(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	var secondary, secondaryType *string
	if contact.Secondary != nil {
		number, lineType := contact.Secondary.Number, string(contact.Secondary.LineType)
		secondary, secondaryType = &number, &lineType
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO contacts (first_name, last_name, email, primary_phone, primary_phone_type,
			secondary_phone, secondary_phone_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+contactColumns,
		contact.FirstName, contact.LastName, contact.Email,
		contact.Primary.Number, string(contact.Primary.LineType),
		secondary, secondaryType,
	)
	return scanContact(row)
}

func scanContact(row pgx.Row) (domain.Contact, error) {
	var (
		c                            domain.Contact
		primaryType                  string
		secondaryNumber, secondaryTy *string
	)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Primary.Number, &primaryType,
		&secondaryNumber, &secondaryTy, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contact{}, ErrNotFound
	}
	if err != nil {
		return domain.Contact{}, err
	}

	c.Primary.LineType = domain.LineType(primaryType)
	if secondaryNumber != nil {
		p := domain.Phone{Number: *secondaryNumber, LineType: domain.LineTypeInvalid}
		if secondaryTy != nil {
			p.LineType = domain.LineType(*secondaryTy)
		}
		c.Secondary = &p
	}
	return c, nil
}

// =====================================
// Addresses
// =====================================

// FindAddressMatch finds a stored address with the same street and either the same
// postal code or the same city and state, compared case-insensitively.
func (r *Repository) FindAddressMatch(ctx context.Context, addr domain.Address) (domain.Address, error) {
	var a domain.Address
	err := r.q.QueryRow(ctx, `
		SELECT id, street, city, state, postal_code, created_at
		FROM addresses
		WHERE lower(street) = lower($1)
		  AND (
			($2::text IS NOT NULL AND lower(postal_code) = lower($2::text))
			OR ($3::text IS NOT NULL AND $4::text IS NOT NULL
				AND lower(city) = lower($3::text) AND lower(state) = lower($4::text))
		  )
		ORDER BY created_at ASC
		LIMIT 1
	`, addr.Street, addr.PostalCode, addr.City, addr.State).Scan(
		&a.ID, &a.Street, &a.City, &a.State, &a.PostalCode, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Address{}, ErrNotFound
	}
	if err != nil {
		return domain.Address{}, err
	}
	return a, nil
}

func (r *Repository) InsertAddress(ctx context.Context, addr domain.Address) (domain.Address, error) {
	var a domain.Address
	err := r.q.QueryRow(ctx, `
		INSERT INTO addresses (street, city, state, postal_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id, street, city, state, postal_code, created_at
	`, addr.Street, addr.City, addr.State, addr.PostalCode).Scan(
		&a.ID, &a.Street, &a.City, &a.State, &a.PostalCode, &a.CreatedAt,
	)
	return a, err
}
