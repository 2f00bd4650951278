package intake

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/matching"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
)

// fakeStore is an in-memory record store with all-or-nothing transactions.
type fakeStore struct {
	state     storeState
	now       func() time.Time
	failOn    map[string]error
	mutations int
	txCount   int
	locked    [][]string
}

type storeState struct {
	contacts  map[uuid.UUID]domain.Contact
	addresses map[uuid.UUID]domain.Address
	leads     map[uuid.UUID]domain.Lead
	leadOrder []uuid.UUID
	events    map[uuid.UUID][]domain.Event
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		state: storeState{
			contacts:  map[uuid.UUID]domain.Contact{},
			addresses: map[uuid.UUID]domain.Address{},
			leads:     map[uuid.UUID]domain.Lead{},
			events:    map[uuid.UUID][]domain.Event{},
		},
		now:    now,
		failOn: map[string]error{},
	}
}

func (s storeState) clone() storeState {
	return storeState{
		contacts:  maps.Clone(s.contacts),
		addresses: maps.Clone(s.addresses),
		leads:     maps.Clone(s.leads),
		leadOrder: append([]uuid.UUID(nil), s.leadOrder...),
		events:    maps.Clone(s.events),
	}
}

func (s *fakeStore) WithinTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txCount++
	s.locked = append(s.locked, repository.LockOrder(lockKeys))
	tx := &fakeTx{store: s, state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	s.mutations += tx.mutations
	return nil
}

func (s *fakeStore) leadsFor(contactID uuid.UUID) []domain.Lead {
	return (&fakeTx{store: s, state: s.state}).leadsFor(contactID)
}

func (s *fakeStore) seedContact(c domain.Contact) domain.Contact {
	c.ID = uuid.New()
	s.state.contacts[c.ID] = c
	return c
}

func (s *fakeStore) seedLead(contactID uuid.UUID, addr *domain.Address, stage domain.Stage) domain.Lead {
	tx := &fakeTx{store: s, state: s.state}
	var addressID *uuid.UUID
	if addr != nil {
		stored, _ := tx.InsertAddress(context.Background(), *addr)
		addressID = &stored.ID
	}
	lead, _ := tx.InsertLead(context.Background(), domain.Lead{
		ContactID:      contactID,
		AddressID:      addressID,
		TrackingToken:  uuid.NewString(),
		Stage:          stage,
		OriginalStage:  domain.StageNew,
		StageUpdatedAt: s.now().AddDate(0, 0, -3),
		NextFollowUp:   s.now().AddDate(0, 0, 2),
	})
	s.state = tx.state
	return lead
}

type fakeTx struct {
	store     *fakeStore
	state     storeState
	mutations int
}

func (t *fakeTx) fail(op string) error {
	return t.store.failOn[op]
}

func (t *fakeTx) FindContactByPhone(_ context.Context, primary string, secondary *string) (domain.Contact, error) {
	if err := t.fail("FindContactByPhone"); err != nil {
		return domain.Contact{}, err
	}
	owns := func(c domain.Contact, number string) bool {
		return c.Primary.Number == number || (c.Secondary != nil && c.Secondary.Number == number)
	}
	for _, c := range t.state.contacts {
		if owns(c, primary) || (secondary != nil && owns(c, *secondary)) {
			return c, nil
		}
	}
	return domain.Contact{}, repository.ErrNotFound
}

func (t *fakeTx) FindLeadsByContact(_ context.Context, contactID uuid.UUID) ([]domain.Lead, error) {
	if err := t.fail("FindLeadsByContact"); err != nil {
		return nil, err
	}
	return t.leadsFor(contactID), nil
}

func (t *fakeTx) leadsFor(contactID uuid.UUID) []domain.Lead {
	var out []domain.Lead
	for _, id := range t.state.leadOrder {
		lead := t.state.leads[id]
		if lead.ContactID != contactID {
			continue
		}
		if lead.AddressID != nil {
			addr := t.state.addresses[*lead.AddressID]
			lead.Address = &addr
		}
		out = append(out, lead)
	}
	return out
}

func (t *fakeTx) FindAddressMatch(_ context.Context, addr domain.Address) (domain.Address, error) {
	if err := t.fail("FindAddressMatch"); err != nil {
		return domain.Address{}, err
	}
	for _, stored := range t.state.addresses {
		if matching.AddressMatches(stored, addr) {
			return stored, nil
		}
	}
	return domain.Address{}, repository.ErrNotFound
}

func (t *fakeTx) InsertContact(_ context.Context, c domain.Contact) (domain.Contact, error) {
	if err := t.fail("InsertContact"); err != nil {
		return domain.Contact{}, err
	}
	c.ID = uuid.New()
	c.CreatedAt = t.store.now()
	t.state.contacts[c.ID] = c
	t.mutations++
	return c, nil
}

func (t *fakeTx) InsertAddress(_ context.Context, a domain.Address) (domain.Address, error) {
	if err := t.fail("InsertAddress"); err != nil {
		return domain.Address{}, err
	}
	a.ID = uuid.New()
	a.CreatedAt = t.store.now()
	t.state.addresses[a.ID] = a
	t.mutations++
	return a, nil
}

func (t *fakeTx) InsertLead(_ context.Context, l domain.Lead) (domain.Lead, error) {
	if err := t.fail("InsertLead"); err != nil {
		return domain.Lead{}, err
	}
	l.ID = uuid.New()
	l.CreatedAt = t.store.now()
	l.UpdatedAt = l.CreatedAt
	if l.AddressID != nil {
		addr := t.state.addresses[*l.AddressID]
		l.Address = &addr
	}
	t.state.leads[l.ID] = l
	t.state.leadOrder = append(t.state.leadOrder, l.ID)
	t.mutations++
	return l, nil
}

func (t *fakeTx) UpdateLead(_ context.Context, l domain.Lead) (domain.Lead, error) {
	if err := t.fail("UpdateLead"); err != nil {
		return domain.Lead{}, err
	}
	if _, ok := t.state.leads[l.ID]; !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	t.state.leads[l.ID] = l
	t.mutations++
	return l, nil
}

func (t *fakeTx) ListEventsByLead(_ context.Context, leadID uuid.UUID) ([]domain.Event, error) {
	if err := t.fail("ListEventsByLead"); err != nil {
		return nil, err
	}
	return t.state.events[leadID], nil
}

var errBoom = errors.New("connection reset")
