package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/domain"
	"boxoffice/internal/reconcile"
	"boxoffice/internal/repository"
)

// --- Fakes ---

type fakeTicketStore struct {
	event   *domain.Event
	tickets []domain.TicketType

	// soldGuardID makes updates and deletes of that ticket type fail the
	// way the SQL sold-count guard does.
	soldGuardID uuid.UUID

	updatedEvent *domain.Event
	inserted     []domain.TicketType
	updated      []domain.TicketType
	deleted      []uuid.UUID
}

func (f *fakeTicketStore) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	if f.event == nil || f.event.ID != id {
		return nil, repository.ErrNotFound
	}
	e := *f.event
	return &e, nil
}

func (f *fakeTicketStore) ListTicketTypes(_ context.Context, eventID int64) ([]domain.TicketType, error) {
	var out []domain.TicketType
	for _, t := range f.tickets {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTicketStore) UpdateEvent(_ context.Context, e *domain.Event) error {
	cp := *e
	f.updatedEvent = &cp
	return nil
}

func (f *fakeTicketStore) InsertTicketType(_ context.Context, t *domain.TicketType) error {
	f.inserted = append(f.inserted, *t)
	return nil
}

func (f *fakeTicketStore) UpdateTicketType(_ context.Context, t *domain.TicketType) error {
	if t.ID == f.soldGuardID {
		return repository.ErrSoldGuard
	}
	f.updated = append(f.updated, *t)
	return nil
}

func (f *fakeTicketStore) DeleteTicketType(_ context.Context, id uuid.UUID) error {
	if id == f.soldGuardID {
		return repository.ErrSoldGuard
	}
	f.deleted = append(f.deleted, id)
	return nil
}

// --- Fixture ---

func intPtr(n int) *int { return &n }

func eventFixture() *domain.Event {
	return &domain.Event{
		ID:           42,
		Name:         "Summer Gala",
		Starts:       time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC),
		Location:     "Main Hall",
		CurrencyCode: "USD",
	}
}

func ticketFixture(name string, quantity, sold int) domain.TicketType {
	return domain.TicketType{
		ID:           uuid.New(),
		EventID:      42,
		Name:         name,
		Price:        decimal.NewFromInt(50),
		Quantity:     quantity,
		SoldQuantity: sold,
	}
}

func desiredTicket(t domain.TicketType) reconcile.DesiredTicket {
	return reconcile.DesiredTicket{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Quantity:    t.Quantity,
		Benefits:    t.Benefits,
	}
}

// --- Tests ---

func TestSaveEventTx_HappyPath(t *testing.T) {
	ctx := context.Background()

	keep := ticketFixture("GA", 100, 12)
	drop := ticketFixture("Early Bird", 20, 0)
	store := &fakeTicketStore{
		event:   eventFixture(),
		tickets: []domain.TicketType{keep, drop},
	}

	grown := desiredTicket(keep)
	grown.Quantity = 150
	fresh := reconcile.DesiredTicket{Name: "VIP", Price: decimal.NewFromInt(200), Quantity: 10}

	submitted := eventFixture()
	submitted.Name = "Summer Gala (rescheduled)"
	submitted.Location = "Garden Stage"

	ops, err := saveEventTx(ctx, store, submitted, []reconcile.DesiredTicket{grown, fresh})
	require.NoError(t, err)
	assert.Len(t, ops, 3)

	require.NotNil(t, store.updatedEvent)
	assert.Equal(t, "Summer Gala (rescheduled)", store.updatedEvent.Name)
	assert.Equal(t, "Garden Stage", store.updatedEvent.Location)

	require.Len(t, store.updated, 1)
	assert.Equal(t, keep.ID, store.updated[0].ID)
	assert.Equal(t, 150, store.updated[0].Quantity)
	assert.Equal(t, 12, store.updated[0].SoldQuantity, "sold count survives the update")

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "VIP", store.inserted[0].Name)
	assert.NotEqual(t, uuid.Nil, store.inserted[0].ID)

	require.Len(t, store.deleted, 1)
	assert.Equal(t, drop.ID, store.deleted[0])
}

func TestSaveEventTx_EventNotFound(t *testing.T) {
	store := &fakeTicketStore{}

	_, err := saveEventTx(context.Background(), store, eventFixture(), nil)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSaveEventTx_CapacityExceededWritesNothing(t *testing.T) {
	existing := ticketFixture("GA", 100, 0)
	store := &fakeTicketStore{
		event:   eventFixture(),
		tickets: []domain.TicketType{existing},
	}

	submitted := eventFixture()
	submitted.Capacity = intPtr(120)

	grown := desiredTicket(existing)
	grown.Quantity = 121

	_, err := saveEventTx(context.Background(), store, submitted, []reconcile.DesiredTicket{grown})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	assert.Nil(t, store.updatedEvent, "the cap is checked before any write")
	assert.Empty(t, store.updated)
}

func TestSaveEventTx_ShrinkBelowSoldConflicts(t *testing.T) {
	existing := ticketFixture("VIP", 10, 7)
	store := &fakeTicketStore{
		event:   eventFixture(),
		tickets: []domain.TicketType{existing},
	}

	shrunk := desiredTicket(existing)
	shrunk.Quantity = 5

	_, err := saveEventTx(context.Background(), store, eventFixture(), []reconcile.DesiredTicket{shrunk})
	require.ErrorIs(t, err, ErrInventoryConflict)

	var conflict reconcile.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, existing.ID, conflict.TicketTypeID)
	assert.Equal(t, 7, conflict.Sold)
	assert.Equal(t, 5, conflict.Requested)

	assert.Nil(t, store.updatedEvent, "conflicts surface before any write")
}

func TestSaveEventTx_SoldGuardBecomesConflict(t *testing.T) {
	// The plan passes, but the repo's sold-count guard fires on apply.
	// A sale landing between plan and apply produces exactly this.
	existing := ticketFixture("GA", 100, 0)
	store := &fakeTicketStore{
		event:       eventFixture(),
		tickets:     []domain.TicketType{existing},
		soldGuardID: existing.ID,
	}

	shrunk := desiredTicket(existing)
	shrunk.Quantity = 40

	_, err := saveEventTx(context.Background(), store, eventFixture(), []reconcile.DesiredTicket{shrunk})
	require.ErrorIs(t, err, ErrInventoryConflict)

	var conflict reconcile.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, existing.ID, conflict.TicketTypeID)
	assert.Equal(t, "GA", conflict.TicketName)
	assert.Equal(t, 40, conflict.Requested)
}

func TestSaveEventTx_SoldGuardOnDeleteBecomesConflict(t *testing.T) {
	existing := ticketFixture("GA", 100, 0)
	store := &fakeTicketStore{
		event:       eventFixture(),
		tickets:     []domain.TicketType{existing},
		soldGuardID: existing.ID,
	}

	_, err := saveEventTx(context.Background(), store, eventFixture(), nil)
	require.ErrorIs(t, err, ErrInventoryConflict)

	var conflict reconcile.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, -1, conflict.Requested, "deletions carry no requested quantity")
}
