package inventory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"boxoffice/internal/repository"
)

type counters struct {
	quantity int
	sold     int
}

// MemoryLedger is a mutex-guarded in-process Ledger. The production
// wiring uses the Postgres-backed ledger; this one backs tests and any
// embedded use without a database.
type MemoryLedger struct {
	mu    sync.Mutex
	items map[uuid.UUID]*counters
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{items: make(map[uuid.UUID]*counters)}
}

// Track registers a ticket type with the given capacity and sold count.
// It overwrites any previous entry for the same identifier.
func (l *MemoryLedger) Track(ticketTypeID uuid.UUID, quantity, sold int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items[ticketTypeID] = &counters{quantity: quantity, sold: sold}
}

// Counts returns the current quantity and sold counters.
func (l *MemoryLedger) Counts(ticketTypeID uuid.UUID) (quantity, sold int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.items[ticketTypeID]
	if !ok {
		return 0, 0, false
	}
	return c.quantity, c.sold, true
}

func (l *MemoryLedger) CheckReduction(_ context.Context, ticketTypeID uuid.UUID, newQuantity int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.items[ticketTypeID]
	if !ok {
		return false, repository.ErrNotFound
	}

	return newQuantity >= c.sold, nil
}

func (l *MemoryLedger) Reserve(_ context.Context, ticketTypeID uuid.UUID, count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.items[ticketTypeID]
	if !ok {
		return repository.ErrNotFound
	}

	if c.sold+count > c.quantity {
		return repository.ErrInsufficient
	}

	c.sold += count

	return nil
}

func (l *MemoryLedger) Release(_ context.Context, ticketTypeID uuid.UUID, count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.items[ticketTypeID]
	if !ok {
		return repository.ErrNotFound
	}

	c.sold -= count
	if c.sold < 0 {
		c.sold = 0
	}

	return nil
}
