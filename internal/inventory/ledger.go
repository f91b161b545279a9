// Package inventory defines the ticket inventory ledger: per-ticket-type
// capacity and sold counters behind an atomic reserve/release interface.
package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Ledger tracks capacity and sold counters per ticket type.
//
// Reserve must be a single atomic conditional update: two concurrent
// reservations must never both succeed if their combined count would
// exceed the remaining capacity. Implementations return
// repository.ErrInsufficient when the request exceeds what is left and
// repository.ErrNotFound for an unknown ticket type.
type Ledger interface {
	// CheckReduction reports whether the ticket type's capacity can be
	// lowered to newQuantity without dropping below its sold count.
	CheckReduction(ctx context.Context, ticketTypeID uuid.UUID, newQuantity int) (bool, error)

	// Reserve atomically increments the sold counter by count if
	// sold + count <= quantity, otherwise changes nothing.
	Reserve(ctx context.Context, ticketTypeID uuid.UUID, count int) error

	// Release decrements the sold counter by count, flooring at zero.
	Release(ctx context.Context, ticketTypeID uuid.UUID, count int) error
}
