package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"boxoffice/internal/domain"
	"boxoffice/internal/repository"
)

// InventoryRepo is the Postgres-backed inventory ledger. Reserve and
// Release are single conditional statements, so the sold counter can
// never oversell under concurrent checkouts.
type InventoryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *InventoryRepo) With(db DB) *InventoryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InventoryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CheckReduction reports whether capacity can drop to newQuantity
// without stranding sold units.
//
// Returns:
//   - bool: true when newQuantity >= sold_quantity.
//   - error: repository.ErrNotFound if the ticket type is not found.
func (r *InventoryRepo) CheckReduction(ctx context.Context, ticketTypeID uuid.UUID, newQuantity int) (bool, error) {
	const op = "postgres.InventoryRepo.CheckReduction"

	db := r.handle()

	var sold int
	err := db.QueryRow(ctx,
		`SELECT sold_quantity FROM ticket_types WHERE id = $1`,
		ticketTypeID,
	).Scan(&sold)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return newQuantity >= sold, nil
}

// Reserve atomically sells count units. The condition and the increment
// are one statement: concurrent reservations serialize on the row and
// the losers see the updated counter, so combined successes never exceed
// capacity.
//
// Returns:
//   - error: repository.ErrInsufficient if fewer than count units remain.
//   - error: repository.ErrNotFound if the ticket type is not found.
func (r *InventoryRepo) Reserve(ctx context.Context, ticketTypeID uuid.UUID, count int) error {
	const op = "postgres.InventoryRepo.Reserve"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE ticket_types
		 SET sold_quantity = sold_quantity + $2
		 WHERE id = $1 AND sold_quantity + $2 <= quantity`,
		ticketTypeID, count,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM ticket_types WHERE id = $1)`, ticketTypeID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if exists {
			return fmt.Errorf("%s:%w", op, repository.ErrInsufficient)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// Availability sums capacity and sold counters across an event's ticket
// types.
func (r *InventoryRepo) Availability(ctx context.Context, eventID int64) (*domain.EventAvailability, error) {
	const op = "postgres.InventoryRepo.Availability"

	db := r.handle()

	var total, sold int
	err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(sold_quantity), 0)
		 FROM ticket_types
		 WHERE event_id = $1`,
		eventID,
	).Scan(&total, &sold)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	available := total - sold
	if available < 0 {
		available = 0
	}

	return &domain.EventAvailability{
		EventID:   eventID,
		Total:     total,
		Sold:      sold,
		Available: available,
	}, nil
}

// Release returns count units to inventory, flooring the sold counter
// at zero.
//
// Returns:
//   - error: repository.ErrNotFound if the ticket type is not found.
func (r *InventoryRepo) Release(ctx context.Context, ticketTypeID uuid.UUID, count int) error {
	const op = "postgres.InventoryRepo.Release"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE ticket_types
		 SET sold_quantity = GREATEST(sold_quantity - $2, 0)
		 WHERE id = $1`,
		ticketTypeID, count,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
