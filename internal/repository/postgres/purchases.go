package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"boxoffice/internal/domain"
	"boxoffice/internal/repository"
)

type PurchaseRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PurchaseRepo) With(db DB) *PurchaseRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PurchaseRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *PurchaseRepo) Create(ctx context.Context, p *domain.Purchase) error {
	const op = "postgres.PurchaseRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO purchases(id, event_id, ticket_type_id, quantity, code_id, unit_price, discount, total, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.EventID, p.TicketTypeID, p.Quantity, p.CodeID,
		p.UnitPrice, p.Discount, p.Total, p.Currency, p.Status,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get retrieves a purchase by its reference.
//
// Returns:
//   - *domain.Purchase: the purchase when found.
//   - error: repository.ErrNotFound if the purchase is not found.
func (r *PurchaseRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.Get"

	db := r.handle()

	var p domain.Purchase
	err := db.QueryRow(ctx,
		`SELECT id, event_id, ticket_type_id, quantity, code_id, unit_price, discount, total, currency, status, created_at
		 FROM purchases WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.EventID, &p.TicketTypeID, &p.Quantity, &p.CodeID,
		&p.UnitPrice, &p.Discount, &p.Total, &p.Currency, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &p, nil
}

// Cancel flips a confirmed purchase to cancelled. The status guard makes
// a double cancel a conflict instead of a second inventory release.
//
// Returns:
//   - error: repository.ErrConflict if the purchase is already cancelled.
//   - error: repository.ErrNotFound if the purchase is not found.
func (r *PurchaseRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.PurchaseRepo.Cancel"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE purchases SET status = 'cancelled'
		 WHERE id = $1 AND status = 'confirmed'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM purchases WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if exists {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes a purchase row. Used as the compensating action when a
// checkout fails after the row was written.
func (r *PurchaseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.PurchaseRepo.Delete"

	db := r.handle()

	if _, err := db.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
