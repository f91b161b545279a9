package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"boxoffice/internal/domain"
	"boxoffice/internal/repository"
)

type DiscountRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *DiscountRepo) With(db DB) *DiscountRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *DiscountRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create inserts a discount code scoped to an event.
//
// Returns:
//   - error: repository.ErrConflict if the code already exists for the event.
func (r *DiscountRepo) Create(ctx context.Context, d *domain.DiscountCode) error {
	const op = "postgres.DiscountRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO discount_codes(id, event_id, code, kind, value, valid_from, valid_until, max_uses, current_uses, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9)`,
		d.ID, d.EventID, d.Code, d.Kind, d.Value, d.ValidFrom, d.ValidUntil, d.MaxUses, d.Active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Update overwrites a code's mutable fields. The usage counter is never
// written here: it only moves through Redeem.
func (r *DiscountRepo) Update(ctx context.Context, d *domain.DiscountCode) error {
	const op = "postgres.DiscountRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE discount_codes
		 SET code = $2, kind = $3, value = $4, valid_from = $5, valid_until = $6, max_uses = $7, is_active = $8
		 WHERE id = $1`,
		d.ID, d.Code, d.Kind, d.Value, d.ValidFrom, d.ValidUntil, d.MaxUses, d.Active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// GetByCode looks a code up scoped to an event. The match is a
// case-sensitive exact comparison on the stored string.
//
// Returns:
//   - *domain.DiscountCode: the code when found.
//   - error: repository.ErrNotFound if no row matches.
func (r *DiscountRepo) GetByCode(ctx context.Context, eventID int64, code string) (*domain.DiscountCode, error) {
	const op = "postgres.DiscountRepo.GetByCode"

	db := r.handle()

	var d domain.DiscountCode
	err := db.QueryRow(ctx,
		`SELECT id, event_id, code, kind, value, valid_from, valid_until, max_uses, current_uses, is_active
		 FROM discount_codes
		 WHERE event_id = $1 AND code = $2`,
		eventID, code,
	).Scan(
		&d.ID, &d.EventID, &d.Code, &d.Kind, &d.Value,
		&d.ValidFrom, &d.ValidUntil, &d.MaxUses, &d.CurrentUses, &d.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &d, nil
}

// Redeem consumes one use. Increment and ceiling check are a single
// conditional statement, so concurrent checkouts can never push
// current_uses past max_uses.
//
// Returns:
//   - error: repository.ErrExhausted if the cap is reached or the code
//     was deactivated.
//   - error: repository.ErrNotFound if the code is not found.
func (r *DiscountRepo) Redeem(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.DiscountRepo.Redeem"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE discount_codes
		 SET current_uses = current_uses + 1
		 WHERE id = $1
		   AND is_active
		   AND (max_uses IS NULL OR current_uses < max_uses)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM discount_codes WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if exists {
			return fmt.Errorf("%s:%w", op, repository.ErrExhausted)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
