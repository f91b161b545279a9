package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"boxoffice/internal/domain"
	"boxoffice/internal/repository"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateEvent inserts an event and returns its ID.
//
// Returns:
//   - int64: the created event ID.
//   - error: repository.ErrConflict on a uniqueness violation.
func (r *EventRepo) CreateEvent(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgres.EventRepo.CreateEvent"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO events(name, starts_at, location, currency_code, capacity)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		e.Name, e.Starts, e.Location, e.CurrencyCode, e.Capacity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// GetEvent retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetEvent"

	db := r.handle()

	var e domain.Event
	err := db.QueryRow(ctx,
		`SELECT id, name, starts_at, location, currency_code, capacity, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Starts, &e.Location, &e.CurrencyCode, &e.Capacity, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

// UpdateEvent overwrites an event's mutable fields.
//
// Returns:
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) UpdateEvent(ctx context.Context, e *domain.Event) error {
	const op = "postgres.EventRepo.UpdateEvent"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET name = $2, starts_at = $3, location = $4, currency_code = $5, capacity = $6
		 WHERE id = $1`,
		e.ID, e.Name, e.Starts, e.Location, e.CurrencyCode, e.Capacity,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// DeleteEvent removes an event. Ticket types and discount codes cascade
// at the schema level.
func (r *EventRepo) DeleteEvent(ctx context.Context, id int64) error {
	const op = "postgres.EventRepo.DeleteEvent"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// ListEvents lists events ordered by start time.
func (r *EventRepo) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, name, starts_at, location, currency_code, capacity, created_at
		 FROM events
		 ORDER BY starts_at
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Starts, &e.Location, &e.CurrencyCode, &e.Capacity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListTicketTypes returns the persisted ticket set for an event.
func (r *EventRepo) ListTicketTypes(ctx context.Context, eventID int64) ([]domain.TicketType, error) {
	const op = "postgres.EventRepo.ListTicketTypes"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, event_id, name, description, price, quantity, sold_quantity, benefits, created_at
		 FROM ticket_types
		 WHERE event_id = $1
		 ORDER BY created_at, id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.TicketType
	for rows.Next() {
		var t domain.TicketType
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.Name, &t.Description,
			&t.Price, &t.Quantity, &t.SoldQuantity, &t.Benefits, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// GetTicketType retrieves one ticket type by its ID.
//
// Returns:
//   - *domain.TicketType: the ticket type when found.
//   - error: repository.ErrNotFound if the ticket type is not found.
func (r *EventRepo) GetTicketType(ctx context.Context, id uuid.UUID) (*domain.TicketType, error) {
	const op = "postgres.EventRepo.GetTicketType"

	db := r.handle()

	var t domain.TicketType
	err := db.QueryRow(ctx,
		`SELECT id, event_id, name, description, price, quantity, sold_quantity, benefits, created_at
		 FROM ticket_types WHERE id = $1`,
		id,
	).Scan(
		&t.ID, &t.EventID, &t.Name, &t.Description,
		&t.Price, &t.Quantity, &t.SoldQuantity, &t.Benefits, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &t, nil
}

// InsertTicketType creates a ticket type row with sold_quantity 0.
func (r *EventRepo) InsertTicketType(ctx context.Context, t *domain.TicketType) error {
	const op = "postgres.EventRepo.InsertTicketType"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO ticket_types(id, event_id, name, description, price, quantity, sold_quantity, benefits)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`,
		t.ID, t.EventID, t.Name, t.Description, t.Price, t.Quantity, t.Benefits,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// UpdateTicketType overwrites mutable fields. The quantity guard repeats
// the plan-level check inside the database so a reduction can never slip
// below the sold counter, whatever happened since the plan was built.
//
// Returns:
//   - error: repository.ErrSoldGuard if the new quantity is below the
//     current sold count.
//   - error: repository.ErrNotFound if the ticket type is not found.
func (r *EventRepo) UpdateTicketType(ctx context.Context, t *domain.TicketType) error {
	const op = "postgres.EventRepo.UpdateTicketType"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE ticket_types
		 SET name = $2, description = $3, price = $4, quantity = $5, benefits = $6
		 WHERE id = $1 AND sold_quantity <= $5`,
		t.ID, t.Name, t.Description, t.Price, t.Quantity, t.Benefits,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM ticket_types WHERE id = $1)`, t.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if exists {
			return fmt.Errorf("%s:%w", op, repository.ErrSoldGuard)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// DeleteTicketType removes a ticket type, refusing when units are sold.
//
// Returns:
//   - error: repository.ErrSoldGuard if the row has sold_quantity > 0.
//   - error: repository.ErrNotFound if the ticket type is not found.
func (r *EventRepo) DeleteTicketType(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.EventRepo.DeleteTicketType"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`DELETE FROM ticket_types WHERE id = $1 AND sold_quantity = 0`, id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM ticket_types WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if exists {
			return fmt.Errorf("%s:%w", op, repository.ErrSoldGuard)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
