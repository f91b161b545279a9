package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
	"boxoffice/internal/reconcile"
	redisx "boxoffice/internal/redis"
	"boxoffice/internal/repository"
	postgresrepo "boxoffice/internal/repository/postgres"
	redisrepo "boxoffice/internal/repository/redis"
	"boxoffice/internal/uow"
)

var percentCeiling = decimal.NewFromInt(100)

// ticketStore is the slice of the event repository SaveEvent needs.
// *postgresrepo.EventRepo satisfies it.
type ticketStore interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListTicketTypes(ctx context.Context, eventID int64) ([]domain.TicketType, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error
	InsertTicketType(ctx context.Context, t *domain.TicketType) error
	UpdateTicketType(ctx context.Context, t *domain.TicketType) error
	DeleteTicketType(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisx.EventsPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisx.EventsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// CreateEvent creates an event record and returns its ID.
//
// Returns:
//   - int64: the created event ID on success.
//   - error: admin.ErrValidation if required fields are missing.
func (s *Service) CreateEvent(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "service.admin.CreateEvent"

	if e.Name == "" {
		return 0, fmt.Errorf("%s: %w: event name is required", op, ErrValidation)
	}
	if e.CurrencyCode == "" {
		return 0, fmt.Errorf("%s: %w: currency code is required", op, ErrValidation)
	}
	if e.Capacity != nil && *e.Capacity < 0 {
		return 0, fmt.Errorf("%s: %w: capacity must be non-negative", op, ErrValidation)
	}

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Events().With(tx).CreateEvent(ctx, e)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return id, err
}

// SaveEvent updates the event's own fields and reconciles its persisted
// ticket set against the desired one inside a single transaction. No
// partial application: the first conflict rolls everything back.
//
// Returns:
//   - []reconcile.Op: the applied operations, for audit logging.
//   - error: admin.ErrEventNotFound if the event does not exist.
//   - error: admin.ErrValidation if a desired entry is malformed.
//   - error: admin.ErrCapacityExceeded if the event capacity is set and
//     the desired quantities overrun it.
//   - error: admin.ErrInventoryConflict (a reconcile.ConflictError) if an
//     update or deletion would strand sold inventory.
func (s *Service) SaveEvent(
	ctx context.Context,
	e *domain.Event,
	desired []reconcile.DesiredTicket,
) ([]reconcile.Op, error) {
	const op = "service.admin.SaveEvent"

	var ops []reconcile.Op

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		applied, err := saveEventTx(ctx, s.store.Events().With(tx), e, desired)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		ops = applied

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateEvent(ctx, e.ID)
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishEventChanged(ctx, e.ID)
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ops, nil
}

// saveEventTx is the transactional body of SaveEvent: it plans the
// ticket reconciliation, enforces the event-wide capacity cap, writes
// the event's own fields and applies the plan. Any error rolls the
// whole transaction back.
func saveEventTx(
	ctx context.Context,
	events ticketStore,
	e *domain.Event,
	desired []reconcile.DesiredTicket,
) ([]reconcile.Op, error) {
	current, err := events.GetEvent(ctx, e.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	persisted, err := events.ListTicketTypes(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	plan, err := reconcile.BuildPlan(e.ID, persisted, desired)
	if err != nil {
		return nil, err
	}

	if e.Capacity != nil && plan.TotalQuantity() > *e.Capacity {
		return nil, ErrCapacityExceeded
	}

	updated := *current
	updated.Name = e.Name
	updated.Starts = e.Starts
	updated.Location = e.Location
	updated.CurrencyCode = e.CurrencyCode
	updated.Capacity = e.Capacity

	if err := events.UpdateEvent(ctx, &updated); err != nil {
		return nil, err
	}

	if err := applyPlan(ctx, events, plan); err != nil {
		return nil, err
	}

	return plan.Ops, nil
}

// applyPlan executes the reconciliation operations against the ticket
// repo. The repo repeats the sold-count guards in SQL; a guard firing
// here means a sale landed between plan and apply, and the whole
// transaction rolls back with a conflict.
func applyPlan(ctx context.Context, events ticketStore, plan *reconcile.Plan) error {
	for _, planned := range plan.Ops {
		var err error

		switch planned.Kind {
		case reconcile.OpInsert:
			t := planned.Ticket
			err = events.InsertTicketType(ctx, &t)
		case reconcile.OpUpdate:
			t := planned.Ticket
			err = events.UpdateTicketType(ctx, &t)
		case reconcile.OpDelete:
			err = events.DeleteTicketType(ctx, planned.Ticket.ID)
		}

		if err != nil {
			if errors.Is(err, repository.ErrSoldGuard) {
				return reconcile.ConflictError{
					TicketTypeID: planned.Ticket.ID,
					TicketName:   planned.Ticket.Name,
					Sold:         planned.Ticket.SoldQuantity,
					Requested:    requestedQuantity(planned),
				}
			}
			return err
		}
	}

	return nil
}

func requestedQuantity(planned reconcile.Op) int {
	if planned.Kind == reconcile.OpDelete {
		return -1
	}
	return planned.Ticket.Quantity
}

// DeleteEvent removes an event; ticket types and discount codes cascade.
func (s *Service) DeleteEvent(ctx context.Context, eventID int64) error {
	const op = "service.admin.DeleteEvent"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Events().With(tx).DeleteEvent(ctx, eventID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateEvent(ctx, eventID)
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishEventChanged(ctx, eventID)
			}
		})

		return nil
	})

	return err
}

// CreateDiscountCode creates a discount code for an event.
//
// Returns:
//   - uuid.UUID: the created code ID.
//   - error: admin.ErrValidation if the kind/value pair is malformed.
//   - error: admin.ErrDiscountConflict if the code string already exists
//     for the event.
//   - error: admin.ErrEventNotFound if the event does not exist.
func (s *Service) CreateDiscountCode(ctx context.Context, d *domain.DiscountCode) (uuid.UUID, error) {
	const op = "service.admin.CreateDiscountCode"

	if err := validateDiscount(d); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	d.ID = uuid.New()

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if _, err := s.store.Events().With(tx).GetEvent(ctx, d.EventID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.store.Discounts().With(tx).Create(ctx, d); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrDiscountConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return d.ID, nil
}

// UpdateDiscountCode overwrites a code's fields. current_uses is not
// touchable from here; it only moves through redemption.
func (s *Service) UpdateDiscountCode(ctx context.Context, d *domain.DiscountCode) error {
	const op = "service.admin.UpdateDiscountCode"

	if err := validateDiscount(d); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Discounts().With(tx).Update(ctx, d); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrDiscountNotFound)
			}
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrDiscountConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return err
}

func validateDiscount(d *domain.DiscountCode) error {
	if d.Code == "" {
		return fmt.Errorf("%w: code is required", ErrValidation)
	}

	switch d.Kind {
	case domain.DiscountPercent:
		if d.Value.IsNegative() || d.Value.GreaterThan(percentCeiling) {
			return fmt.Errorf("%w: percent must be within [0,100]", ErrValidation)
		}
	case domain.DiscountFixed:
		if d.Value.IsNegative() {
			return fmt.Errorf("%w: amount must be non-negative", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: kind must be percent or fixed", ErrValidation)
	}

	if d.MaxUses != nil && *d.MaxUses < 1 {
		return fmt.Errorf("%w: max uses must be at least 1", ErrValidation)
	}

	if d.ValidUntil != nil && d.ValidUntil.Before(d.ValidFrom) {
		return fmt.Errorf("%w: valid_until precedes valid_from", ErrValidation)
	}

	return nil
}
