package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
	"boxoffice/internal/inventory"
	"boxoffice/internal/pricing"
	redisx "boxoffice/internal/redis"
	"boxoffice/internal/repository"
	redisrepo "boxoffice/internal/repository/redis"
)

// EventStore is the slice of event persistence the checkout path needs.
type EventStore interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	GetTicketType(ctx context.Context, id uuid.UUID) (*domain.TicketType, error)
}

// DiscountStore looks codes up and consumes uses. Redeem must be an
// atomic increment-with-ceiling; see the Postgres implementation.
type DiscountStore interface {
	GetByCode(ctx context.Context, eventID int64, code string) (*domain.DiscountCode, error)
	Redeem(ctx context.Context, id uuid.UUID) error
}

// PurchaseStore persists reservation references.
type PurchaseStore interface {
	Create(ctx context.Context, p *domain.Purchase) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RateSource supplies the currency rate snapshot.
type RateSource interface {
	Snapshot(ctx context.Context) (domain.RateTable, error)
}

type Service struct {
	events    EventStore
	ledger    inventory.Ledger
	discounts DiscountStore
	purchases PurchaseStore
	rates     RateSource
	cache     *redisrepo.Cache
	pubsub    *redisx.EventsPubSub
	now       func() time.Time
}

func New(
	events EventStore,
	ledger inventory.Ledger,
	discounts DiscountStore,
	purchases PurchaseStore,
	rates RateSource,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
) *Service {
	return &Service{
		events:    events,
		ledger:    ledger,
		discounts: discounts,
		purchases: purchases,
		rates:     rates,
		cache:     cache,
		pubsub:    pubsub,
		now:       time.Now,
	}
}

// PurchaseTicket sells quantity units of a ticket type: it quotes the
// price (validating the optional code), atomically reserves inventory,
// persists the reservation reference, and redeems the code. A failure
// past the reservation releases it again; that is the only rollback
// path in the subsystem.
//
// Returns:
//   - *domain.Purchase: the reservation reference.
//   - *domain.Quote: the price the buyer saw.
//   - error: checkout.ErrSoldOut if the reservation exceeds remaining
//     capacity; checkout.ErrCode* for discount failures;
//     checkout.ErrUnknownCurrency for an unconvertible display currency.
func (s *Service) PurchaseTicket(
	ctx context.Context,
	eventID int64,
	ticketTypeID uuid.UUID,
	quantity int,
	code string,
	displayCurrency string,
) (*domain.Purchase, *domain.Quote, error) {
	const op = "service.checkout.PurchaseTicket"

	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	event, tt, err := s.eventAndTicket(ctx, eventID, ticketTypeID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var dc *domain.DiscountCode
	if code != "" {
		dc, err = s.discounts.GetByCode(ctx, eventID, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, fmt.Errorf("%s: %w", op, ErrCodeNotFound)
			}
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	rates, err := s.rates.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	quote, err := pricing.Quote(event, tt, quantity, dc, displayCurrency, rates, s.now())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ledger.Reserve(ctx, ticketTypeID, quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficient) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrSoldOut)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrTicketTypeNotFound)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	purchase := &domain.Purchase{
		ID:           uuid.New(),
		EventID:      eventID,
		TicketTypeID: ticketTypeID,
		Quantity:     quantity,
		UnitPrice:    tt.Price,
		Discount:     quote.Discount,
		Total:        quote.ConvertedTotal,
		Currency:     quote.Currency,
		Status:       domain.PurchaseConfirmed,
	}
	if dc != nil {
		id := dc.ID
		purchase.CodeID = &id
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		_ = s.ledger.Release(ctx, ticketTypeID, quantity)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if dc != nil {
		if err := s.discounts.Redeem(ctx, dc.ID); err != nil {
			_ = s.purchases.Delete(ctx, purchase.ID)
			_ = s.ledger.Release(ctx, ticketTypeID, quantity)

			if errors.Is(err, repository.ErrExhausted) {
				return nil, nil, fmt.Errorf("%s: %w", op, ErrCodeExhausted)
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, fmt.Errorf("%s: %w", op, ErrCodeNotFound)
			}
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	s.notifyChanged(ctx, eventID)

	return purchase, quote, nil
}

// CancelPurchase flips a confirmed purchase to cancelled and releases
// its units back to inventory. The status guard in the store makes the
// release happen at most once.
//
// Returns:
//   - error: checkout.ErrPurchaseNotFound if the reference is unknown.
//   - error: checkout.ErrAlreadyCancelled on a repeated cancel.
func (s *Service) CancelPurchase(ctx context.Context, ref uuid.UUID) error {
	const op = "service.checkout.CancelPurchase"

	purchase, err := s.purchases.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPurchaseNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.purchases.Cancel(ctx, ref); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%s: %w", op, ErrAlreadyCancelled)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPurchaseNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ledger.Release(ctx, purchase.TicketTypeID, purchase.Quantity); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notifyChanged(ctx, purchase.EventID)

	return nil
}

// ValidateDiscountCode previews a code against a ticket's unit price
// without consuming a use.
//
// Returns:
//   - *pricing.DiscountResult: per-unit discount and final price.
//   - error: checkout.ErrCodeNotFound / ErrCodeNotYetValid /
//     ErrCodeExpired / ErrCodeExhausted.
func (s *Service) ValidateDiscountCode(
	ctx context.Context,
	eventID int64,
	code string,
	ticketTypeID uuid.UUID,
) (*pricing.DiscountResult, error) {
	const op = "service.checkout.ValidateDiscountCode"

	_, tt, err := s.eventAndTicket(ctx, eventID, ticketTypeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dc, err := s.discounts.GetByCode(ctx, eventID, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrCodeNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := pricing.ValidateCode(dc, s.now(), tt.Price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &res, nil
}

// ConvertPrice converts an amount between currencies using the current
// rate snapshot.
func (s *Service) ConvertPrice(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	const op = "service.checkout.ConvertPrice"

	rates, err := s.rates.Snapshot(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pricing.Convert(amount, from, to, rates)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) eventAndTicket(ctx context.Context, eventID int64, ticketTypeID uuid.UUID) (*domain.Event, *domain.TicketType, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, err
	}

	tt, err := s.events.GetTicketType(ctx, ticketTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTicketTypeNotFound
		}
		return nil, nil, err
	}

	if tt.EventID != eventID {
		return nil, nil, ErrTicketTypeNotFound
	}

	return event, tt, nil
}

func (s *Service) notifyChanged(ctx context.Context, eventID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}
}
