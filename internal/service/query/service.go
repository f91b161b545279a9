package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"boxoffice/internal/domain"
	redisx "boxoffice/internal/redis"
	"boxoffice/internal/repository"
	postgresrepo "boxoffice/internal/repository/postgres"
	redisrepo "boxoffice/internal/repository/redis"
)

type Config struct {
	SummaryTTL      time.Duration
	AvailabilityTTL time.Duration
}

// Service is the read side: event summaries and availability counters,
// served through the Redis cache with singleflight on misses.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = time.Minute
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetEvent returns an event with its ticket types.
//
// Returns:
//   - *domain.EventWithTicketTypes: the event summary.
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, eventID int64) (*domain.EventWithTicketTypes, error) {
	const op = "service.query.GetEvent"

	load := func(ctx context.Context) (*domain.EventWithTicketTypes, error) {
		event, err := s.store.Events().GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}

		tickets, err := s.store.Events().ListTicketTypes(ctx, eventID)
		if err != nil {
			return nil, err
		}

		return &domain.EventWithTicketTypes{Event: *event, TicketTypes: tickets}, nil
	}

	var out *domain.EventWithTicketTypes
	var err error

	if s.cache != nil {
		out, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyEventSummary(eventID), s.cfg.SummaryTTL, load)
	} else {
		out, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListEvents lists events ordered by start time.
func (s *Service) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "service.query.ListEvents"

	events, err := s.store.Events().ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// Availability returns aggregate capacity counters for an event.
//
// Returns:
//   - *domain.EventAvailability: total/sold/available across the ticket set.
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) Availability(ctx context.Context, eventID int64) (*domain.EventAvailability, error) {
	const op = "service.query.Availability"

	load := func(ctx context.Context) (*domain.EventAvailability, error) {
		if _, err := s.store.Events().GetEvent(ctx, eventID); err != nil {
			return nil, err
		}
		return s.store.Inventory().Availability(ctx, eventID)
	}

	var out *domain.EventAvailability
	var err error

	if s.cache != nil {
		out, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyEventAvailability(eventID), s.cfg.AvailabilityTTL, load)
	} else {
		out, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GetPurchase looks a reservation reference up.
//
// Returns:
//   - *domain.Purchase: the purchase when found.
//   - error: query.ErrPurchaseNotFound if the reference is unknown.
func (s *Service) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	const op = "service.query.GetPurchase"

	p, err := s.store.Purchases().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPurchaseNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}
