package service

import (
	"context"
	"time"

	"boxoffice/internal/domain"
	redisx "boxoffice/internal/redis"
	postgresrepo "boxoffice/internal/repository/postgres"
	redisrepo "boxoffice/internal/repository/redis"
)

// CachedRates serves the currency rate snapshot through the Redis cache.
// Rates change rarely; a short TTL keeps conversions from hammering the
// database while bounding staleness.
type CachedRates struct {
	repo  *postgresrepo.RateRepo
	cache *redisrepo.Cache
	ttl   time.Duration
}

func NewCachedRates(repo *postgresrepo.RateRepo, cache *redisrepo.Cache, ttl time.Duration) *CachedRates {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CachedRates{repo: repo, cache: cache, ttl: ttl}
}

func (r *CachedRates) Snapshot(ctx context.Context) (domain.RateTable, error) {
	if r.cache == nil {
		return r.repo.Snapshot(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, r.cache, redisx.KeyRates(), r.ttl, r.repo.Snapshot)
}
