package service

import (
	"time"

	redisx "boxoffice/internal/redis"
	postgresrepo "boxoffice/internal/repository/postgres"
	redisrepo "boxoffice/internal/repository/redis"
	"boxoffice/internal/service/admin"
	"boxoffice/internal/service/checkout"
	"boxoffice/internal/service/query"
)

type Services struct {
	Admin    *admin.Service
	Checkout *checkout.Service
	Query    *query.Service
}

type Config struct {
	Query    query.Config
	RatesTTL time.Duration
}

func NewServices(
	store *postgresrepo.Store,
	rates *postgresrepo.RateRepo,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	cfg Config,
) *Services {
	rateSource := NewCachedRates(rates, cache, cfg.RatesTTL)

	return &Services{
		Admin: admin.New(store, cache, pubsub),
		Checkout: checkout.New(
			store.Events(),
			store.Inventory(),
			store.Discounts(),
			store.Purchases(),
			rateSource,
			cache,
			pubsub,
		),
		Query: query.New(store, cache, cfg.Query),
	}
}
