package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
)

// RateRepo reads the currency rate snapshot. Rows are maintained by an
// external provider; this repo never writes them.
type RateRepo struct {
	pool *pgxpool.Pool
	base string
}

func NewRateRepo(pool *pgxpool.Pool, baseCurrency string) *RateRepo {
	return &RateRepo{pool: pool, base: baseCurrency}
}

// Snapshot loads all rates keyed by currency code. The base currency is
// present with rate 1 even when the provider omits its row.
func (r *RateRepo) Snapshot(ctx context.Context) (domain.RateTable, error) {
	const op = "postgres.RateRepo.Snapshot"

	rows, err := r.pool.Query(ctx,
		`SELECT code, symbol, exchange_rate FROM currency_rates`,
	)
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	table := domain.RateTable{
		Base:  r.base,
		Rates: make(map[string]domain.CurrencyRate),
	}

	for rows.Next() {
		var cr domain.CurrencyRate
		if err := rows.Scan(&cr.Code, &cr.Symbol, &cr.Rate); err != nil {
			return domain.RateTable{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		table.Rates[cr.Code] = cr
	}
	if err := rows.Err(); err != nil {
		return domain.RateTable{}, fmt.Errorf("%s:%w", op, err)
	}

	if _, ok := table.Rates[r.base]; !ok {
		table.Rates[r.base] = domain.CurrencyRate{Code: r.base, Rate: decimal.NewFromInt(1)}
	}

	return table, nil
}
