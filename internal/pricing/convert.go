package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
)

var ErrUnknownCurrency = errors.New("unknown currency")

type UnknownCurrencyError struct {
	Code string
}

func (e UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency: %s", e.Code)
}

func (e UnknownCurrencyError) Is(target error) bool {
	return target == ErrUnknownCurrency
}

// Convert converts amount from one currency to another through the base
// currency of the supplied snapshot. Pure: rates are a caller-provided
// snapshot, staleness is the caller's problem.
//
// Returns:
//   - decimal.Decimal: the converted amount.
//   - error: pricing.ErrUnknownCurrency if either code is absent from the
//     snapshot or carries a non-positive rate.
func Convert(amount decimal.Decimal, from, to string, rates domain.RateTable) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	fromRate, ok := rates.Rates[from]
	if !ok || !fromRate.Rate.IsPositive() {
		return decimal.Zero, UnknownCurrencyError{Code: from}
	}

	toRate, ok := rates.Rates[to]
	if !ok || !toRate.Rate.IsPositive() {
		return decimal.Zero, UnknownCurrencyError{Code: to}
	}

	inBase := amount.Div(fromRate.Rate)

	return inBase.Mul(toRate.Rate), nil
}
