package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/domain"
)

func testRates() domain.RateTable {
	return domain.RateTable{
		Base: "USD",
		Rates: map[string]domain.CurrencyRate{
			"USD": {Code: "USD", Symbol: "$", Rate: decimal.NewFromInt(1)},
			"EUR": {Code: "EUR", Symbol: "€", Rate: decimal.RequireFromString("0.9")},
			"GBP": {Code: "GBP", Symbol: "£", Rate: decimal.RequireFromString("0.8")},
			"XXX": {Code: "XXX", Rate: decimal.Zero},
		},
	}
}

func TestConvert_Identity(t *testing.T) {
	amount := decimal.RequireFromString("123.45")

	got, err := Convert(amount, "EUR", "EUR", testRates())
	require.NoError(t, err)
	assert.True(t, got.Equal(amount), "same-currency conversion must return the amount unchanged")
}

func TestConvert_IdentityIgnoresRateTable(t *testing.T) {
	// Same-currency conversion short-circuits before any lookup, so even
	// a code absent from the snapshot converts to itself.
	amount := decimal.NewFromInt(10)

	got, err := Convert(amount, "JPY", "JPY", testRates())
	require.NoError(t, err)
	assert.True(t, got.Equal(amount))
}

func TestConvert_ThroughBase(t *testing.T) {
	// 100 USD -> EUR at 0.9: 90
	got, err := Convert(decimal.NewFromInt(100), "USD", "EUR", testRates())
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(90)), "got %s", got)

	// 90 EUR -> GBP: 90 / 0.9 * 0.8 = 80
	got, err = Convert(decimal.NewFromInt(90), "EUR", "GBP", testRates())
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(80)), "got %s", got)
}

func TestConvert_RoundTrip(t *testing.T) {
	rates := testRates()
	amount := decimal.RequireFromString("55.50")

	eur, err := Convert(amount, "USD", "EUR", rates)
	require.NoError(t, err)

	back, err := Convert(eur, "EUR", "USD", rates)
	require.NoError(t, err)
	assert.True(t, back.Equal(amount), "round trip drifted: %s -> %s", amount, back)
}

func TestConvert_UnknownCurrency(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(1), "USD", "JPY", testRates())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	var ucErr UnknownCurrencyError
	require.ErrorAs(t, err, &ucErr)
	assert.Equal(t, "JPY", ucErr.Code)

	_, err = Convert(decimal.NewFromInt(1), "JPY", "USD", testRates())
	require.Error(t, err)
	var fromErr UnknownCurrencyError
	require.ErrorAs(t, err, &fromErr)
	assert.Equal(t, "JPY", fromErr.Code)
}

func TestConvert_NonPositiveRateIsUnknown(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(1), "USD", "XXX", testRates())
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}
