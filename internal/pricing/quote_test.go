package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/domain"
)

func quoteFixture() (*domain.Event, *domain.TicketType) {
	event := &domain.Event{
		ID:           1,
		Name:         "GopherCon",
		CurrencyCode: "USD",
	}
	tt := &domain.TicketType{
		ID:      uuid.New(),
		EventID: 1,
		Name:    "General",
		Price:   decimal.NewFromInt(100),
	}
	return event, tt
}

func TestQuote_NoDiscount(t *testing.T) {
	event, tt := quoteFixture()

	q, err := Quote(event, tt, 3, nil, "", testRates(), time.Now())
	require.NoError(t, err)

	assert.True(t, q.Subtotal.Equal(decimal.NewFromInt(300)))
	assert.True(t, q.Discount.IsZero())
	assert.True(t, q.Total.Equal(decimal.NewFromInt(300)))
	assert.True(t, q.ConvertedTotal.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "USD", q.Currency, "empty display currency defaults to the event currency")
}

func TestQuote_PercentDiscountScalesPerUnit(t *testing.T) {
	event, tt := quoteFixture()

	// 10% of the 100 unit price, applied to each of 4 units.
	q, err := Quote(event, tt, 4, percentCode("10"), "", testRates(), time.Now())
	require.NoError(t, err)

	assert.True(t, q.Subtotal.Equal(decimal.NewFromInt(400)))
	assert.True(t, q.Discount.Equal(decimal.NewFromInt(10)), "discount is per unit")
	assert.True(t, q.Total.Equal(decimal.NewFromInt(360)), "got %s", q.Total)
}

func TestQuote_FixedDiscountClampsTotal(t *testing.T) {
	event, tt := quoteFixture()
	tt.Price = decimal.NewFromInt(5)

	q, err := Quote(event, tt, 2, fixedCode("20"), "", testRates(), time.Now())
	require.NoError(t, err)
	assert.True(t, q.Total.IsZero(), "total must clamp at zero, got %s", q.Total)
}

func TestQuote_ConvertedCurrency(t *testing.T) {
	event, tt := quoteFixture()

	q, err := Quote(event, tt, 1, nil, "EUR", testRates(), time.Now())
	require.NoError(t, err)

	assert.True(t, q.Total.Equal(decimal.NewFromInt(100)), "total stays in event currency")
	assert.True(t, q.ConvertedTotal.Equal(decimal.NewFromInt(90)), "got %s", q.ConvertedTotal)
	assert.Equal(t, "EUR", q.Currency)
}

func TestQuote_InvalidQuantity(t *testing.T) {
	event, tt := quoteFixture()

	for _, qty := range []int{0, -1} {
		_, err := Quote(event, tt, qty, nil, "", testRates(), time.Now())
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", qty)
	}
}

func TestQuote_PropagatesDiscountErrors(t *testing.T) {
	event, tt := quoteFixture()

	c := percentCode("10")
	c.ValidFrom = time.Now().Add(time.Hour)

	_, err := Quote(event, tt, 1, c, "", testRates(), time.Now())
	assert.ErrorIs(t, err, ErrCodeNotYetValid)
}

func TestQuote_PropagatesUnknownCurrency(t *testing.T) {
	event, tt := quoteFixture()

	_, err := Quote(event, tt, 1, nil, "JPY", testRates(), time.Now())
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}
