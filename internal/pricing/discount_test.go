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

func percentCode(value string) *domain.DiscountCode {
	return &domain.DiscountCode{
		ID:        uuid.New(),
		Code:      "SAVE",
		Kind:      domain.DiscountPercent,
		Value:     decimal.RequireFromString(value),
		ValidFrom: time.Now().Add(-time.Hour),
		Active:    true,
	}
}

func fixedCode(value string) *domain.DiscountCode {
	c := percentCode(value)
	c.Kind = domain.DiscountFixed
	return c
}

func TestValidateCode_Percent(t *testing.T) {
	price := decimal.NewFromInt(200)

	res, err := ValidateCode(percentCode("15"), time.Now(), price)
	require.NoError(t, err)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(30)), "15%% of 200, got %s", res.Discount)
	assert.True(t, res.FinalPrice.Equal(decimal.NewFromInt(170)))
}

func TestValidateCode_TwentyPercentOnHundred(t *testing.T) {
	price := decimal.RequireFromString("100.00")

	res, err := ValidateCode(percentCode("20"), time.Now(), price)
	require.NoError(t, err)
	assert.True(t, res.Discount.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, res.FinalPrice.Equal(decimal.RequireFromString("80.00")))
}

func TestValidateCode_Fixed(t *testing.T) {
	price := decimal.NewFromInt(50)

	res, err := ValidateCode(fixedCode("10"), time.Now(), price)
	require.NoError(t, err)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(10)))
	assert.True(t, res.FinalPrice.Equal(decimal.NewFromInt(40)))
}

func TestValidateCode_FixedClampsAtZero(t *testing.T) {
	// A fixed discount larger than the price never drives it negative.
	price := decimal.NewFromInt(5)

	res, err := ValidateCode(fixedCode("10"), time.Now(), price)
	require.NoError(t, err)
	assert.True(t, res.FinalPrice.IsZero(), "final price must clamp to zero, got %s", res.FinalPrice)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(10)), "reported discount stays at face value")
}

func TestValidateCode_NilOrInactive(t *testing.T) {
	price := decimal.NewFromInt(10)

	_, err := ValidateCode(nil, time.Now(), price)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	c := percentCode("10")
	c.Active = false
	_, err = ValidateCode(c, time.Now(), price)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestValidateCode_NotYetValid(t *testing.T) {
	c := percentCode("10")
	c.ValidFrom = time.Now().Add(time.Hour)

	_, err := ValidateCode(c, time.Now(), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCodeNotYetValid)
}

func TestValidateCode_Expired(t *testing.T) {
	c := percentCode("10")
	until := time.Now().Add(-time.Minute)
	c.ValidUntil = &until

	_, err := ValidateCode(c, time.Now(), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestValidateCode_BoundaryInstantIsValid(t *testing.T) {
	now := time.Now()
	c := percentCode("10")
	c.ValidFrom = now
	until := now
	c.ValidUntil = &until

	// The window is inclusive at both ends.
	_, err := ValidateCode(c, now, decimal.NewFromInt(10))
	assert.NoError(t, err)
}

func TestValidateCode_Exhausted(t *testing.T) {
	c := percentCode("10")
	max := 3
	c.MaxUses = &max
	c.CurrentUses = 3

	_, err := ValidateCode(c, time.Now(), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCodeExhausted)

	c.CurrentUses = 2
	_, err = ValidateCode(c, time.Now(), decimal.NewFromInt(10))
	assert.NoError(t, err, "one use left must still validate")
}

func TestValidateCode_NoUsageCap(t *testing.T) {
	c := percentCode("10")
	c.CurrentUses = 1_000_000

	_, err := ValidateCode(c, time.Now(), decimal.NewFromInt(10))
	assert.NoError(t, err)
}
