package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
)

var (
	ErrCodeNotFound    = errors.New("discount code not found")
	ErrCodeNotYetValid = errors.New("discount code not yet valid")
	ErrCodeExpired     = errors.New("discount code expired")
	ErrCodeExhausted   = errors.New("discount code exhausted")
)

var hundred = decimal.NewFromInt(100)

// DiscountResult is the per-unit outcome of applying a code to a price.
type DiscountResult struct {
	Discount   decimal.Decimal `json:"discount"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// ValidateCode checks a discount code's applicability at now and computes
// the per-unit discount against price. It never mutates usage counters;
// redemption is a separate step so a preview does not consume a use.
//
// Returns:
//   - DiscountResult: the discount and the clamped final unit price.
//   - error: pricing.ErrCodeNotFound if code is nil or inactive.
//   - error: pricing.ErrCodeNotYetValid if now precedes the validity window.
//   - error: pricing.ErrCodeExpired if the validity window has closed.
//   - error: pricing.ErrCodeExhausted if the usage cap is reached.
func ValidateCode(code *domain.DiscountCode, now time.Time, price decimal.Decimal) (DiscountResult, error) {
	if code == nil || !code.Active {
		return DiscountResult{}, ErrCodeNotFound
	}

	if now.Before(code.ValidFrom) {
		return DiscountResult{}, ErrCodeNotYetValid
	}

	if code.ValidUntil != nil && now.After(*code.ValidUntil) {
		return DiscountResult{}, ErrCodeExpired
	}

	if code.MaxUses != nil && code.CurrentUses >= *code.MaxUses {
		return DiscountResult{}, ErrCodeExhausted
	}

	var discount decimal.Decimal

	switch code.Kind {
	case domain.DiscountPercent:
		discount = price.Mul(code.Value).Div(hundred)
	case domain.DiscountFixed:
		discount = code.Value
	default:
		return DiscountResult{}, fmt.Errorf("invalid discount kind: %q", code.Kind)
	}

	final := price.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return DiscountResult{Discount: discount, FinalPrice: final}, nil
}
