package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Quote computes the buyer-facing price for quantity units of a ticket
// type, with an optional discount code, converted into displayCurrency.
//
// The discount is computed against the unit price and then scaled by
// quantity, not computed on the subtotal. An empty displayCurrency means
// the event's own currency.
//
// Returns:
//   - *domain.Quote: the computed quote.
//   - error: pricing.ErrInvalidQuantity, any ValidateCode error, or
//     pricing.ErrUnknownCurrency from the conversion step.
func Quote(
	event *domain.Event,
	tt *domain.TicketType,
	quantity int,
	code *domain.DiscountCode,
	displayCurrency string,
	rates domain.RateTable,
	now time.Time,
) (*domain.Quote, error) {
	const op = "pricing.Quote"

	if quantity <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	qty := decimal.NewFromInt(int64(quantity))
	subtotal := tt.Price.Mul(qty)

	var discount decimal.Decimal
	if code != nil {
		res, err := ValidateCode(code, now, tt.Price)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		discount = res.Discount
	}

	total := subtotal.Sub(discount.Mul(qty))
	if total.IsNegative() {
		total = decimal.Zero
	}

	if displayCurrency == "" {
		displayCurrency = event.CurrencyCode
	}

	converted, err := Convert(total, event.CurrencyCode, displayCurrency, rates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.Quote{
		Subtotal:       subtotal,
		Discount:       discount,
		Total:          total,
		ConvertedTotal: converted,
		Currency:       displayCurrency,
	}, nil
}
