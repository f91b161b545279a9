package checkout

import (
	"errors"

	"boxoffice/internal/pricing"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrPurchaseNotFound   = errors.New("purchase not found")
	ErrAlreadyCancelled   = errors.New("purchase already cancelled")
	ErrSoldOut            = errors.New("not enough tickets left")

	ErrInvalidQuantity = pricing.ErrInvalidQuantity
	ErrCodeNotFound    = pricing.ErrCodeNotFound
	ErrCodeNotYetValid = pricing.ErrCodeNotYetValid
	ErrCodeExpired     = pricing.ErrCodeExpired
	ErrCodeExhausted   = pricing.ErrCodeExhausted
	ErrUnknownCurrency = pricing.ErrUnknownCurrency
)
