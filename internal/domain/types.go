package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Event struct {
	ID           int64
	Name         string
	Starts       time.Time
	Location     string
	CurrencyCode string
	Capacity     *int // optional cap across all ticket types
	CreatedAt    time.Time
}

type TicketType struct {
	ID           uuid.UUID
	EventID      int64
	Name         string
	Description  string
	Price        decimal.Decimal // in the event's currency
	Quantity     int
	SoldQuantity int
	Benefits     []string
	CreatedAt    time.Time
}

// Available returns the number of units still on sale.
func (t TicketType) Available() int {
	if t.SoldQuantity >= t.Quantity {
		return 0
	}
	return t.Quantity - t.SoldQuantity
}

type EventWithTicketTypes struct {
	Event       Event
	TicketTypes []TicketType
}

// DiscountKind is the tagged variant of a discount: a code takes either a
// percentage off the unit price or a fixed amount off it, never both.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

type DiscountCode struct {
	ID          uuid.UUID
	EventID     int64
	Code        string
	Kind        DiscountKind
	Value       decimal.Decimal // percent in [0,100] or a fixed amount >= 0
	ValidFrom   time.Time
	ValidUntil  *time.Time
	MaxUses     *int
	CurrentUses int
	Active      bool
}

type CurrencyRate struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"exchange_rate"` // relative to the base currency
}

// RateTable is a point-in-time snapshot of exchange rates keyed by
// currency code. The base currency always carries rate 1.
type RateTable struct {
	Base  string                  `json:"base"`
	Rates map[string]CurrencyRate `json:"rates"`
}

type PurchaseStatus string

const (
	PurchaseConfirmed PurchaseStatus = "confirmed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Purchase is the reservation reference handed back by a successful
// ticket purchase. Cancelling one releases its units back to inventory.
type Purchase struct {
	ID           uuid.UUID
	EventID      int64
	TicketTypeID uuid.UUID
	Quantity     int
	CodeID       *uuid.UUID
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal // per unit, in the event's currency
	Total        decimal.Decimal // in Currency
	Currency     string
	Status       PurchaseStatus
	CreatedAt    time.Time
}

// Quote is a buyer-facing price computation. It reflects no mutated state:
// reservation and redemption happen only in the purchase step.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"` // per unit
	Total          decimal.Decimal `json:"total"`    // in the event's currency
	ConvertedTotal decimal.Decimal `json:"converted_total"`
	Currency       string          `json:"currency"`
}

type EventAvailability struct {
	EventID   int64 `json:"event_id"`
	Total     int   `json:"total"`
	Sold      int   `json:"sold"`
	Available int   `json:"available"`
}
