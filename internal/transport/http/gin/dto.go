package httpgin

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
	"boxoffice/internal/reconcile"
)

type TicketTypeInput struct {
	// ID is the previously issued identifier. Empty or unrecognized
	// values mean a new ticket type.
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Benefits    []string        `json:"benefits"`
}

func (t TicketTypeInput) Validate() error {
	return validation.ValidateStruct(
		&t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&t.Description, validation.Length(0, 2000)),
		validation.Field(&t.Price, validation.By(nonNegativeDecimal)),
		validation.Field(&t.Quantity, validation.Min(0)),
	)
}

type CreateEventRequest struct {
	Name         string `json:"name" binding:"required"`
	StartsAt     string `json:"starts_at" binding:"required"`
	Location     string `json:"location"`
	CurrencyCode string `json:"currency_code" binding:"required"`
	Capacity     *int   `json:"capacity"`
}

func (r CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.CurrencyCode, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Location, validation.Length(0, 200)),
	)
}

type SaveEventRequest struct {
	Name         string            `json:"name" binding:"required"`
	StartsAt     string            `json:"starts_at" binding:"required"`
	Location     string            `json:"location"`
	CurrencyCode string            `json:"currency_code" binding:"required"`
	Capacity     *int              `json:"capacity"`
	TicketTypes  []TicketTypeInput `json:"ticket_types"`
}

func (r SaveEventRequest) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.CurrencyCode, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Location, validation.Length(0, 200)),
		validation.Field(&r.TicketTypes),
	)
}

type DiscountCodeRequest struct {
	Code       string          `json:"code" binding:"required"`
	Kind       string          `json:"kind" binding:"required,oneof=percent fixed"`
	Value      decimal.Decimal `json:"value"`
	ValidFrom  string          `json:"valid_from" binding:"required"`
	ValidUntil *string         `json:"valid_until"`
	MaxUses    *int            `json:"max_uses"`
	IsActive   *bool           `json:"is_active"`
}

func (r DiscountCodeRequest) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.Code, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Value, validation.By(nonNegativeDecimal)),
	)
}

type PurchaseTicketRequest struct {
	TicketTypeID    string `json:"ticket_type_id" binding:"required,uuid"`
	Quantity        int    `json:"quantity" binding:"required,gt=0"`
	Code            string `json:"code"`
	DisplayCurrency string `json:"display_currency"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type EventResponse struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	StartsAt     time.Time            `json:"starts_at"`
	Location     string               `json:"location"`
	CurrencyCode string               `json:"currency_code"`
	Capacity     *int                 `json:"capacity,omitempty"`
	TicketTypes  []TicketTypeResponse `json:"ticket_types,omitempty"`
}

type TicketTypeResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	SoldQuantity int             `json:"sold_quantity"`
	Available    int             `json:"available"`
	Benefits     []string        `json:"benefits"`
}

type AppliedOpResponse struct {
	Kind         string `json:"kind"`
	TicketTypeID string `json:"ticket_type_id"`
	Name         string `json:"name"`
}

type SaveEventResponse struct {
	EventID    int64               `json:"event_id"`
	AppliedOps []AppliedOpResponse `json:"applied_ops"`
}

type CreateEventResponse struct {
	EventID int64 `json:"event_id"`
}

type CreateDiscountResponse struct {
	CodeID string `json:"code_id"`
}

type PurchaseResponse struct {
	PurchaseID string       `json:"purchase_id"`
	Quote      domain.Quote `json:"quote"`
}

type PurchaseDetailsResponse struct {
	PurchaseID   string          `json:"purchase_id"`
	EventID      int64           `json:"event_id"`
	TicketTypeID string          `json:"ticket_type_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
}

func newEventResponse(e *domain.EventWithTicketTypes) EventResponse {
	out := EventResponse{
		ID:           e.Event.ID,
		Name:         e.Event.Name,
		StartsAt:     e.Event.Starts,
		Location:     e.Event.Location,
		CurrencyCode: e.Event.CurrencyCode,
		Capacity:     e.Event.Capacity,
	}

	for _, t := range e.TicketTypes {
		out.TicketTypes = append(out.TicketTypes, TicketTypeResponse{
			ID:           t.ID.String(),
			Name:         t.Name,
			Description:  t.Description,
			Price:        t.Price,
			Quantity:     t.Quantity,
			SoldQuantity: t.SoldQuantity,
			Available:    t.Available(),
			Benefits:     t.Benefits,
		})
	}

	return out
}

func newPurchaseDetailsResponse(p *domain.Purchase) PurchaseDetailsResponse {
	return PurchaseDetailsResponse{
		PurchaseID:   p.ID.String(),
		EventID:      p.EventID,
		TicketTypeID: p.TicketTypeID.String(),
		Quantity:     p.Quantity,
		UnitPrice:    p.UnitPrice,
		Discount:     p.Discount,
		Total:        p.Total,
		Currency:     p.Currency,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
}

func newAppliedOps(ops []reconcile.Op) []AppliedOpResponse {
	out := make([]AppliedOpResponse, 0, len(ops))
	for _, op := range ops {
		out = append(out, AppliedOpResponse{
			Kind:         string(op.Kind),
			TicketTypeID: op.Ticket.ID.String(),
			Name:         op.Ticket.Name,
		})
	}
	return out
}

func desiredTickets(in []TicketTypeInput) []reconcile.DesiredTicket {
	out := make([]reconcile.DesiredTicket, 0, len(in))
	for _, t := range in {
		out = append(out, reconcile.DesiredTicket{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Price:       t.Price,
			Quantity:    t.Quantity,
			Benefits:    t.Benefits,
		})
	}
	return out
}

func nonNegativeDecimal(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_decimal", "must be a decimal")
	}
	if d.IsNegative() {
		return validation.NewError("validation_non_negative", "must be non-negative")
	}
	return nil
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
