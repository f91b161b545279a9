// Package reconcile diffs a submitted set of ticket types against the
// persisted set for an event and produces the insert/update/delete
// operations needed to make them match, without ever stranding sold
// inventory.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"boxoffice/internal/domain"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInventoryConflict = errors.New("inventory conflict")
)

// ValidationError names the desired entry and field that failed
// validation. Index is the position in the submitted set.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ticket %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError reports an operation that would strand sold inventory:
// shrinking a ticket type below its sold count, or deleting one that has
// sales. It carries enough identity for the caller to render a specific
// message.
type ConflictError struct {
	TicketTypeID uuid.UUID
	TicketName   string
	Sold         int
	Requested    int // requested quantity; -1 for a deletion
}

func (e ConflictError) Error() string {
	if e.Requested < 0 {
		return fmt.Sprintf("ticket type %q (%s) has %d sold, refusing to delete",
			e.TicketName, e.TicketTypeID, e.Sold)
	}
	return fmt.Sprintf("ticket type %q (%s) has %d sold, refusing to shrink to %d",
		e.TicketName, e.TicketTypeID, e.Sold, e.Requested)
}

func (e ConflictError) Is(target error) bool {
	return target == ErrInventoryConflict
}

// DesiredTicket is one row of the submitted ticket set. ID carries the
// previously issued identifier, or anything else (empty, malformed,
// unknown) to mean "new". Client-side drift is tolerated, not rejected.
type DesiredTicket struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Benefits    []string
}

type OpKind string

const (
	OpInsert OpKind = "insert"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Op is one applied reconciliation operation, returned for audit logging.
type Op struct {
	Kind   OpKind
	Ticket domain.TicketType
}

// Plan is the full set of operations for one reconciliation. It is
// all-or-nothing: a plan is only built if no entry conflicts.
type Plan struct {
	Ops []Op
}

// TotalQuantity sums the capacity of the resulting ticket set (inserts
// and updates), used to enforce an optional event-wide cap.
func (p *Plan) TotalQuantity() int {
	var total int
	for _, op := range p.Ops {
		if op.Kind == OpInsert || op.Kind == OpUpdate {
			total += op.Ticket.Quantity
		}
	}
	return total
}

// BuildPlan matches desired entries against persisted rows and returns
// the operations to apply.
//
// Desired entries whose ID parses to a known persisted row become
// updates; everything else becomes an insert with a fresh identifier and
// sold_quantity 0. Two desired entries naming the same persisted row fail
// validation. Persisted rows absent from the desired set become
// deletions. The first conflict aborts the whole plan:
//
//   - an update may not drop quantity below the row's sold count;
//   - a deletion may not target a row with sold count > 0.
func BuildPlan(eventID int64, persisted []domain.TicketType, desired []DesiredTicket) (*Plan, error) {
	const op = "reconcile.BuildPlan"

	if err := validate(desired); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing := make(map[uuid.UUID]domain.TicketType, len(persisted))
	for _, t := range persisted {
		existing[t.ID] = t
	}

	plan := &Plan{}
	matched := make(map[uuid.UUID]bool, len(desired))

	for i, d := range desired {
		id, err := uuid.Parse(d.ID)
		current, known := existing[id]

		if known && matched[id] {
			// Two desired entries naming the same persisted row would
			// otherwise race last-write-wins inside one submission.
			return nil, fmt.Errorf("%s: %w", op, ValidationError{
				Index:  i,
				Field:  "id",
				Reason: "is duplicated",
			})
		}

		if err != nil || id == uuid.Nil || !known {
			// TreatUnmatchedAsNew: a missing, malformed or unknown
			// identifier makes the entry a fresh ticket type.
			plan.Ops = append(plan.Ops, Op{
				Kind: OpInsert,
				Ticket: domain.TicketType{
					ID:          uuid.New(),
					EventID:     eventID,
					Name:        d.Name,
					Description: d.Description,
					Price:       d.Price,
					Quantity:    d.Quantity,
					Benefits:    d.Benefits,
				},
			})
			continue
		}

		if d.Quantity < current.SoldQuantity {
			return nil, fmt.Errorf("%s: %w", op, ConflictError{
				TicketTypeID: current.ID,
				TicketName:   current.Name,
				Sold:         current.SoldQuantity,
				Requested:    d.Quantity,
			})
		}

		updated := current
		updated.Name = d.Name
		updated.Description = d.Description
		updated.Price = d.Price
		updated.Quantity = d.Quantity
		updated.Benefits = d.Benefits

		matched[id] = true
		plan.Ops = append(plan.Ops, Op{Kind: OpUpdate, Ticket: updated})
	}

	for _, t := range persisted {
		if matched[t.ID] {
			continue
		}

		if t.SoldQuantity > 0 {
			return nil, fmt.Errorf("%s: %w", op, ConflictError{
				TicketTypeID: t.ID,
				TicketName:   t.Name,
				Sold:         t.SoldQuantity,
				Requested:    -1,
			})
		}

		plan.Ops = append(plan.Ops, Op{Kind: OpDelete, Ticket: t})
	}

	return plan, nil
}

func validate(desired []DesiredTicket) error {
	for i, d := range desired {
		if d.Name == "" {
			return ValidationError{Index: i, Field: "name", Reason: "is required"}
		}
		if d.Price.IsNegative() {
			return ValidationError{Index: i, Field: "price", Reason: "must be non-negative"}
		}
		if d.Quantity < 0 {
			return ValidationError{Index: i, Field: "quantity", Reason: "must be non-negative"}
		}
	}
	return nil
}
