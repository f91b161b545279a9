package reconcile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/domain"
)

const eventID = int64(42)

func persistedTicket(name string, quantity, sold int) domain.TicketType {
	return domain.TicketType{
		ID:           uuid.New(),
		EventID:      eventID,
		Name:         name,
		Price:        decimal.NewFromInt(50),
		Quantity:     quantity,
		SoldQuantity: sold,
	}
}

func desiredFrom(t domain.TicketType) DesiredTicket {
	return DesiredTicket{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Quantity:    t.Quantity,
		Benefits:    t.Benefits,
	}
}

func opKinds(plan *Plan) map[OpKind]int {
	kinds := map[OpKind]int{}
	for _, op := range plan.Ops {
		kinds[op.Kind]++
	}
	return kinds
}

func TestBuildPlan_ShrinkAboveSoldAndDeleteUnsold(t *testing.T) {
	a := persistedTicket("A", 10, 3)
	b := persistedTicket("B", 10, 0)

	// A shrinks to 5 (3 sold, allowed); B disappears (0 sold, allowed).
	dA := desiredFrom(a)
	dA.Quantity = 5

	plan, err := BuildPlan(eventID, []domain.TicketType{a, b}, []DesiredTicket{dA})
	require.NoError(t, err)

	kinds := opKinds(plan)
	assert.Equal(t, 1, kinds[OpUpdate])
	assert.Equal(t, 1, kinds[OpDelete])
	assert.Equal(t, 0, kinds[OpInsert])

	for _, op := range plan.Ops {
		switch op.Kind {
		case OpUpdate:
			assert.Equal(t, a.ID, op.Ticket.ID)
			assert.Equal(t, 5, op.Ticket.Quantity)
			assert.Equal(t, 3, op.Ticket.SoldQuantity, "sold count survives the update")
		case OpDelete:
			assert.Equal(t, b.ID, op.Ticket.ID)
		}
	}
}

func TestBuildPlan_ShrinkBelowSoldConflicts(t *testing.T) {
	a := persistedTicket("VIP", 10, 7)

	d := desiredFrom(a)
	d.Quantity = 5

	_, err := BuildPlan(eventID, []domain.TicketType{a}, []DesiredTicket{d})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInventoryConflict)

	var conflict ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, a.ID, conflict.TicketTypeID)
	assert.Equal(t, "VIP", conflict.TicketName)
	assert.Equal(t, 7, conflict.Sold)
	assert.Equal(t, 5, conflict.Requested)
}

func TestBuildPlan_DeleteWithSalesConflicts(t *testing.T) {
	a := persistedTicket("A", 10, 1)

	_, err := BuildPlan(eventID, []domain.TicketType{a}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInventoryConflict)

	var conflict ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, a.ID, conflict.TicketTypeID)
	assert.Equal(t, -1, conflict.Requested, "deletions carry no requested quantity")
}

func TestBuildPlan_ConflictAbortsWholePlan(t *testing.T) {
	a := persistedTicket("A", 10, 0)
	b := persistedTicket("B", 10, 5)

	// A's update is fine, but B's shrink conflicts; nothing is returned.
	dA := desiredFrom(a)
	dB := desiredFrom(b)
	dB.Quantity = 2

	plan, err := BuildPlan(eventID, []domain.TicketType{a, b}, []DesiredTicket{dA, dB})
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, ErrInventoryConflict)
}

func TestBuildPlan_TreatsUnmatchedAsNew(t *testing.T) {
	a := persistedTicket("A", 10, 0)

	cases := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"malformed", "not-a-uuid"},
		{"nil uuid", uuid.Nil.String()},
		{"unknown", uuid.New().String()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DesiredTicket{
				ID:       tc.id,
				Name:     "Fresh",
				Price:    decimal.NewFromInt(25),
				Quantity: 20,
			}

			plan, err := BuildPlan(eventID, []domain.TicketType{a}, []DesiredTicket{desiredFrom(a), d})
			require.NoError(t, err)

			kinds := opKinds(plan)
			require.Equal(t, 1, kinds[OpInsert])

			for _, op := range plan.Ops {
				if op.Kind != OpInsert {
					continue
				}
				assert.NotEqual(t, uuid.Nil, op.Ticket.ID, "inserts get a fresh identifier")
				assert.NotEqual(t, a.ID, op.Ticket.ID)
				assert.Equal(t, eventID, op.Ticket.EventID)
				assert.Equal(t, 0, op.Ticket.SoldQuantity)
			}
		})
	}
}

func TestBuildPlan_DuplicateIDFailsValidation(t *testing.T) {
	a := persistedTicket("A", 10, 0)

	first := desiredFrom(a)
	second := desiredFrom(a)
	second.Quantity = 3

	plan, err := BuildPlan(eventID, []domain.TicketType{a}, []DesiredTicket{first, second})
	assert.Nil(t, plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 1, vErr.Index, "the second occurrence is the offending entry")
	assert.Equal(t, "id", vErr.Field)
}

func TestBuildPlan_Idempotent(t *testing.T) {
	a := persistedTicket("A", 10, 2)
	b := persistedTicket("B", 5, 0)
	persisted := []domain.TicketType{a, b}

	// Submitting the persisted state back yields only no-op updates.
	plan, err := BuildPlan(eventID, persisted, []DesiredTicket{desiredFrom(a), desiredFrom(b)})
	require.NoError(t, err)

	kinds := opKinds(plan)
	assert.Equal(t, 2, kinds[OpUpdate])
	assert.Equal(t, 0, kinds[OpInsert])
	assert.Equal(t, 0, kinds[OpDelete])
}

func TestBuildPlan_EmptyBothSides(t *testing.T) {
	plan, err := BuildPlan(eventID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Ops)
}

func TestBuildPlan_Validation(t *testing.T) {
	cases := []struct {
		name    string
		desired DesiredTicket
		field   string
	}{
		{"missing name", DesiredTicket{Price: decimal.NewFromInt(1), Quantity: 1}, "name"},
		{"negative price", DesiredTicket{Name: "A", Price: decimal.NewFromInt(-1), Quantity: 1}, "price"},
		{"negative quantity", DesiredTicket{Name: "A", Price: decimal.NewFromInt(1), Quantity: -1}, "quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildPlan(eventID, nil, []DesiredTicket{tc.desired})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, 0, vErr.Index)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestPlan_TotalQuantity(t *testing.T) {
	a := persistedTicket("A", 10, 0)
	b := persistedTicket("B", 7, 0)

	dA := desiredFrom(a)
	dNew := DesiredTicket{Name: "C", Price: decimal.NewFromInt(1), Quantity: 3}

	// B is deleted; deletions do not count toward the total.
	plan, err := BuildPlan(eventID, []domain.TicketType{a, b}, []DesiredTicket{dA, dNew})
	require.NoError(t, err)
	assert.Equal(t, 13, plan.TotalQuantity())
}
