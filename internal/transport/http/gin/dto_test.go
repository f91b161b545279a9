package httpgin

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSaveEvent() SaveEventRequest {
	return SaveEventRequest{
		Name:         "GopherCon",
		StartsAt:     "2026-09-01T18:00:00Z",
		CurrencyCode: "USD",
		TicketTypes: []TicketTypeInput{
			{Name: "General", Price: decimal.NewFromInt(100), Quantity: 50},
		},
	}
}

func TestSaveEventRequest_Validate(t *testing.T) {
	require.NoError(t, validSaveEvent().Validate())

	t.Run("bad currency code length", func(t *testing.T) {
		req := validSaveEvent()
		req.CurrencyCode = "USDT"
		assert.Error(t, req.Validate())
	})

	t.Run("ticket without name", func(t *testing.T) {
		req := validSaveEvent()
		req.TicketTypes[0].Name = ""
		assert.Error(t, req.Validate())
	})

	t.Run("negative ticket price", func(t *testing.T) {
		req := validSaveEvent()
		req.TicketTypes[0].Price = decimal.NewFromInt(-1)
		assert.Error(t, req.Validate())
	})

	t.Run("negative ticket quantity", func(t *testing.T) {
		req := validSaveEvent()
		req.TicketTypes[0].Quantity = -1
		assert.Error(t, req.Validate())
	})

	t.Run("empty ticket set is fine", func(t *testing.T) {
		req := validSaveEvent()
		req.TicketTypes = nil
		assert.NoError(t, req.Validate())
	})
}

func TestDiscountCodeRequest_Validate(t *testing.T) {
	req := DiscountCodeRequest{
		Code:      "SAVE10",
		Kind:      "percent",
		Value:     decimal.NewFromInt(10),
		ValidFrom: "2026-01-01T00:00:00Z",
	}
	require.NoError(t, req.Validate())

	req.Value = decimal.NewFromInt(-5)
	assert.Error(t, req.Validate())
}

func TestParseRFC3339(t *testing.T) {
	_, err := parseRFC3339("2026-09-01T18:00:00Z")
	assert.NoError(t, err)

	_, err = parseRFC3339("next tuesday")
	assert.Error(t, err)
}
