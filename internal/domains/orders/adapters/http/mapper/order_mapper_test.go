package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
)

func TestToListOrdersInput_ParsesDay(t *testing.T) {
	input, err := ToListOrdersInput(OrderQuery{Search: "ann", OrderDate: "2030-02-03"})
	require.NoError(t, err)
	require.Equal(t, "ann", input.Search)
	require.NotNil(t, input.OrderDate)
	require.Equal(t, time.Date(2030, 2, 3, 0, 0, 0, 0, time.UTC), *input.OrderDate)

	_, err = ToListOrdersInput(OrderQuery{OrderDate: "03/02/2030"})
	require.ErrorIs(t, err, ErrInvalidOrderDate)
}

func TestFromOrder_RendersMoneyWithTwoDecimals(t *testing.T) {
	order := &domain.Order{
		ID:         4,
		TotalPrice: decimal.RequireFromString("10"),
		UserName:   "ann",
		UserEmail:  "ann@example.com",
		Lines: []domain.Line{
			{ProductID: 1, Quantity: 5, ProductName: "Widget", UnitPrice: decimal.NewNullDecimal(decimal.RequireFromString("2"))},
		},
	}
	body, err := json.Marshal(FromOrder(order))
	require.NoError(t, err)
	require.Contains(t, string(body), `"totalPrice":10.00`)
	require.Contains(t, string(body), `"unitPrice":2.00`)
	require.Contains(t, string(body), `"productName":"Widget"`)
}

func TestFromOrder_OmitsUnitPriceOnStoredLines(t *testing.T) {
	order := &domain.Order{
		ID:         4,
		TotalPrice: decimal.RequireFromString("10"),
		Lines:      []domain.Line{{ProductID: 1, Quantity: 5, ProductName: "Widget"}},
	}
	body, err := json.Marshal(FromOrder(order))
	require.NoError(t, err)
	require.NotContains(t, string(body), "unitPrice")
	require.Contains(t, string(body), `"productName":"Widget"`)
}

func TestToPlaceOrderInput_KeepsLineOrder(t *testing.T) {
	input := ToPlaceOrderInput(PlaceOrderPayload{
		UserName:  "ann",
		UserEmail: "ann@example.com",
		Lines:     []OrderLinePayload{{ProductID: 2, Quantity: 1}, {ProductID: 1, Quantity: 3}},
	})
	require.Len(t, input.Lines, 2)
	require.Equal(t, int64(2), input.Lines[0].ProductID)
	require.Equal(t, 3, input.Lines[1].Quantity)
}
