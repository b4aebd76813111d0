package mapper

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
)

// OrderDateLayout is the accepted format of the orderDate filter.
const OrderDateLayout = "2006-01-02"

var ErrInvalidOrderDate = errors.New("orderDate must use the YYYY-MM-DD format")

// PlaceOrderPayload is the inbound order body. Any orderDate or totalPrice the caller sends
// is not bound and therefore ignored.
type PlaceOrderPayload struct {
	UserName  string             `json:"userName" binding:"required"`
	UserEmail string             `json:"userEmail" binding:"required"`
	Lines     []OrderLinePayload `json:"lines"`
}

type OrderLinePayload struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Order is the HTTP representation of an order with its lines.
type Order struct {
	ID         int64       `json:"id"`
	OrderDate  time.Time   `json:"orderDate"`
	TotalPrice json.Number `json:"totalPrice"`
	UserName   string      `json:"userName"`
	UserEmail  string      `json:"userEmail"`
	Lines      []OrderLine `json:"lines"`
}

// OrderLine carries unitPrice only in the placement response.
type OrderLine struct {
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName,omitempty"`
	UnitPrice   json.Number `json:"unitPrice,omitempty"`
	Quantity    int         `json:"quantity"`
}

// OrderQuery captures the listing filters from the query string.
type OrderQuery struct {
	Search    string `form:"search"`
	Email     string `form:"email"`
	OrderDate string `form:"orderDate"`
}

// DeletedMessage is the body returned after an order is deleted.
type DeletedMessage struct {
	Message string `json:"message"`
}

// IdempotencyKeyHeader lets clients retry order placement without placing twice.
const IdempotencyKeyHeader = "Idempotency-Key"

func ToPlaceOrderInput(payload PlaceOrderPayload) types.PlaceOrderInput {
	lines := make([]types.LineInput, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		lines = append(lines, types.LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return types.PlaceOrderInput{UserName: payload.UserName, UserEmail: payload.UserEmail, Lines: lines}
}

// ToListOrdersInput parses the optional orderDate filter as a UTC calendar day.
func ToListOrdersInput(query OrderQuery) (types.ListOrdersInput, error) {
	input := types.ListOrdersInput{Search: query.Search, Email: query.Email}
	raw := strings.TrimSpace(query.OrderDate)
	if raw == "" {
		return input, nil
	}
	day, err := time.ParseInLocation(OrderDateLayout, raw, time.UTC)
	if err != nil {
		return types.ListOrdersInput{}, ErrInvalidOrderDate
	}
	input.OrderDate = &day
	return input, nil
}

func FromOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	lines := make([]OrderLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		out := OrderLine{ProductID: line.ProductID, ProductName: line.ProductName, Quantity: line.Quantity}
		if line.UnitPrice.Valid {
			out.UnitPrice = json.Number(line.UnitPrice.Decimal.StringFixed(2))
		}
		lines = append(lines, out)
	}
	return Order{
		ID:         order.ID,
		OrderDate:  order.OrderDate,
		TotalPrice: json.Number(order.TotalPrice.StringFixed(2)),
		UserName:   order.UserName,
		UserEmail:  order.UserEmail,
		Lines:      lines,
	}
}

func FromOrderList(orders []*domain.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		if order == nil {
			continue
		}
		result = append(result, FromOrder(order))
	}
	return result
}
