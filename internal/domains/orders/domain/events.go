package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlaced is emitted once an order and its stock deductions have committed.
type OrderPlaced struct {
	OrderID    int64
	OrderDate  time.Time
	UserName   string
	UserEmail  string
	TotalPrice decimal.Decimal
	Lines      []Line
	// LowStockProductIDs lists products that fell below their threshold with this order.
	LowStockProductIDs []int64
}

// NewOrderPlaced builds the event for a committed order.
func NewOrderPlaced(order *Order, lowStock []int64) OrderPlaced {
	return OrderPlaced{
		OrderID:            order.ID,
		OrderDate:          order.OrderDate,
		UserName:           order.UserName,
		UserEmail:          order.UserEmail,
		TotalPrice:         order.TotalPrice,
		Lines:              append([]Line(nil), order.Lines...),
		LowStockProductIDs: append([]int64(nil), lowStock...),
	}
}
