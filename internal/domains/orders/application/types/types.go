package types

import "time"

// LineInput is one requested product and quantity.
type LineInput struct {
	ProductID int64
	Quantity  int
}

// PlaceOrderInput carries a proposed order. Any date the caller sent is ignored.
type PlaceOrderInput struct {
	UserName  string
	UserEmail string
	Lines     []LineInput
	// IdempotencyKey is optional. Retries with the same key and content replay the order.
	IdempotencyKey string
}

// OrderIdentifier references an order by id.
type OrderIdentifier struct {
	ID int64
}

// ListOrdersInput mirrors the order listing filters.
type ListOrdersInput struct {
	Search    string
	Email     string
	OrderDate *time.Time
}
