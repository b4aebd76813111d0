package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrProductNotFound signals a stock movement against a product that vanished.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock signals a conditional deduction found too few units.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository persists orders and their lines.
type Repository interface {
	// Create inserts the order header and returns it with its assigned id.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	AddLines(ctx context.Context, orderID int64, lines []domain.Line) error
	SetTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
	// GetByID returns the order with its lines and their product details.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, query domain.OrderQuery) ([]*domain.Order, error)
	// Delete removes the lines, then the header.
	Delete(ctx context.Context, id int64) error
	ReferencesProduct(ctx context.Context, productID int64) (bool, error)
}

// StockItem is the stock view of a product held under lock for the current unit of work.
type StockItem struct {
	ProductID         int64
	Name              string
	Price             decimal.Decimal
	StockAmount       int
	LowStockThreshold int
}

// StockLedger reads and moves product stock for order placement.
type StockLedger interface {
	// Lock loads the products and holds them until the unit of work ends. Unknown ids are
	// absent from the result.
	Lock(ctx context.Context, productIDs []int64) (map[int64]StockItem, error)
	Deduct(ctx context.Context, productID int64, quantity int, at time.Time) error
}

// Transactor runs fn as a single unit of work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier publishes order events. Delivery is best effort.
type Notifier interface {
	OrderPlaced(ctx context.Context, event domain.OrderPlaced) error
}

// CacheInvalidator drops cached product reads after stock moved.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...int64)
}
