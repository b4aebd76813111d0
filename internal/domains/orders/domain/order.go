package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	MaxUserNameLength  = 100
	MaxUserEmailLength = 150
)

var (
	ErrEmptyOrder         = errors.New("order must contain at least one line")
	ErrEmptyUserName      = errors.New("user name is required")
	ErrUserNameTooLong    = errors.New("user name must be at most 100 characters")
	ErrInvalidUserEmail   = errors.New("user email must be a valid email address")
	ErrUserEmailTooLong   = errors.New("user email must be at most 150 characters")
	ErrInvalidProductID   = errors.New("product id must be greater than zero")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrNegativeOrderTotal = errors.New("order total must not be negative")
	ErrQuantityTooLarge   = errors.New("combined quantity for a product is too large")
	ErrOrderTotalTooLarge = errors.New("order total exceeds 9999999999.99")
)

// MaxOrderTotal is the largest total the orders table can hold.
var MaxOrderTotal = decimal.RequireFromString("9999999999.99")

var validate = validator.New()

// Line is one product and quantity within an order. ProductName is resolved from the
// catalog on read. UnitPrice is only set on a freshly placed order, where it is the locked
// price the total was computed from; lines do not persist a price, so stored orders leave
// it null rather than report the product's current price.
type Line struct {
	ProductID   int64
	Quantity    int
	ProductName string
	UnitPrice   decimal.NullDecimal
}

// Customer identifies who placed the order.
type Customer struct {
	Name  string
	Email string
}

// NewCustomer trims and validates the customer fields.
func NewCustomer(name, email string) (Customer, error) {
	c := Customer{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if c.Name == "" {
		return Customer{}, ErrEmptyUserName
	}
	if utf8.RuneCountInString(c.Name) > MaxUserNameLength {
		return Customer{}, ErrUserNameTooLong
	}
	if utf8.RuneCountInString(c.Email) > MaxUserEmailLength {
		return Customer{}, ErrUserEmailTooLong
	}
	if err := validate.Var(c.Email, "required,email"); err != nil {
		return Customer{}, ErrInvalidUserEmail
	}
	return c, nil
}

// Order is a placed customer order. It is immutable once persisted.
type Order struct {
	ID         int64
	OrderDate  time.Time
	TotalPrice decimal.Decimal
	UserName   string
	UserEmail  string
	Lines      []Line
}

// NewOrder stamps a new order for customer at placedAt with the given merged lines.
func NewOrder(customer Customer, placedAt time.Time, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	return &Order{
		OrderDate:  placedAt,
		TotalPrice: decimal.Zero,
		UserName:   customer.Name,
		UserEmail:  customer.Email,
		Lines:      append([]Line(nil), lines...),
	}, nil
}

// SetTotal records the derived order total.
func (o *Order) SetTotal(total decimal.Decimal) error {
	if total.IsNegative() {
		return ErrNegativeOrderTotal
	}
	if total.GreaterThan(MaxOrderTotal) {
		return ErrOrderTotalTooLarge
	}
	o.TotalPrice = total
	return nil
}

// ProductIDs lists the distinct products of the order in line order.
func (o *Order) ProductIDs() []int64 {
	return DistinctProductIDs(o.Lines)
}

// MergeLines validates every line and combines lines naming the same product by summing
// their quantities. The first appearance of a product fixes its position. A sum that would
// not fit in an int is rejected rather than wrapped.
func MergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	merged := make([]Line, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, line := range lines {
		if line.ProductID <= 0 {
			return nil, ErrInvalidProductID
		}
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[line.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt-line.Quantity {
				return nil, ErrQuantityTooLarge
			}
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return merged, nil
}

// DistinctProductIDs returns each product id once, in first-appearance order.
func DistinctProductIDs(lines []Line) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// UnknownProductError reports an order line naming a product that does not exist.
type UnknownProductError struct {
	ProductID int64
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("Product with ID %d not found.", e.ProductID)
}

// InsufficientStockError reports a merged line asking for more units than are available.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s: only %d left", e.ProductName, e.Available)
}
