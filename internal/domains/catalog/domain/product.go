package domain

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const MaxProductNameLength = 150

// MaxPrice is the largest price the products table can hold exactly.
var MaxPrice = decimal.RequireFromString("99999999.99")

var (
	ErrEmptyProductName     = errors.New("product name is required")
	ErrProductNameTooLong   = errors.New("product name must be at most 150 characters")
	ErrEmptyDescription     = errors.New("product description is required")
	ErrNegativePrice        = errors.New("price must not be negative")
	ErrPriceScale           = errors.New("price must have at most 2 decimal places")
	ErrPriceTooLarge        = errors.New("price must be at most 99999999.99")
	ErrNegativeStock        = errors.New("stock amount must not be negative")
	ErrNegativeThreshold    = errors.New("low stock threshold must not be negative")
	ErrInvalidCategoryID    = errors.New("category id must be greater than zero")
	ErrInvalidStockMovement = errors.New("stock deduction must be greater than zero")
)

// Product is a sellable item with its stock level.
type Product struct {
	ID                int64
	Name              string
	Description       string
	Price             decimal.Decimal
	StockAmount       int
	LowStockThreshold int
	CategoryID        int64
}

// NewProduct validates and constructs a Product.
func NewProduct(id int64, name, description string, price decimal.Decimal, stock, threshold int, categoryID int64) (*Product, error) {
	p := &Product{
		ID:                id,
		Name:              strings.TrimSpace(name),
		Description:       strings.TrimSpace(description),
		Price:             price,
		StockAmount:       stock,
		LowStockThreshold: threshold,
		CategoryID:        categoryID,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return ErrEmptyProductName
	}
	if utf8.RuneCountInString(name) > MaxProductNameLength {
		return ErrProductNameTooLong
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if err := EnsureNonNegative(p.Price, p.StockAmount); err != nil {
		return err
	}
	if err := ValidatePrice(p.Price); err != nil {
		return err
	}
	if p.LowStockThreshold < 0 {
		return ErrNegativeThreshold
	}
	if p.CategoryID <= 0 {
		return ErrInvalidCategoryID
	}
	return nil
}

// EnsureNonNegative rejects negative prices and stock levels.
func EnsureNonNegative(price decimal.Decimal, stock int) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	if stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// ValidatePrice accepts whole cents up to MaxPrice.
func ValidatePrice(price decimal.Decimal) error {
	if !price.Equal(price.Truncate(2)) {
		return ErrPriceScale
	}
	if price.GreaterThan(MaxPrice) {
		return ErrPriceTooLarge
	}
	return nil
}

// IsLowStock reports whether stock sits strictly below the product's threshold.
func (p *Product) IsLowStock() bool {
	return p.StockAmount < p.LowStockThreshold
}

// Deduct removes quantity units from stock. It never lets stock go negative.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStockMovement
	}
	if quantity > p.StockAmount {
		return ErrNegativeStock
	}
	p.StockAmount -= quantity
	return nil
}
