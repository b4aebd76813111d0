package types

import "github.com/shopspring/decimal"

// CategoryInput carries the fields of a category create or replace.
type CategoryInput struct {
	Name        string
	Description string
}

// CreateCategoryInput creates a new category.
type CreateCategoryInput struct {
	CategoryInput
}

// UpdateCategoryInput replaces an existing category. BodyID is the id carried by the
// payload, if any; it must match ID.
type UpdateCategoryInput struct {
	ID     int64
	BodyID int64
	CategoryInput
}

// ProductInput carries the fields of a product create or replace.
type ProductInput struct {
	Name              string
	Description       string
	Price             decimal.Decimal
	StockAmount       int
	LowStockThreshold int
	CategoryID        int64
}

// CreateProductInput creates a new product.
type CreateProductInput struct {
	ProductInput
}

// UpdateProductInput replaces an existing product.
type UpdateProductInput struct {
	ID     int64
	BodyID int64
	ProductInput
}
