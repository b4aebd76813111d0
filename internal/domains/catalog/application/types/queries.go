package types

import "github.com/shopspring/decimal"

// CategoryIdentifier references a category by id.
type CategoryIdentifier struct {
	ID int64
}

// ProductIdentifier references a product by id.
type ProductIdentifier struct {
	ID int64
}

// ListProductsInput mirrors the product listing filters.
type ListProductsInput struct {
	Search       string
	CategoryID   *int64
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	SortBy       string
	LowStockOnly bool
}
