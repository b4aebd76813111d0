package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SortField selects the ordering of product listings.
type SortField string

const (
	SortNone     SortField = ""
	SortPrice    SortField = "price"
	SortQuantity SortField = "quantity"
	SortName     SortField = "name"
)

// ParseSortField maps a user supplied value to a SortField. Unknown values keep storage order.
func ParseSortField(raw string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(raw))) {
	case SortPrice:
		return SortPrice
	case SortQuantity:
		return SortQuantity
	case SortName:
		return SortName
	default:
		return SortNone
	}
}

// ProductQuery filters and orders product listings. Zero values disable a filter.
type ProductQuery struct {
	Search       string
	CategoryID   *int64
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	SortBy       SortField
	LowStockOnly bool
}

// Matches applies the query filters to a single product.
func (q ProductQuery) Matches(p *Product) bool {
	if p == nil {
		return false
	}
	if s := strings.TrimSpace(q.Search); s != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(s)) {
		return false
	}
	if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
		return false
	}
	if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	if q.LowStockOnly && !p.IsLowStock() {
		return false
	}
	return true
}

// Less orders two products according to SortBy, falling back to id.
func (q ProductQuery) Less(a, b *Product) bool {
	switch q.SortBy {
	case SortPrice:
		if !a.Price.Equal(b.Price) {
			return a.Price.LessThan(b.Price)
		}
	case SortQuantity:
		if a.StockAmount != b.StockAmount {
			return a.StockAmount < b.StockAmount
		}
	case SortName:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	}
	return a.ID < b.ID
}
