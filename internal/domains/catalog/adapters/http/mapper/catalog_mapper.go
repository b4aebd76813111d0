package mapper

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
)

// CategoryPayload is the inbound body for category create and replace.
type CategoryPayload struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Category is the HTTP representation of a category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductPayload is the inbound body for product create and replace. Price accepts a JSON
// number or a decimal string.
type ProductPayload struct {
	ID                int64           `json:"id,omitempty"`
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description" binding:"required"`
	Price             decimal.Decimal `json:"price"`
	StockAmount       int             `json:"stockAmount"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	CategoryID        int64           `json:"categoryId" binding:"required"`
}

// Product is the HTTP representation of a product. It references its category by id only.
type Product struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Price             json.Number `json:"price"`
	StockAmount       int         `json:"stockAmount"`
	LowStockThreshold int         `json:"lowStockThreshold"`
	IsLowStock        bool        `json:"isLowStock"`
	CategoryID        int64       `json:"categoryId"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// ProductQuery captures the listing filters from the query string.
type ProductQuery struct {
	Search       string `form:"search"`
	CategoryID   *int64 `form:"categoryId"`
	MinPrice     string `form:"minPrice"`
	MaxPrice     string `form:"maxPrice"`
	SortBy       string `form:"sortBy"`
	LowStockOnly bool   `form:"lowStockOnly"`
}

func ToCreateCategoryInput(payload CategoryPayload) types.CreateCategoryInput {
	return types.CreateCategoryInput{CategoryInput: toCategoryInput(payload)}
}

// ToUpdateCategoryInput binds the path id; the body id is kept for the mismatch check.
func ToUpdateCategoryInput(id int64, payload CategoryPayload) types.UpdateCategoryInput {
	return types.UpdateCategoryInput{ID: id, BodyID: payload.ID, CategoryInput: toCategoryInput(payload)}
}

func toCategoryInput(payload CategoryPayload) types.CategoryInput {
	return types.CategoryInput{Name: payload.Name, Description: payload.Description}
}

func ToCreateProductInput(payload ProductPayload) types.CreateProductInput {
	return types.CreateProductInput{ProductInput: toProductInput(payload)}
}

func ToUpdateProductInput(id int64, payload ProductPayload) types.UpdateProductInput {
	return types.UpdateProductInput{ID: id, BodyID: payload.ID, ProductInput: toProductInput(payload)}
}

func toProductInput(payload ProductPayload) types.ProductInput {
	return types.ProductInput{
		Name:              payload.Name,
		Description:       payload.Description,
		Price:             payload.Price,
		StockAmount:       payload.StockAmount,
		LowStockThreshold: payload.LowStockThreshold,
		CategoryID:        payload.CategoryID,
	}
}

// ToListProductsInput parses the price bounds of a listing query.
func ToListProductsInput(query ProductQuery) (types.ListProductsInput, error) {
	minPrice, err := parseOptionalDecimal("minPrice", query.MinPrice)
	if err != nil {
		return types.ListProductsInput{}, err
	}
	maxPrice, err := parseOptionalDecimal("maxPrice", query.MaxPrice)
	if err != nil {
		return types.ListProductsInput{}, err
	}
	return types.ListProductsInput{
		Search:       query.Search,
		CategoryID:   query.CategoryID,
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		SortBy:       query.SortBy,
		LowStockOnly: query.LowStockOnly,
	}, nil
}

func parseOptionalDecimal(field, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a decimal number", field)
	}
	return &value, nil
}

func FromCategoryProjection(p *ports.CategoryProjection) Category {
	if p == nil || p.Entity == nil {
		return Category{}
	}
	return Category{ID: p.Entity.ID, Name: p.Entity.Name, Description: p.Entity.Description}
}

func FromCategoryProjectionList(list []*ports.CategoryProjection) []Category {
	result := make([]Category, 0, len(list))
	for _, p := range list {
		if p == nil {
			continue
		}
		result = append(result, FromCategoryProjection(p))
	}
	return result
}

func FromProductProjection(p *ports.ProductProjection) Product {
	if p == nil || p.Entity == nil {
		return Product{}
	}
	return Product{
		ID:                p.Entity.ID,
		Name:              p.Entity.Name,
		Description:       p.Entity.Description,
		Price:             FormatMoney(p.Entity.Price),
		StockAmount:       p.Entity.StockAmount,
		LowStockThreshold: p.Entity.LowStockThreshold,
		IsLowStock:        p.Entity.IsLowStock(),
		CategoryID:        p.Entity.CategoryID,
		CreatedAt:         p.Metadata.CreatedAt,
		UpdatedAt:         p.Metadata.UpdatedAt,
	}
}

func FromProductProjectionList(list []*ports.ProductProjection) []Product {
	result := make([]Product, 0, len(list))
	for _, p := range list {
		if p == nil {
			continue
		}
		result = append(result, FromProductProjection(p))
	}
	return result
}

// FormatMoney renders an amount as a JSON number with two decimals.
func FormatMoney(amount decimal.Decimal) json.Number {
	return json.Number(amount.StringFixed(2))
}
