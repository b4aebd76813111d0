package ports

import (
	"context"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/application/types"
)

// Service exposes catalog use cases to adapters.
type Service interface {
	CreateCategory(ctx context.Context, input types.CreateCategoryInput) (*CategoryProjection, error)
	UpdateCategory(ctx context.Context, input types.UpdateCategoryInput) (*CategoryProjection, error)
	DeleteCategory(ctx context.Context, id types.CategoryIdentifier) error
	GetCategory(ctx context.Context, id types.CategoryIdentifier) (*CategoryProjection, error)
	ListCategories(ctx context.Context) ([]*CategoryProjection, error)

	CreateProduct(ctx context.Context, input types.CreateProductInput) (*ProductProjection, error)
	UpdateProduct(ctx context.Context, input types.UpdateProductInput) (*ProductProjection, error)
	DeleteProduct(ctx context.Context, id types.ProductIdentifier) error
	GetProduct(ctx context.Context, id types.ProductIdentifier) (*ProductProjection, error)
	ListProducts(ctx context.Context, input types.ListProductsInput) ([]*ProductProjection, error)
	ProductsByCategory(ctx context.Context, id types.CategoryIdentifier) ([]*ProductProjection, error)
}
