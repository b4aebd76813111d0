package ports

import (
	"context"
	"errors"
	"time"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	"github.com/hcustod/inventory-management-system/internal/shared/projection"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrDuplicateCategoryName = errors.New("category already exists")
	ErrCategoryHasProducts   = errors.New("cannot delete category with existing products")
	ErrProductReferenced     = errors.New("cannot delete product referenced by existing orders")
	// ErrConcurrentModification signals the row changed or vanished between read and write.
	ErrConcurrentModification = errors.New("record was modified or deleted concurrently")
	// ErrInsufficientStock signals a conditional stock deduction matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type (
	CategoryProjection = projection.Projection[*domain.Category]
	ProductProjection  = projection.Projection[*domain.Product]
)

// CategoryRepository persists categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*CategoryProjection, error)
	// Update writes the category if its stored version still equals expectedVersion.
	Update(ctx context.Context, category *domain.Category, expectedVersion int64) (*CategoryProjection, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*CategoryProjection, error)
	List(ctx context.Context) ([]*CategoryProjection, error)
	// FindByName matches names ignoring case.
	FindByName(ctx context.Context, name string) (*CategoryProjection, error)
}

// ProductRepository persists products and their stock levels.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*ProductProjection, error)
	Update(ctx context.Context, product *domain.Product, expectedVersion int64) (*ProductProjection, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*ProductProjection, error)
	List(ctx context.Context, query domain.ProductQuery) ([]*ProductProjection, error)
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	// LockForUpdate loads the products with a row lock held until the surrounding transaction ends.
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]*ProductProjection, error)
	// DeductStock subtracts quantity only when enough stock remains, refreshing updatedAt.
	DeductStock(ctx context.Context, id int64, quantity int, at time.Time) error
}

// Transactor runs fn as a single unit of work. Repositories called with the ctx handed
// to fn take part in it; any returned error rolls the whole unit back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
