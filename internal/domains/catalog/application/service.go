package application

import (
	"context"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
)

// Service orchestrates the catalog use cases and applies the consistency guards.
type Service struct {
	categories ports.CategoryRepository
	products   ports.ProductRepository
	tx         ports.Transactor
	cache      ports.ProductCache
}

// Option customises the catalog service.
type Option func(*Service)

// WithTransactor runs guarded deletes inside a unit of work.
func WithTransactor(tx ports.Transactor) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithProductCache enables read-through caching of single product lookups.
func WithProductCache(cache ports.ProductCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// NewService wires the catalog service with its repositories.
func NewService(categories ports.CategoryRepository, products ports.ProductRepository, opts ...Option) *Service {
	s := &Service{
		categories: categories,
		products:   products,
		tx:         inlineTransactor{},
		cache:      ports.NoopProductCache,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateCategory validates the name and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, input types.CreateCategoryInput) (*ports.CategoryProjection, error) {
	category, err := domain.NewCategory(0, input.Name, input.Description)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.ensureUniqueCategoryName(ctx, category.Name, 0); err != nil {
		return nil, err
	}
	return s.categories.Create(ctx, category)
}

// UpdateCategory replaces name and description of an existing category.
func (s *Service) UpdateCategory(ctx context.Context, input types.UpdateCategoryInput) (*ports.CategoryProjection, error) {
	if input.BodyID != 0 && input.BodyID != input.ID {
		return nil, ErrIDMismatch
	}
	existing, err := s.categories.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	category, err := domain.NewCategory(input.ID, input.Name, input.Description)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.ensureUniqueCategoryName(ctx, category.Name, category.ID); err != nil {
		return nil, err
	}
	return s.categories.Update(ctx, category, existing.Metadata.Version)
}

// DeleteCategory removes a category that no product references.
func (s *Service) DeleteCategory(ctx context.Context, id types.CategoryIdentifier) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureCategoryExists(ctx, id.ID); err != nil {
			return err
		}
		if err := s.ensureNoProductsUnderCategory(ctx, id.ID); err != nil {
			return err
		}
		return s.categories.Delete(ctx, id.ID)
	})
}

func (s *Service) GetCategory(ctx context.Context, id types.CategoryIdentifier) (*ports.CategoryProjection, error) {
	return s.categories.GetByID(ctx, id.ID)
}

func (s *Service) ListCategories(ctx context.Context) ([]*ports.CategoryProjection, error) {
	return s.categories.List(ctx)
}

// CreateProduct validates the product and its category before storing it.
func (s *Service) CreateProduct(ctx context.Context, input types.CreateProductInput) (*ports.ProductProjection, error) {
	product, err := buildProduct(0, input.ProductInput)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategoryExists(ctx, product.CategoryID); err != nil {
		return nil, err
	}
	return s.products.Create(ctx, product)
}

// UpdateProduct replaces every mutable field of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, input types.UpdateProductInput) (*ports.ProductProjection, error) {
	if input.BodyID != 0 && input.BodyID != input.ID {
		return nil, ErrIDMismatch
	}
	existing, err := s.products.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	product, err := buildProduct(input.ID, input.ProductInput)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategoryExists(ctx, product.CategoryID); err != nil {
		return nil, err
	}
	updated, err := s.products.Update(ctx, product, existing.Metadata.Version)
	s.cache.Invalidate(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProduct removes a product no order line references.
func (s *Service) DeleteProduct(ctx context.Context, id types.ProductIdentifier) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByID(ctx, id.ID); err != nil {
			return err
		}
		return s.products.Delete(ctx, id.ID)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id.ID)
	return nil
}

// GetProduct serves from cache when possible.
func (s *Service) GetProduct(ctx context.Context, id types.ProductIdentifier) (*ports.ProductProjection, error) {
	if cached, ok := s.cache.Get(ctx, id.ID); ok {
		return cached, nil
	}
	product, err := s.products.GetByID(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, product)
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, input types.ListProductsInput) ([]*ports.ProductProjection, error) {
	query := domain.ProductQuery{
		Search:       input.Search,
		CategoryID:   input.CategoryID,
		MinPrice:     input.MinPrice,
		MaxPrice:     input.MaxPrice,
		SortBy:       domain.ParseSortField(input.SortBy),
		LowStockOnly: input.LowStockOnly,
	}
	return s.products.List(ctx, query)
}

func (s *Service) ProductsByCategory(ctx context.Context, id types.CategoryIdentifier) ([]*ports.ProductProjection, error) {
	categoryID := id.ID
	return s.products.List(ctx, domain.ProductQuery{CategoryID: &categoryID})
}

func buildProduct(id int64, input types.ProductInput) (*domain.Product, error) {
	product, err := domain.NewProduct(
		id,
		input.Name,
		input.Description,
		input.Price,
		input.StockAmount,
		input.LowStockThreshold,
		input.CategoryID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

type inlineTransactor struct{}

func (inlineTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ ports.Service = (*Service)(nil)
