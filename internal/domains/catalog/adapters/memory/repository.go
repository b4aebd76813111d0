package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	"github.com/hcustod/inventory-management-system/internal/platform/memtx"
	"github.com/hcustod/inventory-management-system/internal/shared/projection"
)

var (
	_ ports.CategoryRepository = (*CategoryRepository)(nil)
	_ ports.ProductRepository  = (*ProductRepository)(nil)
)

// ReferenceCheck reports whether anything outside the catalog still points at a product.
type ReferenceCheck func(ctx context.Context, productID int64) (bool, error)

// Store holds categories and products together so the referential rules a relational
// store would enforce (category RESTRICT, product RESTRICT) can be checked atomically.
type Store struct {
	mu             sync.RWMutex
	categories     map[int64]*ports.CategoryProjection
	products       map[int64]*ports.ProductProjection
	nextCategoryID int64
	nextProductID  int64
	now            func() time.Time
	referenced     ReferenceCheck
}

func NewStore() *Store {
	return &Store{
		categories: map[int64]*ports.CategoryProjection{},
		products:   map[int64]*ports.ProductProjection{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source, mainly for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// GuardProductDeletes installs the check consulted before a product is removed.
func (s *Store) GuardProductDeletes(check ReferenceCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referenced = check
}

func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{store: s} }
func (s *Store) Products() *ProductRepository    { return &ProductRepository{store: s} }

// CategoryRepository is the in-memory category adapter.
type CategoryRepository struct {
	store *Store
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*ports.CategoryProjection, error) {
	if category == nil {
		return nil, errors.New("category is nil")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTakenLocked(category.Name, 0) {
		return nil, ports.ErrDuplicateCategoryName
	}
	s.nextCategoryID++
	clone := *category
	clone.ID = s.nextCategoryID
	now := s.now()
	stored := projection.New(&clone, projection.Metadata{CreatedAt: now, UpdatedAt: now, Version: 1})
	s.categories[clone.ID] = stored
	id := clone.ID
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.categories, id)
	})
	return cloneCategory(stored), nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category, expectedVersion int64) (*ports.CategoryProjection, error) {
	if category == nil {
		return nil, errors.New("category is nil")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[category.ID]
	if !ok || existing.Metadata.Version != expectedVersion {
		return nil, ports.ErrConcurrentModification
	}
	if s.nameTakenLocked(category.Name, category.ID) {
		return nil, ports.ErrDuplicateCategoryName
	}
	previous := cloneCategory(existing)
	clone := *category
	updated := projection.New(&clone, projection.Metadata{
		CreatedAt: existing.Metadata.CreatedAt,
		UpdatedAt: s.now(),
		Version:   existing.Metadata.Version + 1,
	})
	s.categories[clone.ID] = updated
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.categories[previous.Entity.ID] = previous
	})
	return cloneCategory(updated), nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[id]
	if !ok {
		return ports.ErrCategoryNotFound
	}
	for _, p := range s.products {
		if p.Entity.CategoryID == id {
			return ports.ErrCategoryHasProducts
		}
	}
	delete(s.categories, id)
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.categories[id] = existing
	})
	return nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id int64) (*ports.CategoryProjection, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[id]
	if !ok {
		return nil, ports.ErrCategoryNotFound
	}
	return cloneCategory(category), nil
}

func (r *CategoryRepository) List(_ context.Context) ([]*ports.CategoryProjection, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*ports.CategoryProjection, 0, len(s.categories))
	for _, category := range s.categories {
		list = append(list, cloneCategory(category))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Entity.ID < list[j].Entity.ID })
	return list, nil
}

func (r *CategoryRepository) FindByName(_ context.Context, name string) (*ports.CategoryProjection, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, category := range s.categories {
		if domain.SameName(category.Entity.Name, name) {
			return cloneCategory(category), nil
		}
	}
	return nil, ports.ErrCategoryNotFound
}

func (s *Store) nameTakenLocked(name string, exceptID int64) bool {
	for id, category := range s.categories {
		if id != exceptID && domain.SameName(category.Entity.Name, name) {
			return true
		}
	}
	return false
}

// ProductRepository is the in-memory product adapter.
type ProductRepository struct {
	store *Store
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) (*ports.ProductProjection, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[product.CategoryID]; !ok {
		return nil, ports.ErrCategoryNotFound
	}
	s.nextProductID++
	clone := *product
	clone.ID = s.nextProductID
	now := s.now()
	stored := projection.New(&clone, projection.Metadata{CreatedAt: now, UpdatedAt: now, Version: 1})
	s.products[clone.ID] = stored
	id := clone.ID
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.products, id)
	})
	return cloneProduct(stored), nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product, expectedVersion int64) (*ports.ProductProjection, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[product.ID]
	if !ok || existing.Metadata.Version != expectedVersion {
		return nil, ports.ErrConcurrentModification
	}
	if _, ok := s.categories[product.CategoryID]; !ok {
		return nil, ports.ErrCategoryNotFound
	}
	previous := cloneProduct(existing)
	clone := *product
	updated := projection.New(&clone, projection.Metadata{
		CreatedAt: existing.Metadata.CreatedAt,
		UpdatedAt: s.now(),
		Version:   existing.Metadata.Version + 1,
	})
	s.products[clone.ID] = updated
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.products[previous.Entity.ID] = previous
	})
	return cloneProduct(updated), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	s := r.store
	s.mu.RLock()
	check := s.referenced
	s.mu.RUnlock()
	if check != nil {
		referenced, err := check(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return ports.ErrProductReferenced
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[id]
	if !ok {
		return ports.ErrProductNotFound
	}
	delete(s.products, id)
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.products[id] = existing
	})
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id int64) (*ports.ProductProjection, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

func (r *ProductRepository) List(_ context.Context, query domain.ProductQuery) ([]*ports.ProductProjection, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*ports.ProductProjection, 0, len(s.products))
	for _, product := range s.products {
		if query.Matches(product.Entity) {
			list = append(list, cloneProduct(product))
		}
	}
	sort.Slice(list, func(i, j int) bool { return query.Less(list[i].Entity, list[j].Entity) })
	return list, nil
}

func (r *ProductRepository) CountByCategory(_ context.Context, categoryID int64) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, product := range s.products {
		if product.Entity.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// LockForUpdate returns the requested products. Exclusivity comes from memtx serializing
// units of work; missing ids are simply absent from the result.
func (r *ProductRepository) LockForUpdate(_ context.Context, ids []int64) (map[int64]*ports.ProductProjection, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[int64]*ports.ProductProjection, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			result[id] = cloneProduct(product)
		}
	}
	return result, nil
}

func (r *ProductRepository) DeductStock(ctx context.Context, id int64, quantity int, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[id]
	if !ok {
		return ports.ErrProductNotFound
	}
	previous := cloneProduct(existing)
	updated := cloneProduct(existing)
	if err := updated.Entity.Deduct(quantity); err != nil {
		if errors.Is(err, domain.ErrNegativeStock) {
			return ports.ErrInsufficientStock
		}
		return err
	}
	updated.Metadata.UpdatedAt = at
	updated.Metadata.Version++
	s.products[id] = updated
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.products[id] = previous
	})
	return nil
}

func cloneCategory(src *ports.CategoryProjection) *ports.CategoryProjection {
	entity := *src.Entity
	return projection.New(&entity, src.Metadata)
}

func cloneProduct(src *ports.ProductProjection) *ports.ProductProjection {
	entity := *src.Entity
	return projection.New(&entity, src.Metadata)
}
