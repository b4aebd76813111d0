package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	"github.com/hcustod/inventory-management-system/internal/platform/memtx"
)

var _ ports.Repository = (*Repository)(nil)

// ProductDetails resolves the display name of an order line's product.
type ProductDetails func(ctx context.Context, productID int64) (name string, ok bool)

// Repository is an in-memory order store.
type Repository struct {
	mu      sync.RWMutex
	orders  map[int64]*domain.Order
	lines   map[int64][]domain.Line
	nextID  int64
	details ProductDetails
}

// NewRepository creates the store. details may be nil, leaving line names empty.
func NewRepository(details ProductDetails) *Repository {
	return &Repository{
		orders:  map[int64]*domain.Order{},
		lines:   map[int64][]domain.Line{},
		details: details,
	}
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	header := *order
	header.ID = r.nextID
	header.Lines = nil
	r.orders[header.ID] = &header
	id := header.ID
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.orders, id)
	})
	result := header
	return &result, nil
}

func (r *Repository) AddLines(ctx context.Context, orderID int64, lines []domain.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[orderID]; !ok {
		return ports.ErrNotFound
	}
	existing := r.lines[orderID]
	for _, line := range lines {
		for _, current := range existing {
			if current.ProductID == line.ProductID {
				return errors.New("order line already exists for product")
			}
		}
		existing = append(existing, domain.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	previous := r.lines[orderID]
	r.lines[orderID] = existing
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if previous == nil {
			delete(r.lines, orderID)
			return
		}
		r.lines[orderID] = previous
	})
	return nil
}

func (r *Repository) SetTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	previous := order.TotalPrice
	order.TotalPrice = total
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if o, ok := r.orders[orderID]; ok {
			o.TotalPrice = previous
		}
	})
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	order, ok := r.orders[id]
	if !ok {
		r.mu.RUnlock()
		return nil, ports.ErrNotFound
	}
	result := r.snapshotLocked(order)
	r.mu.RUnlock()
	r.resolveLines(ctx, result)
	return result, nil
}

func (r *Repository) List(ctx context.Context, query domain.OrderQuery) ([]*domain.Order, error) {
	r.mu.RLock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if query.Matches(order) {
			list = append(list, r.snapshotLocked(order))
		}
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	for _, order := range list {
		r.resolveLines(ctx, order)
	}
	return list, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	lines := r.lines[id]
	delete(r.lines, id)
	delete(r.orders, id)
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.orders[id] = order
		if lines != nil {
			r.lines[id] = lines
		}
	})
	return nil
}

// ReferencesProduct backs the catalog's product delete guard.
func (r *Repository) ReferencesProduct(_ context.Context, productID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lines := range r.lines {
		for _, line := range lines {
			if line.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Repository) snapshotLocked(order *domain.Order) *domain.Order {
	result := *order
	result.Lines = append([]domain.Line(nil), r.lines[order.ID]...)
	sort.Slice(result.Lines, func(i, j int) bool { return result.Lines[i].ProductID < result.Lines[j].ProductID })
	return &result
}

func (r *Repository) resolveLines(ctx context.Context, order *domain.Order) {
	if r.details == nil {
		return
	}
	for i := range order.Lines {
		if name, ok := r.details(ctx, order.Lines[i].ProductID); ok {
			order.Lines[i].ProductName = name
		}
	}
}
