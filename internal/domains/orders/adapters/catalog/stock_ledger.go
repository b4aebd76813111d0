// Package catalog lets order placement move stock through the catalog's product store.
package catalog

import (
	"context"
	"errors"
	"time"

	catalogports "github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

var _ ports.StockLedger = (*StockLedger)(nil)

// StockLedger adapts a catalog product repository to the order stock port.
type StockLedger struct {
	products catalogports.ProductRepository
}

func NewStockLedger(products catalogports.ProductRepository) *StockLedger {
	return &StockLedger{products: products}
}

func (l *StockLedger) Lock(ctx context.Context, productIDs []int64) (map[int64]ports.StockItem, error) {
	locked, err := l.products.LockForUpdate(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	items := make(map[int64]ports.StockItem, len(locked))
	for id, p := range locked {
		if p == nil || p.Entity == nil {
			continue
		}
		items[id] = ports.StockItem{
			ProductID:         p.Entity.ID,
			Name:              p.Entity.Name,
			Price:             p.Entity.Price,
			StockAmount:       p.Entity.StockAmount,
			LowStockThreshold: p.Entity.LowStockThreshold,
		}
	}
	return items, nil
}

func (l *StockLedger) Deduct(ctx context.Context, productID int64, quantity int, at time.Time) error {
	err := l.products.DeductStock(ctx, productID, quantity, at)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalogports.ErrInsufficientStock):
		return ports.ErrInsufficientStock
	case errors.Is(err, catalogports.ErrProductNotFound):
		return ports.ErrProductNotFound
	default:
		return err
	}
}
