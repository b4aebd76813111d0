package application

import (
	"time"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

// buildDraft validates the request shape and merges duplicate product lines. It never
// touches storage; the returned order carries the server-side placement time.
func buildDraft(input types.PlaceOrderInput, placedAt time.Time) (*domain.Order, error) {
	if len(input.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	customer, err := domain.NewCustomer(input.UserName, input.UserEmail)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.Line, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, domain.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	merged, err := domain.MergeLines(lines)
	if err != nil {
		return nil, err
	}
	return domain.NewOrder(customer, placedAt, merged)
}

// ensureProductsExist walks the requested products in input order and fails on the first
// one missing from stock.
func ensureProductsExist(productIDs []int64, stock map[int64]ports.StockItem) error {
	for _, id := range productIDs {
		if _, ok := stock[id]; !ok {
			return &domain.UnknownProductError{ProductID: id}
		}
	}
	return nil
}
