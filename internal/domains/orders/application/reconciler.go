package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

// reconciliation is the outcome of a committed stock reconciliation.
type reconciliation struct {
	order    *domain.Order
	lowStock []int64
}

// checkStock is the validation pass: every merged line is compared with the locked stock
// level before anything is written.
func checkStock(lines []domain.Line, stock map[int64]ports.StockItem) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		item := stock[line.ProductID]
		if line.Quantity > item.StockAmount {
			return &domain.InsufficientStockError{
				ProductID:   line.ProductID,
				ProductName: item.Name,
				Available:   item.StockAmount,
				Requested:   line.Quantity,
			}
		}
	}
	return nil
}

// reconcile persists the order header, its lines, the stock deductions and the total, in
// that order. It must run inside the unit of work that locked stock.
func (s *Service) reconcile(ctx context.Context, draft *domain.Order, stock map[int64]ports.StockItem) (*reconciliation, error) {
	if err := checkStock(draft.Lines, stock); err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	if err := s.orders.AddLines(ctx, order.ID, draft.Lines); err != nil {
		return nil, err
	}

	total := decimal.Zero
	lines := make([]domain.Line, 0, len(draft.Lines))
	var lowStock []int64
	for _, line := range draft.Lines {
		item := stock[line.ProductID]
		if err := s.stock.Deduct(ctx, line.ProductID, line.Quantity, draft.OrderDate); err != nil {
			if errors.Is(err, ports.ErrInsufficientStock) {
				return nil, &domain.InsufficientStockError{
					ProductID:   line.ProductID,
					ProductName: item.Name,
					Available:   item.StockAmount,
					Requested:   line.Quantity,
				}
			}
			if errors.Is(err, ports.ErrProductNotFound) {
				return nil, &domain.UnknownProductError{ProductID: line.ProductID}
			}
			return nil, err
		}
		remaining := item.StockAmount - line.Quantity
		if item.StockAmount >= item.LowStockThreshold && remaining < item.LowStockThreshold {
			lowStock = append(lowStock, line.ProductID)
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		lines = append(lines, domain.Line{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			ProductName: item.Name,
			UnitPrice:   decimal.NewNullDecimal(item.Price),
		})
	}

	if err := order.SetTotal(total); err != nil {
		return nil, err
	}
	if err := s.orders.SetTotal(ctx, order.ID, total); err != nil {
		return nil, err
	}
	order.Lines = lines
	return &reconciliation{order: order, lowStock: lowStock}, nil
}
