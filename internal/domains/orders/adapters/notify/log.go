// Package notify delivers OrderPlaced events to their downstream sinks.
package notify

import (
	"context"
	"log/slog"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier writes events to the structured log. It is the fallback sink when no broker
// is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	n.logger.LogAttrs(ctx, slog.LevelInfo, "order placed",
		slog.Int64("order.id", event.OrderID),
		slog.String("order.user_email", event.UserEmail),
		slog.String("order.total", event.TotalPrice.StringFixed(2)),
		slog.Int("order.lines", len(event.Lines)),
		slog.Any("order.low_stock_product_ids", event.LowStockProductIDs))
	return nil
}
