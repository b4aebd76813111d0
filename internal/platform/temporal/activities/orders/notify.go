package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

const (
	// PublishOrderPlacedActivityName delivers an OrderPlaced event to the downstream notifier.
	PublishOrderPlacedActivityName = "orders.activities.PublishOrderPlaced"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	publisher ports.Notifier
}

// NewActivities wires the downstream publisher (Kafka or log) into the activities bundle.
func NewActivities(publisher ports.Notifier) *Activities {
	return &Activities{publisher: publisher}
}

// PublishOrderPlaced hands the event to the publisher. Temporal retries it on failure.
func (a *Activities) PublishOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.publisher == nil {
		logger.Error("order publish activity not initialized", "orderId", event.OrderID)
		return errors.New("order publish activity not initialized")
	}
	logger.Info("PublishOrderPlaced activity started", "orderId", event.OrderID, "attempt", activity.GetInfo(ctx).Attempt)
	if err := a.publisher.OrderPlaced(ctx, event); err != nil {
		logger.Error("PublishOrderPlaced activity failed", "orderId", event.OrderID, "error", err)
		return err
	}
	logger.Info("PublishOrderPlaced activity completed", "orderId", event.OrderID, "lowStock", len(event.LowStockProductIDs))
	return nil
}
