package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	orderactivities "github.com/hcustod/inventory-management-system/internal/platform/temporal/activities/orders"
)

// RunOrderNotificationSequence publishes an OrderPlaced event with bounded retries.
func RunOrderNotificationSequence(ctx workflow.Context, event domain.OrderPlaced) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("order notification sequence started", "orderId", event.OrderID)
	publishOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, publishOptions), orderactivities.PublishOrderPlacedActivityName, event).Get(ctx, nil)
	if err != nil {
		logger.Error("order notification sequence failed", "orderId", event.OrderID, "error", err)
		return err
	}
	logger.Info("order notification sequence published", "orderId", event.OrderID)
	return nil
}
