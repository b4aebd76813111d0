package orders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/platform/temporal/sequences"
)

const (
	// OrderPlacedWorkflowName is the public identifier for registering the workflow.
	OrderPlacedWorkflowName = "orders.workflows.OrderPlaced"
	// OrderNotificationTaskQueue is the queue consumed by the worker processing order notifications.
	OrderNotificationTaskQueue = "ORDER_NOTIFICATIONS"
)

// OrderPlacedWorkflowInput carries the committed order event.
type OrderPlacedWorkflowInput struct {
	Event   domain.OrderPlaced
	TraceID string
}

// OrderPlacedWorkflow delivers the notification for a committed order.
func OrderPlacedWorkflow(ctx workflow.Context, input OrderPlacedWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderPlacedWorkflow started", withTraceID(input.TraceID, "orderId", input.Event.OrderID)...)
	if err := sequences.RunOrderNotificationSequence(ctx, input.Event); err != nil {
		logger.Error("OrderPlacedWorkflow failed", withTraceID(input.TraceID, "orderId", input.Event.OrderID, "error", err)...)
		return err
	}
	logger.Info("OrderPlacedWorkflow completed", withTraceID(input.TraceID, "orderId", input.Event.OrderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
