package workflows

import (
	"context"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	orderworkflows "github.com/hcustod/inventory-management-system/internal/platform/temporal/workflows/orders"
)

var _ ports.Notifier = (*TemporalNotifier)(nil)

// TemporalNotifier starts the OrderPlaced workflow and returns without waiting for it.
// The workflow id is derived from the order id, so a repeated start for the same order
// is absorbed.
type TemporalNotifier struct {
	client    client.Client
	taskQueue string
}

// NewTemporalNotifier wires a Temporal client into the notifier.
func NewTemporalNotifier(c client.Client) *TemporalNotifier {
	return &TemporalNotifier{client: c, taskQueue: orderworkflows.OrderNotificationTaskQueue}
}

func (n *TemporalNotifier) OrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	if n == nil || n.client == nil {
		return errors.New("temporal order notifier not configured")
	}
	options := client.StartWorkflowOptions{
		ID:                    WorkflowID(event.OrderID),
		TaskQueue:             n.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := n.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderPlacedWorkflowName,
		orderworkflows.OrderPlacedWorkflowInput{Event: event, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

// WorkflowID names the notification workflow of an order.
func WorkflowID(orderID int64) string {
	return fmt.Sprintf("order-placed-%d", orderID)
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
