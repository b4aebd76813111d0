package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
)

type stubService struct {
	order *domain.Order
	err   error
}

func (s stubService) PlaceOrder(context.Context, types.PlaceOrderInput) (*domain.Order, error) {
	return s.order, s.err
}

func (s stubService) GetOrder(context.Context, types.OrderIdentifier) (*domain.Order, error) {
	return s.order, s.err
}

func (s stubService) ListOrders(context.Context, types.ListOrdersInput) ([]*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Order{s.order}, nil
}

func (s stubService) DeleteOrder(context.Context, types.OrderIdentifier) error {
	return s.err
}

type harness struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newHarness(inner stubService) (harness, *Service) {
	h := harness{spans: tracetest.NewSpanRecorder(), reader: sdkmetric.NewManualReader(), logs: &bytes.Buffer{}}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(h.spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(h.reader))
	svc := New(inner,
		WithLogger(slog.New(slog.NewTextHandler(h.logs, nil))),
		WithTracer(tp.Tracer("test")),
		WithMeter(mp.Meter("test")),
	).(*Service)
	return h, svc
}

func (h harness) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestService_PlaceOrderRecordsSpanAndUnits(t *testing.T) {
	order := &domain.Order{
		ID:         3,
		TotalPrice: decimal.RequireFromString("10.00"),
		Lines:      []domain.Line{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 3}},
	}
	h, svc := newHarness(stubService{order: order})

	got, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Lines: []types.LineInput{{ProductID: 1, Quantity: 2}}})
	require.NoError(t, err)
	require.Same(t, order, got)

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "OrderService.PlaceOrder", ended[0].Name())
	require.Equal(t, int64(1), h.counter(t, "orders.service.orders_placed"))
	require.Equal(t, int64(5), h.counter(t, "orders.service.stock_units_deducted"))
	require.Contains(t, h.logs.String(), "order placed")
}

func TestService_PlaceOrderFailureMarksSpan(t *testing.T) {
	h, svc := newHarness(stubService{err: errors.New("insufficient stock")})

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{})
	require.EqualError(t, err, "insufficient stock")

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Error, ended[0].Status().Code)
	require.Equal(t, int64(1), h.counter(t, "orders.service.orders_rejected"))
	require.Zero(t, h.counter(t, "orders.service.orders_placed"))
	require.Contains(t, h.logs.String(), "failed to place order")
}

func TestService_DeleteOrderCountsDeletion(t *testing.T) {
	h, svc := newHarness(stubService{})

	require.NoError(t, svc.DeleteOrder(context.Background(), types.OrderIdentifier{ID: 4}))
	require.Equal(t, int64(1), h.counter(t, "orders.service.orders_deleted"))
	require.Equal(t, "OrderService.DeleteOrder", h.spans.Ended()[0].Name())
}
