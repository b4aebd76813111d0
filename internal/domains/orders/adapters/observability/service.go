package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

const tracerName = "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create the order counters.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.Int("order.requested_lines", len(input.Lines)),
	))
	defer span.End()

	s.logger.LogAttrs(ctx, slog.LevelInfo, "placing order", slog.Int("order.requested_lines", len(input.Lines)))
	order, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx)
		return nil, s.handleError(ctx, span, err, "failed to place order")
	}

	units := 0
	for _, line := range order.Lines {
		units += line.Quantity
	}
	span.SetAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.total", order.TotalPrice.StringFixed(2)),
		attribute.Int("order.lines", len(order.Lines)),
	)
	s.metrics.recordPlaced(ctx, int64(units))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "order placed",
		slog.Int64("order.id", order.ID),
		slog.String("order.total", order.TotalPrice.StringFixed(2)),
		slog.Int("order.units", units))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id types.OrderIdentifier) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id.ID)))
	defer span.End()

	order, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id.ID))
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, input types.ListOrdersInput) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders", trace.WithAttributes(
		attribute.String("query.search", input.Search),
		attribute.String("query.email", input.Email),
		attribute.Bool("query.by_date", input.OrderDate != nil),
	))
	defer span.End()

	orders, err := s.inner.ListOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))
	return orders, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id types.OrderIdentifier) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteOrder", trace.WithAttributes(attribute.Int64("order.id", id.ID)))
	defer span.End()

	s.logger.LogAttrs(ctx, slog.LevelInfo, "deleting order", slog.Int64("order.id", id.ID))
	if err := s.inner.DeleteOrder(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.Int64("order.id", id.ID))
	}
	s.metrics.recordDeleted(ctx)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "order deleted", slog.Int64("order.id", id.ID))
	return nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

type serviceMetrics struct {
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
	unitsDeducted  metric.Int64Counter
	ordersDeleted  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders committed"))
	rejected, _ := m.Int64Counter("orders.service.orders_rejected", metric.WithDescription("Number of order placements that failed"))
	units, _ := m.Int64Counter("orders.service.stock_units_deducted", metric.WithDescription("Stock units removed by placed orders"))
	deleted, _ := m.Int64Counter("orders.service.orders_deleted", metric.WithDescription("Number of orders deleted"))
	return serviceMetrics{ordersPlaced: placed, ordersRejected: rejected, unitsDeducted: units, ordersDeleted: deleted}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, units int64) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1)
	}
	if m.unitsDeducted != nil {
		m.unitsDeducted.Add(ctx, units)
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context) {
	if m.ordersRejected != nil {
		m.ordersRejected.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.ordersDeleted != nil {
		m.ordersDeleted.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
