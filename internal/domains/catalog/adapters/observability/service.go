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

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
)

const tracerName = "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
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
		logger:  defaultLogger(),
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
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) CreateCategory(ctx context.Context, input types.CreateCategoryInput) (*ports.CategoryProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.CreateCategory", attribute.String("category.name", input.Name))
	defer span.End()

	s.logInfo(ctx, "creating category", slog.String("category.name", input.Name))
	result, err := s.inner.CreateCategory(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create category", slog.String("category.name", input.Name))
	}
	s.metrics.recordCategoryChange(ctx, "created")
	s.logInfo(ctx, "category created", slog.Int64("category.id", result.Entity.ID))
	return result, nil
}

func (s *Service) UpdateCategory(ctx context.Context, input types.UpdateCategoryInput) (*ports.CategoryProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.UpdateCategory", attribute.Int64("category.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "updating category", slog.Int64("category.id", input.ID))
	result, err := s.inner.UpdateCategory(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update category", slog.Int64("category.id", input.ID))
	}
	s.metrics.recordCategoryChange(ctx, "updated")
	s.logInfo(ctx, "category updated", slog.Int64("category.id", result.Entity.ID), slog.Int64("version", result.Metadata.Version))
	return result, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id types.CategoryIdentifier) error {
	ctx, span := s.startSpan(ctx, "CatalogService.DeleteCategory", attribute.Int64("category.id", id.ID))
	defer span.End()

	s.logInfo(ctx, "deleting category", slog.Int64("category.id", id.ID))
	if err := s.inner.DeleteCategory(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete category", slog.Int64("category.id", id.ID))
	}
	s.metrics.recordCategoryChange(ctx, "deleted")
	s.logInfo(ctx, "category deleted", slog.Int64("category.id", id.ID))
	return nil
}

func (s *Service) GetCategory(ctx context.Context, id types.CategoryIdentifier) (*ports.CategoryProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.GetCategory", attribute.Int64("category.id", id.ID))
	defer span.End()

	result, err := s.inner.GetCategory(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load category", slog.Int64("category.id", id.ID))
	}
	return result, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*ports.CategoryProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.ListCategories")
	defer span.End()

	result, err := s.inner.ListCategories(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list categories")
	}
	span.SetAttributes(attribute.Int("category.count", len(result)))
	return result, nil
}

func (s *Service) CreateProduct(ctx context.Context, input types.CreateProductInput) (*ports.ProductProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.CreateProduct",
		attribute.String("product.name", input.Name), attribute.Int64("product.category_id", input.CategoryID))
	defer span.End()

	s.logInfo(ctx, "creating product", slog.String("product.name", input.Name), slog.Int64("product.category_id", input.CategoryID))
	result, err := s.inner.CreateProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create product", slog.String("product.name", input.Name))
	}
	s.metrics.recordProductChange(ctx, "created")
	s.logInfo(ctx, "product created", slog.Int64("product.id", result.Entity.ID))
	return result, nil
}

func (s *Service) UpdateProduct(ctx context.Context, input types.UpdateProductInput) (*ports.ProductProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.UpdateProduct", attribute.Int64("product.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "updating product", slog.Int64("product.id", input.ID))
	result, err := s.inner.UpdateProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update product", slog.Int64("product.id", input.ID))
	}
	s.metrics.recordProductChange(ctx, "updated")
	s.logInfo(ctx, "product updated", slog.Int64("product.id", result.Entity.ID), slog.Int64("version", result.Metadata.Version))
	return result, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id types.ProductIdentifier) error {
	ctx, span := s.startSpan(ctx, "CatalogService.DeleteProduct", attribute.Int64("product.id", id.ID))
	defer span.End()

	s.logInfo(ctx, "deleting product", slog.Int64("product.id", id.ID))
	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete product", slog.Int64("product.id", id.ID))
	}
	s.metrics.recordProductChange(ctx, "deleted")
	s.logInfo(ctx, "product deleted", slog.Int64("product.id", id.ID))
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id types.ProductIdentifier) (*ports.ProductProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.GetProduct", attribute.Int64("product.id", id.ID))
	defer span.End()

	result, err := s.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.Int64("product.id", id.ID))
	}
	return result, nil
}

func (s *Service) ListProducts(ctx context.Context, input types.ListProductsInput) ([]*ports.ProductProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.ListProducts",
		attribute.String("query.search", input.Search),
		attribute.String("query.sort_by", input.SortBy),
		attribute.Bool("query.low_stock_only", input.LowStockOnly))
	defer span.End()

	result, err := s.inner.ListProducts(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	span.SetAttributes(attribute.Int("product.count", len(result)))
	return result, nil
}

func (s *Service) ProductsByCategory(ctx context.Context, id types.CategoryIdentifier) ([]*ports.ProductProjection, error) {
	ctx, span := s.startSpan(ctx, "CatalogService.ProductsByCategory", attribute.Int64("category.id", id.ID))
	defer span.End()

	result, err := s.inner.ProductsByCategory(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products by category", slog.Int64("category.id", id.ID))
	}
	span.SetAttributes(attribute.Int("product.count", len(result)))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	categoriesChanged metric.Int64Counter
	productsChanged   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	categoriesChanged, _ := m.Int64Counter("catalog.service.categories_changed", metric.WithDescription("Number of category mutations"))
	productsChanged, _ := m.Int64Counter("catalog.service.products_changed", metric.WithDescription("Number of product mutations"))
	return serviceMetrics{categoriesChanged: categoriesChanged, productsChanged: productsChanged}
}

func (m serviceMetrics) recordCategoryChange(ctx context.Context, op string) {
	addCounter(ctx, m.categoriesChanged, 1, attribute.String("operation", op))
}

func (m serviceMetrics) recordProductChange(ctx context.Context, op string) {
	addCounter(ctx, m.productsChanged, 1, attribute.String("operation", op))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
