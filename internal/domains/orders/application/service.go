package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
)

// Service orchestrates order placement, lookup and deletion.
type Service struct {
	orders   ports.Repository
	stock    ports.StockLedger
	tx       ports.Transactor
	notifier ports.Notifier
	cache    ports.CacheInvalidator
	now      func() time.Time
	logger   *slog.Logger

	idempotency ports.IdempotencyStore
}

// Option customises the order service.
type Option func(*Service)

// WithTransactor sets the unit of work shared by the order and stock repositories.
func WithTransactor(tx ports.Transactor) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithNotifier sets where OrderPlaced events go after commit.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithCacheInvalidator drops cached products whose stock an order moved.
func WithCacheInvalidator(c ports.CacheInvalidator) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithIdempotencyStore lets PlaceOrder replay requests that carry an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		if store != nil {
			s.idempotency = store
		}
	}
}

// WithClock overrides the server time used to stamp orders.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for notification failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the order service. Without WithTransactor every call runs unguarded,
// which is only suitable for tests.
func NewService(orders ports.Repository, stock ports.StockLedger, opts ...Option) *Service {
	s := &Service{
		orders:   orders,
		stock:    stock,
		tx:       inlineTransactor{},
		notifier: noopNotifier{},
		cache:    noopInvalidator{},
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder validates and merges the request, then locks, checks and deducts stock and
// persists the order in a single unit of work. Nothing is written when any line fails.
// A request carrying an idempotency key already seen with the same content returns the
// recorded order without touching stock again.
func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error) {
	draft, err := buildDraft(input, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	key, hash, err := s.idempotencyClaim(input.IdempotencyKey, draft)
	if err != nil {
		return nil, mapError(err)
	}
	if key != "" {
		if order, err := s.replay(ctx, key, hash); err != nil || order != nil {
			return order, err
		}
	}

	var result *reconciliation
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		productIDs := draft.ProductIDs()
		stock, err := s.stock.Lock(ctx, productIDs)
		if err != nil {
			return err
		}
		if err := ensureProductsExist(productIDs, stock); err != nil {
			return err
		}
		result, err = s.reconcile(ctx, draft, stock)
		if err != nil || key == "" {
			return err
		}
		return s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:         key,
			RequestHash: hash,
			OrderID:     result.order.ID,
			CreatedAt:   draft.OrderDate,
		})
	})
	if errors.Is(err, ports.ErrIdempotencyKeyTaken) {
		if order, replayErr := s.replay(ctx, key, hash); replayErr != nil || order != nil {
			return order, replayErr
		}
	}
	if err != nil {
		return nil, mapError(err)
	}

	s.cache.Invalidate(ctx, result.order.ProductIDs()...)
	s.publish(ctx, result)
	return result.order, nil
}

// idempotencyClaim returns an empty key when the request carries none or no store is wired.
func (s *Service) idempotencyClaim(raw string, draft *domain.Order) (string, string, error) {
	key := strings.TrimSpace(raw)
	if key == "" || s.idempotency == nil {
		return "", "", nil
	}
	if len(key) > MaxIdempotencyKeyLength {
		return "", "", ErrInvalidIdempotencyKey
	}
	hash, err := fingerprintDraft(draft)
	if err != nil {
		return "", "", err
	}
	return key, hash, nil
}

// publish hands the event to the notifier. Failures are logged and never reach the caller.
func (s *Service) publish(ctx context.Context, result *reconciliation) {
	event := domain.NewOrderPlaced(result.order, result.lowStock)
	if err := s.notifier.OrderPlaced(context.WithoutCancel(ctx), event); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "order notification failed",
			slog.Int64("order.id", event.OrderID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) GetOrder(ctx context.Context, id types.OrderIdentifier) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id.ID)
}

func (s *Service) ListOrders(ctx context.Context, input types.ListOrdersInput) ([]*domain.Order, error) {
	return s.orders.List(ctx, domain.OrderQuery{
		Search:    input.Search,
		Email:     input.Email,
		OrderDate: input.OrderDate,
	})
}

// DeleteOrder removes an order with its lines. Stock is not restored.
func (s *Service) DeleteOrder(ctx context.Context, id types.OrderIdentifier) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if s.idempotency != nil {
			if err := s.idempotency.ForgetOrder(ctx, id.ID); err != nil {
				return err
			}
		}
		return s.orders.Delete(ctx, id.ID)
	})
}

type inlineTransactor struct{}

func (inlineTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopNotifier struct{}

func (noopNotifier) OrderPlaced(context.Context, domain.OrderPlaced) error { return nil }

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, ...int64) {}

var _ ports.Service = (*Service)(nil)
