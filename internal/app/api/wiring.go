package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	inventoryserver "github.com/hcustod/inventory-management-system/go"
	catalogredis "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/cache/redis"
	catalogmemory "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/hcustod/inventory-management-system/internal/domains/catalog/application"
	catalogports "github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	identitymemory "github.com/hcustod/inventory-management-system/internal/domains/identity/adapters/memory"
	identityoidc "github.com/hcustod/inventory-management-system/internal/domains/identity/adapters/oidc"
	identitypostgres "github.com/hcustod/inventory-management-system/internal/domains/identity/adapters/persistence/postgres"
	identityapp "github.com/hcustod/inventory-management-system/internal/domains/identity/application"
	identityports "github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
	stockadapter "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/catalog"
	ordersmemory "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/memory"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/notify"
	ordersobs "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/hcustod/inventory-management-system/internal/domains/orders/application"
	ordersports "github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	"github.com/hcustod/inventory-management-system/internal/platform/memtx"
	"github.com/hcustod/inventory-management-system/internal/platform/migrations"
	platformobservability "github.com/hcustod/inventory-management-system/internal/platform/observability"
	platformpostgres "github.com/hcustod/inventory-management-system/internal/platform/postgres"
)

// transactor is satisfied by both the postgres and the in-memory unit of work. Catalog and
// orders share one instance so guarded deletes and order placement serialize together.
type transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type storage struct {
	categories catalogports.CategoryRepository
	products   catalogports.ProductRepository
	orders     ordersports.Repository
	keys       ordersports.IdempotencyStore
	tokens     identityports.TokenStore
	tx         transactor
}

type application struct {
	handlers inventoryserver.ApiHandleFunctions
	closers  []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*application, error) {
	logger := instruments.Logger
	app := &application{}

	store, cleanupStore, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, cleanupStore)

	catalogOpts := []catalogapp.Option{catalogapp.WithTransactor(store.tx)}
	orderOpts := []ordersapp.Option{
		ordersapp.WithTransactor(store.tx),
		ordersapp.WithLogger(logger),
		ordersapp.WithIdempotencyStore(store.keys),
	}
	if cache, cleanupCache := buildProductCache(ctx, cfg, logger); cache != nil {
		app.closers = append(app.closers, cleanupCache)
		catalogOpts = append(catalogOpts, catalogapp.WithProductCache(cache))
		orderOpts = append(orderOpts, ordersapp.WithCacheInvalidator(cache))
	}
	notifier, cleanupNotifier := buildNotifier(cfg, instruments)
	app.closers = append(app.closers, cleanupNotifier)
	orderOpts = append(orderOpts, ordersapp.WithNotifier(notifier))

	catalogService := catalogobs.New(
		catalogapp.NewService(store.categories, store.products, catalogOpts...),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)
	orderService := ordersobs.New(
		ordersapp.NewService(store.orders, stockadapter.NewStockLedger(store.products), orderOpts...),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	authenticator, grants, err := buildAuthenticator(ctx, cfg, store.tokens, logger)
	if err != nil {
		app.close()
		return nil, err
	}
	if len(grants) > 0 && cfg.SessionTTL > 0 {
		refreshCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		go refreshTokens(refreshCtx, store.tokens, grants, cfg.SessionTTL/2, logger)
		app.closers = append(app.closers, cancel)
	}

	responder := inventoryserver.NewResponder(logger)
	app.handlers = inventoryserver.ApiHandleFunctions{
		CategoryAPI:   inventoryserver.NewCategoryAPI(catalogService, responder),
		ProductAPI:    inventoryserver.NewProductAPI(catalogService, responder),
		OrderAPI:      inventoryserver.NewOrderAPI(orderService, responder),
		Authenticator: authenticator,
		Errors:        responder,
	}
	return app, nil
}

// buildStorage selects postgres when a DSN is configured and reachable, otherwise the
// in-memory adapters.
func buildStorage(ctx context.Context, cfg Config, logger *slog.Logger) (storage, func(), error) {
	db, cleanup := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		return memoryStorage(cfg), cleanup, nil
	}
	if err := migrations.Run(db); err != nil {
		cleanup()
		return storage{}, nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("repositories configured with postgres")
	return postgresStorage(db, cfg), cleanup, nil
}

func postgresStorage(db *gorm.DB, cfg Config) storage {
	return storage{
		categories: catalogpostgres.NewCategoryRepository(db),
		products:   catalogpostgres.NewProductRepository(db),
		orders:     orderspostgres.NewRepository(db),
		keys:       orderspostgres.NewIdempotencyStore(db),
		tokens:     identitypostgres.NewTokenStore(db, cfg.SessionTTL),
		tx:         platformpostgres.NewTransactor(db),
	}
}

func memoryStorage(cfg Config) storage {
	catalogStore := catalogmemory.NewStore()
	products := catalogStore.Products()
	orders := ordersmemory.NewRepository(func(ctx context.Context, productID int64) (string, bool) {
		product, err := products.GetByID(ctx, productID)
		if err != nil || product == nil || product.Entity == nil {
			return "", false
		}
		return product.Entity.Name, true
	})
	catalogStore.GuardProductDeletes(orders.ReferencesProduct)
	return storage{
		categories: catalogStore.Categories(),
		products:   products,
		orders:     orders,
		keys:       ordersmemory.NewIdempotencyStore(),
		tokens:     identitymemory.NewTokenStore(cfg.SessionTTL),
		tx:         memtx.NewTransactor(),
	}
}

// buildProductCache returns nil when redis is not configured or not reachable.
func buildProductCache(ctx context.Context, cfg Config, logger *slog.Logger) (*catalogredis.ProductCache, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, product cache disabled")
		return nil, func() {}
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, product cache disabled", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		_ = client.Close()
		return nil, func() {}
	}
	logger.Info("product cache configured with redis", slog.String("addr", cfg.RedisAddr))
	return catalogredis.NewProductCache(client, cfg.ProductCacheTTL, logger), func() { _ = client.Close() }
}

// buildNotifier prefers the durable Temporal workflow. Without Temporal the event goes
// straight to Kafka, or to the log when no brokers are configured.
func buildNotifier(cfg Config, instruments *platformobservability.Instruments) (ordersports.Notifier, func()) {
	logger := instruments.Logger
	temporalClient, err := connectTemporalClient(cfg, instruments)
	if err == nil {
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
		return ordersworkflows.NewTemporalNotifier(temporalClient), temporalClient.Close
	}
	logger.Warn("Temporal workflows unavailable, publishing order events inline", slog.String("error", err.Error()))
	return buildPublisher(cfg, logger)
}

func buildPublisher(cfg Config, logger *slog.Logger) (ordersports.Notifier, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return notify.NewLogNotifier(logger), func() {}
	}
	publisher := notify.NewKafkaNotifier(notify.NewInlineKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger))
	logger.Info("order events published to kafka", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka writer", slog.String("error", err.Error()))
		}
	}
}

// buildAuthenticator accepts API tokens first and falls through to OIDC ID tokens when an
// issuer is configured.
func buildAuthenticator(ctx context.Context, cfg Config, tokens identityports.TokenStore, logger *slog.Logger) (identityports.Authenticator, []identityapp.TokenGrant, error) {
	grants, err := identityapp.ParseTokenGrants(cfg.APITokens)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid API_TOKENS: %w", err)
	}
	if err := identityapp.SeedTokens(ctx, tokens, grants); err != nil {
		return nil, nil, fmt.Errorf("failed to seed API tokens: %w", err)
	}
	chain := identityapp.Chain{identityapp.NewTokenAuthenticator(tokens)}
	if cfg.OIDCIssuer == "" {
		if len(grants) == 0 {
			logger.Warn("no API_TOKENS or OIDC_ISSUER configured, only anonymous routes are reachable")
		}
		return chain, grants, nil
	}
	oidcAuth, err := identityoidc.NewAuthenticator(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCRolesClaim)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		logger.Warn("oidc provider unavailable, accepting API tokens only", slog.String("issuer", cfg.OIDCIssuer), slog.String("error", err.Error()))
		return chain, grants, nil
	}
	logger.Info("oidc authentication enabled", slog.String("issuer", cfg.OIDCIssuer))
	return append(chain, oidcAuth), grants, nil
}

// refreshTokens re-saves the configured tokens so they outlive the session TTL while the
// process runs.
func refreshTokens(ctx context.Context, tokens identityports.TokenStore, grants []identityapp.TokenGrant, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := identityapp.SeedTokens(ctx, tokens, grants); err != nil {
				logger.Warn("failed to refresh API tokens", slog.String("error", err.Error()))
			}
		}
	}
}
