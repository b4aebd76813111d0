package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	identitypostgres "github.com/hcustod/inventory-management-system/internal/domains/identity/adapters/persistence/postgres"
	orderspostgres "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/persistence/postgres"
	platformobservability "github.com/hcustod/inventory-management-system/internal/platform/observability"
	platformpostgres "github.com/hcustod/inventory-management-system/internal/platform/postgres"
)

// defaultKeyRetention is how long an Idempotency-Key keeps replaying its order.
const defaultKeyRetention = 24 * time.Hour

// Removes expired API tokens and idempotency keys older than IDEMPOTENCY_KEY_RETENTION.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts, err := platformobservability.OptionsFromEnv("inventory-session-purger")
	if err != nil {
		log.Fatalf("invalid observability settings: %v", err)
	}
	opts.TraceExporter = platformobservability.ExporterNone
	instruments, shutdown, err := platformobservability.Init(ctx, opts)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	logger := instruments.Logger

	ttl, err := sessionTTLFromEnv()
	if err != nil {
		log.Fatalf("invalid SESSION_TTL_HOURS: %v", err)
	}
	retention, err := keyRetentionFromEnv()
	if err != nil {
		log.Fatalf("invalid IDEMPOTENCY_KEY_RETENTION: %v", err)
	}

	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; nothing to purge")
	}

	tokens, err := identitypostgres.NewTokenStore(db, ttl).PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("failed to purge API tokens: %v", err)
	}
	keys, err := orderspostgres.NewIdempotencyStore(db).PurgeBefore(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	logger.Info("purge completed",
		slog.Int64("tokens", tokens),
		slog.Int64("idempotencyKeys", keys),
		slog.Duration("keyRetention", retention))
}

func sessionTTLFromEnv() (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS"))
	if raw == "" {
		return identitypostgres.DefaultSessionTTL, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("%q is not a positive number of hours", raw)
	}
	return time.Duration(hours) * time.Hour, nil
}

func keyRetentionFromEnv() (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv("IDEMPOTENCY_KEY_RETENTION"))
	if raw == "" {
		return defaultKeyRetention, nil
	}
	retention, err := time.ParseDuration(raw)
	if err != nil || retention <= 0 {
		return 0, fmt.Errorf("%q is not a positive duration", raw)
	}
	return retention, nil
}
