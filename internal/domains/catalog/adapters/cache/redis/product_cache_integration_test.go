//go:build integration
// +build integration

package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	"github.com/hcustod/inventory-management-system/internal/shared/projection"
)

func setupRedisContainer(t *testing.T) goredis.UniversalClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestProductCache_RoundTripAndInvalidate(t *testing.T) {
	client := setupRedisContainer(t)
	cache := NewProductCache(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	created := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	product := projection.New(&domain.Product{
		ID:                7,
		Name:              "Widget",
		Description:       "A widget",
		Price:             decimal.RequireFromString("12.50"),
		StockAmount:       4,
		LowStockThreshold: 5,
		CategoryID:        3,
	}, projection.Metadata{CreatedAt: created, UpdatedAt: created, Version: 2})

	_, ok := cache.Get(ctx, 7)
	require.False(t, ok)

	cache.Set(ctx, product)
	got, ok := cache.Get(ctx, 7)
	require.True(t, ok)
	require.Equal(t, "Widget", got.Entity.Name)
	require.True(t, got.Entity.Price.Equal(decimal.RequireFromString("12.50")))
	require.True(t, got.Entity.IsLowStock())
	require.Equal(t, int64(2), got.Metadata.Version)
	require.True(t, got.Metadata.CreatedAt.Equal(created))

	ttl, err := client.TTL(ctx, productKey(7)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	cache.Invalidate(ctx, 7, 8)
	_, ok = cache.Get(ctx, 7)
	require.False(t, ok)
}

func TestProductCache_CorruptEntryIsAMiss(t *testing.T) {
	client := setupRedisContainer(t)
	cache := NewProductCache(client, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, productKey(9), "not-json", time.Minute).Err())
	_, ok := cache.Get(ctx, 9)
	require.False(t, ok)
}
