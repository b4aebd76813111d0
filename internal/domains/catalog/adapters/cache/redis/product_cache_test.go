package redis

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	"github.com/hcustod/inventory-management-system/internal/shared/projection"
)

func TestProductCache_WithoutClientDegradesToMiss(t *testing.T) {
	cache := NewProductCache(nil, 0, nil)
	ctx := context.Background()
	require.Equal(t, DefaultTTL, cache.ttl)

	cache.Set(ctx, projection.New(&domain.Product{ID: 1}, projection.Metadata{}))
	cache.Invalidate(ctx, 1)
	_, ok := cache.Get(ctx, 1)
	require.False(t, ok)
}

func TestCachedProduct_PreservesProjection(t *testing.T) {
	at := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	original := projection.New(&domain.Product{
		ID:                4,
		Name:              "Drill",
		Description:       "Cordless",
		Price:             decimal.RequireFromString("99.90"),
		StockAmount:       2,
		LowStockThreshold: 3,
		CategoryID:        1,
	}, projection.Metadata{CreatedAt: at, UpdatedAt: at.Add(time.Hour), Version: 5})

	restored := fromProjection(original).toProjection()
	require.Equal(t, original.Entity.Name, restored.Entity.Name)
	require.True(t, original.Entity.Price.Equal(restored.Entity.Price))
	require.Equal(t, original.Metadata, restored.Metadata)
	require.Equal(t, "product:4", productKey(4))
}
