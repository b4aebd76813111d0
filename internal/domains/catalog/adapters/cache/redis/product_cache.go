package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	"github.com/hcustod/inventory-management-system/internal/shared/projection"
)

// DefaultTTL bounds how long a product stays cached when no TTL is configured.
const DefaultTTL = 5 * time.Minute

var _ ports.ProductCache = (*ProductCache)(nil)

// ProductCache stores product projections as JSON under product:<id>. Every failure
// degrades to a cache miss; callers fall back to the repository.
type ProductCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewProductCache wires the cache. A non-positive ttl selects DefaultTTL.
func NewProductCache(client goredis.UniversalClient, ttl time.Duration, logger *slog.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductCache{client: client, ttl: ttl, logger: logger}
}

// cachedProduct is the wire shape kept in redis.
type cachedProduct struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	StockAmount       int             `json:"stockAmount"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	CategoryID        int64           `json:"categoryId"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	Version           int64           `json:"version"`
}

func (c *ProductCache) Get(ctx context.Context, id int64) (*ports.ProductProjection, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key := productKey(id)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.WarnContext(ctx, "redis GET failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	var model cachedProduct
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.WarnContext(ctx, "redis unmarshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if model.ID != id {
		c.logger.WarnContext(ctx, "cache id mismatch", slog.Int64("key_id", id), slog.Int64("model_id", model.ID))
		c.Invalidate(ctx, id)
		return nil, false
	}
	return model.toProjection(), true
}

func (c *ProductCache) Set(ctx context.Context, product *ports.ProductProjection) {
	if c == nil || c.client == nil || product == nil || product.Entity == nil {
		return
	}
	data, err := json.Marshal(fromProjection(product))
	if err != nil {
		c.logger.WarnContext(ctx, "failed to marshal product for caching",
			slog.Int64("product.id", product.Entity.ID), slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, productKey(product.Entity.ID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "redis SET failed", slog.Int64("product.id", product.Entity.ID), slog.String("error", err.Error()))
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if c == nil || c.client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "redis DEL failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func fromProjection(p *ports.ProductProjection) cachedProduct {
	return cachedProduct{
		ID:                p.Entity.ID,
		Name:              p.Entity.Name,
		Description:       p.Entity.Description,
		Price:             p.Entity.Price,
		StockAmount:       p.Entity.StockAmount,
		LowStockThreshold: p.Entity.LowStockThreshold,
		CategoryID:        p.Entity.CategoryID,
		CreatedAt:         p.Metadata.CreatedAt,
		UpdatedAt:         p.Metadata.UpdatedAt,
		Version:           p.Metadata.Version,
	}
}

func (m cachedProduct) toProjection() *ports.ProductProjection {
	return projection.New(&domain.Product{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		StockAmount:       m.StockAmount,
		LowStockThreshold: m.LowStockThreshold,
		CategoryID:        m.CategoryID,
	}, projection.Metadata{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt, Version: m.Version})
}
