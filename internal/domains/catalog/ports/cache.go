package ports

import (
	"context"
)

// ProductCache is a read-through cache for single product lookups.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*ProductProjection, bool)
	Set(ctx context.Context, product *ProductProjection)
	Invalidate(ctx context.Context, ids ...int64)
}

// NoopProductCache is used when no cache backend is configured.
var NoopProductCache ProductCache = noopProductCache{}

type noopProductCache struct{}

func (noopProductCache) Get(context.Context, int64) (*ProductProjection, bool) { return nil, false }
func (noopProductCache) Set(context.Context, *ProductProjection)               {}
func (noopProductCache) Invalidate(context.Context, ...int64)                  {}
