package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	stockadapter "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/catalog"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/memory"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	"github.com/hcustod/inventory-management-system/internal/platform/memtx"
)

func withIdempotency(f *fixture) *memory.IdempotencyStore {
	store := memory.NewIdempotencyStore()
	f.svc = NewService(f.orders, stockadapter.NewStockLedger(f.catalog.Products()),
		WithTransactor(memtx.NewTransactor()),
		WithNotifier(f.notifier),
		WithCacheInvalidator(f.cache),
		WithClock(func() time.Time { return placedAt }),
		WithIdempotencyStore(store),
	)
	return store
}

func keyed(key string, input types.PlaceOrderInput) types.PlaceOrderInput {
	input.IdempotencyKey = key
	return input
}

func TestPlaceOrder_SameKeyReplaysOrder(t *testing.T) {
	f := newFixture(t)
	withIdempotency(f)
	ctx := context.Background()
	widget := f.product(t, "Widget", "3.00", 5, 0)

	first, err := f.svc.PlaceOrder(ctx, keyed("retry-1", order(line(widget, 2))))
	require.NoError(t, err)

	second, err := f.svc.PlaceOrder(ctx, keyed(" retry-1 ", order(line(widget, 1), line(widget, 1))))
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, first.TotalPrice.Equal(second.TotalPrice))

	require.Equal(t, 3, f.stock(t, widget))
	require.Len(t, f.notifier.events, 1)
}

func TestPlaceOrder_SameKeyDifferentContentConflicts(t *testing.T) {
	f := newFixture(t)
	withIdempotency(f)
	ctx := context.Background()
	widget := f.product(t, "Widget", "3.00", 5, 0)

	_, err := f.svc.PlaceOrder(ctx, keyed("retry-2", order(line(widget, 2))))
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, keyed("retry-2", order(line(widget, 3))))
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.Equal(t, 3, f.stock(t, widget))
}

func TestPlaceOrder_RejectedOrderDoesNotClaimKey(t *testing.T) {
	f := newFixture(t)
	store := withIdempotency(f)
	ctx := context.Background()
	widget := f.product(t, "Widget", "3.00", 1, 0)

	_, err := f.svc.PlaceOrder(ctx, keyed("retry-3", order(line(widget, 2))))
	require.ErrorIs(t, err, ErrInvalidInput)

	record, err := store.Get(ctx, "retry-3")
	require.NoError(t, err)
	require.Nil(t, record)

	placed, err := f.svc.PlaceOrder(ctx, keyed("retry-3", order(line(widget, 1))))
	require.NoError(t, err)
	require.NotZero(t, placed.ID)
}

func TestPlaceOrder_RejectsOversizedKey(t *testing.T) {
	f := newFixture(t)
	withIdempotency(f)
	widget := f.product(t, "Widget", "3.00", 5, 0)

	_, err := f.svc.PlaceOrder(context.Background(), keyed(strings.Repeat("k", MaxIdempotencyKeyLength+1), order(line(widget, 1))))
	require.ErrorIs(t, err, ErrInvalidIdempotencyKey)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, 5, f.stock(t, widget))
}

func TestPlaceOrder_KeyIgnoredWithoutStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "3.00", 5, 0)

	first, err := f.svc.PlaceOrder(ctx, keyed("retry-4", order(line(widget, 1))))
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(ctx, keyed("retry-4", order(line(widget, 1))))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 3, f.stock(t, widget))
}

func TestDeleteOrder_ReleasesIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	withIdempotency(f)
	ctx := context.Background()
	widget := f.product(t, "Widget", "3.00", 5, 0)

	first, err := f.svc.PlaceOrder(ctx, keyed("retry-5", order(line(widget, 1))))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteOrder(ctx, types.OrderIdentifier{ID: first.ID}))

	second, err := f.svc.PlaceOrder(ctx, keyed("retry-5", order(line(widget, 1))))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 3, f.stock(t, widget))
}

func TestFingerprintDraft_IgnoresLineOrderAndEmailCase(t *testing.T) {
	a, err := buildDraft(types.PlaceOrderInput{UserName: "Ann", UserEmail: "Ann@Example.com", Lines: []types.LineInput{line(2, 1), line(1, 4)}}, placedAt)
	require.NoError(t, err)
	b, err := buildDraft(types.PlaceOrderInput{UserName: "Ann", UserEmail: "ann@example.com", Lines: []types.LineInput{line(1, 4), line(2, 1)}}, placedAt)
	require.NoError(t, err)

	hashA, err := fingerprintDraft(a)
	require.NoError(t, err)
	hashB, err := fingerprintDraft(b)
	require.NoError(t, err)
	require.Equal(t, hashA, hashB)

	c, err := buildDraft(types.PlaceOrderInput{UserName: "Ann", UserEmail: "ann@example.com", Lines: []types.LineInput{line(1, 5), line(2, 1)}}, placedAt)
	require.NoError(t, err)
	hashC, err := fingerprintDraft(c)
	require.NoError(t, err)
	require.NotEqual(t, hashA, hashC)
}
