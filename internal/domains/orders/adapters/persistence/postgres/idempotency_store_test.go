package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/application"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	platformpostgres "github.com/hcustod/inventory-management-system/internal/platform/postgres"
)

func TestIdempotencyStore_SaveGetAndForget(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	store := NewIdempotencyStore(f.db)
	order, err := NewRepository(f.db).Create(ctx, &domain.Order{UserName: "Ann", UserEmail: "ann@example.com", OrderDate: placedAt})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h", OrderID: order.ID, CreatedAt: placedAt}))
	err = store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "other", OrderID: order.ID, CreatedAt: placedAt})
	require.ErrorIs(t, err, ports.ErrIdempotencyKeyTaken)

	record, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "h", record.RequestHash)
	require.Equal(t, order.ID, record.OrderID)

	require.NoError(t, store.ForgetOrder(ctx, order.ID))
	record, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestIdempotencyStore_PurgeBefore(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	store := NewIdempotencyStore(f.db)
	order, err := NewRepository(f.db).Create(ctx, &domain.Order{UserName: "Ann", UserEmail: "ann@example.com", OrderDate: placedAt})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, ports.IdempotencyRecord{Key: "old", RequestHash: "h", OrderID: order.ID, CreatedAt: placedAt.Add(-48 * time.Hour)}))
	require.NoError(t, store.Save(ctx, ports.IdempotencyRecord{Key: "fresh", RequestHash: "h", OrderID: order.ID, CreatedAt: placedAt}))

	purged, err := store.PurgeBefore(ctx, placedAt.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	old, err := store.Get(ctx, "old")
	require.NoError(t, err)
	require.Nil(t, old)
	fresh, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, fresh)
}

func TestIdempotencyStore_ClaimRollsBackWithTransaction(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	store := NewIdempotencyStore(f.db)
	repo := NewRepository(f.db)

	boom := errors.New("boom")
	err := platformpostgres.NewTransactor(f.db).WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := repo.Create(ctx, &domain.Order{UserName: "Ann", UserEmail: "ann@example.com", OrderDate: placedAt})
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h", OrderID: order.ID, CreatedAt: placedAt}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	record, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestService_ReplaysKeyedOrderFromDatabase(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "4.00", 5)
	svc := application.NewService(NewRepository(f.db), f.ledger(),
		application.WithTransactor(platformpostgres.NewTransactor(f.db)),
		application.WithIdempotencyStore(NewIdempotencyStore(f.db)),
	)
	input := types.PlaceOrderInput{
		UserName:       "Ann",
		UserEmail:      "ann@example.com",
		Lines:          []types.LineInput{{ProductID: widget, Quantity: 2}},
		IdempotencyKey: "checkout-42",
	}

	first, err := svc.PlaceOrder(ctx, input)
	require.NoError(t, err)
	second, err := svc.PlaceOrder(ctx, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 3, f.stock(t, widget).Entity.StockAmount)

	input.Lines[0].Quantity = 1
	_, err = svc.PlaceOrder(ctx, input)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	require.NoError(t, svc.DeleteOrder(ctx, types.OrderIdentifier{ID: first.ID}))
	third, err := svc.PlaceOrder(ctx, input)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, third.ID)
}
