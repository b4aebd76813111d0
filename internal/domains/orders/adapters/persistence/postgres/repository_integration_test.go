//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogpg "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	catalogports "github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/application"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/platform/dbtest"
)

func newPostgresFixture(t *testing.T) catalogFixture {
	t.Helper()
	db := dbtest.OpenPostgres(t)
	category, err := catalogpg.NewCategoryRepository(db).Create(context.Background(), &catalogdomain.Category{Name: "Tools"})
	require.NoError(t, err)
	return catalogFixture{db: db, products: catalogpg.NewProductRepository(db), category: category.Entity.ID}
}

func TestPostgresPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newPostgresFixture(t)
	widget := f.product(t, "Widget", "3.00", 10)
	svc := f.service()

	const attempts = 20
	var placed, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
				UserName:  "Ann",
				UserEmail: "ann@example.com",
				Lines:     []types.LineInput{{ProductID: widget, Quantity: 1}},
			})
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, application.ErrInvalidInput):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(10), placed.Load())
	require.Equal(t, int32(attempts-10), rejected.Load())
	require.Equal(t, 0, f.stock(t, widget).Entity.StockAmount)

	var lines int64
	require.NoError(t, f.db.Table("order_lines").Count(&lines).Error)
	require.Equal(t, int64(10), lines)
}

func TestPostgresProductDelete_BlockedByOrderLines(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 5)

	_, err := f.service().PlaceOrder(ctx, types.PlaceOrderInput{
		UserName:  "Ann",
		UserEmail: "ann@example.com",
		Lines:     []types.LineInput{{ProductID: widget, Quantity: 1}},
	})
	require.NoError(t, err)

	err = f.products.Delete(ctx, widget)
	require.ErrorIs(t, err, catalogports.ErrProductReferenced)
}

func TestPostgresLowStockReport_FiltersByCategory(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	garden, err := catalogpg.NewCategoryRepository(f.db).Create(ctx, &catalogdomain.Category{Name: "Garden"})
	require.NoError(t, err)

	create := func(name string, stock, threshold int, categoryID int64) int64 {
		p, err := f.products.Create(ctx, &catalogdomain.Product{
			Name:              name,
			Description:       name,
			Price:             decimal.RequireFromString("1.00"),
			StockAmount:       stock,
			LowStockThreshold: threshold,
			CategoryID:        categoryID,
		})
		require.NoError(t, err)
		return p.Entity.ID
	}
	low := create("Low", 0, 2, f.category)
	create("Fine", 5, 2, f.category)
	create("Hose", 1, 3, garden.Entity.ID)

	all, err := f.products.LowStockReport(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := f.products.LowStockReport(ctx, []int64{f.category})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, low, scoped[0].Entity.ID)
}
