package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	stockadapter "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/catalog"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/memory"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/application/types"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	"github.com/hcustod/inventory-management-system/internal/platform/memtx"
)

var placedAt = time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.OrderPlaced
	err    error
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, event domain.OrderPlaced) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

type recordingInvalidator struct {
	ids []int64
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...int64) {
	r.ids = append(r.ids, ids...)
}

type fixture struct {
	svc      *Service
	catalog  *catalogmemory.Store
	orders   *memory.Repository
	notifier *recordingNotifier
	cache    *recordingInvalidator
	logs     *bytes.Buffer
	category int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := catalogmemory.NewStore()
	orders := memory.NewRepository(nil)
	catalog.GuardProductDeletes(orders.ReferencesProduct)
	notifier := &recordingNotifier{}
	cache := &recordingInvalidator{}
	logs := &bytes.Buffer{}

	category, err := catalog.Categories().Create(context.Background(), &catalogdomain.Category{Name: "Tools"})
	require.NoError(t, err)

	svc := NewService(orders, stockadapter.NewStockLedger(catalog.Products()),
		WithTransactor(memtx.NewTransactor()),
		WithNotifier(notifier),
		WithCacheInvalidator(cache),
		WithClock(func() time.Time { return placedAt }),
		WithLogger(slog.New(slog.NewTextHandler(logs, nil))),
	)
	return &fixture{svc: svc, catalog: catalog, orders: orders, notifier: notifier, cache: cache, logs: logs, category: category.Entity.ID}
}

func (f *fixture) product(t *testing.T, name, price string, stock, threshold int) int64 {
	t.Helper()
	p, err := f.catalog.Products().Create(context.Background(), &catalogdomain.Product{
		Name:              name,
		Description:       name,
		Price:             decimal.RequireFromString(price),
		StockAmount:       stock,
		LowStockThreshold: threshold,
		CategoryID:        f.category,
	})
	require.NoError(t, err)
	return p.Entity.ID
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.catalog.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Entity.StockAmount
}

func order(lines ...types.LineInput) types.PlaceOrderInput {
	return types.PlaceOrderInput{UserName: "Ann", UserEmail: "ann@example.com", Lines: lines}
}

func line(id int64, qty int) types.LineInput {
	return types.LineInput{ProductID: id, Quantity: qty}
}

func TestPlaceOrder_ComputesTotalAndDeductsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hammer := f.product(t, "Hammer", "12.50", 10, 2)
	nails := f.product(t, "Nails", "0.10", 1000, 100)

	placed, err := f.svc.PlaceOrder(ctx, order(line(hammer, 2), line(nails, 30)))
	require.NoError(t, err)
	require.NotZero(t, placed.ID)
	require.True(t, decimal.RequireFromString("28.00").Equal(placed.TotalPrice))
	require.Equal(t, placedAt, placed.OrderDate)
	require.Len(t, placed.Lines, 2)
	require.Equal(t, "Hammer", placed.Lines[0].ProductName)

	require.Equal(t, 8, f.stock(t, hammer))
	require.Equal(t, 970, f.stock(t, nails))
	require.ElementsMatch(t, []int64{hammer, nails}, f.cache.ids)

	stored, err := f.svc.GetOrder(ctx, types.OrderIdentifier{ID: placed.ID})
	require.NoError(t, err)
	require.True(t, placed.TotalPrice.Equal(stored.TotalPrice))
	require.Len(t, stored.Lines, 2)
}

func TestPlaceOrder_UnitPriceOnlyReportedAtPlacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hammer := f.product(t, "Hammer", "12.50", 10, 0)

	placed, err := f.svc.PlaceOrder(ctx, order(line(hammer, 2)))
	require.NoError(t, err)
	require.True(t, placed.Lines[0].UnitPrice.Valid)
	require.Equal(t, "12.50", placed.Lines[0].UnitPrice.Decimal.StringFixed(2))

	product, err := f.catalog.Products().GetByID(ctx, hammer)
	require.NoError(t, err)
	repriced := *product.Entity
	repriced.Price = decimal.RequireFromString("20.00")
	_, err = f.catalog.Products().Update(ctx, &repriced, product.Metadata.Version)
	require.NoError(t, err)

	stored, err := f.svc.GetOrder(ctx, types.OrderIdentifier{ID: placed.ID})
	require.NoError(t, err)
	require.False(t, stored.Lines[0].UnitPrice.Valid)
	require.Equal(t, "25.00", stored.TotalPrice.StringFixed(2))
}

func TestPlaceOrder_MergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", "2.00", 5, 0)

	placed, err := f.svc.PlaceOrder(context.Background(), order(line(widget, 2), line(widget, 3)))
	require.NoError(t, err)
	require.Len(t, placed.Lines, 1)
	require.Equal(t, 5, placed.Lines[0].Quantity)
	require.Equal(t, "10.00", placed.TotalPrice.StringFixed(2))
	require.Equal(t, 0, f.stock(t, widget))
}

func TestPlaceOrder_MergedDuplicatesCheckedAgainstCombinedQuantity(t *testing.T) {
	f := newFixture(t)
	widget := f.product(t, "Widget", "2.00", 4, 0)

	_, err := f.svc.PlaceOrder(context.Background(), order(line(widget, 2), line(widget, 3)))
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 4, insufficient.Available)
	require.Equal(t, 5, insufficient.Requested)
	require.Equal(t, 4, f.stock(t, widget))
}

func TestPlaceOrder_OverflowingDuplicateLinesAreRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 5, 0)

	_, err := f.svc.PlaceOrder(ctx, order(line(widget, math.MaxInt), line(widget, math.MaxInt), line(widget, 3)))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrQuantityTooLarge)

	_, err = f.svc.PlaceOrder(ctx, order(line(widget, math.MaxInt), line(widget, math.MaxInt)))
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Equal(t, 5, f.stock(t, widget))
	orders, err := f.orders.List(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPlaceOrder_TotalAboveStorableMaximumIsRejected(t *testing.T) {
	f := newFixture(t)
	safe := f.product(t, "Safe", "99999999.99", 500, 0)

	_, err := f.svc.PlaceOrder(context.Background(), order(line(safe, 200)))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrOrderTotalTooLarge)
	require.Equal(t, 500, f.stock(t, safe))
}

func TestCheckStock_RejectsNonPositiveQuantities(t *testing.T) {
	stock := map[int64]ports.StockItem{1: {StockAmount: 5}}
	require.ErrorIs(t, checkStock([]domain.Line{{ProductID: 1, Quantity: 0}}, stock), domain.ErrInvalidQuantity)
	require.ErrorIs(t, checkStock([]domain.Line{{ProductID: 1, Quantity: -4}}, stock), domain.ErrInvalidQuantity)
	require.NoError(t, checkStock([]domain.Line{{ProductID: 1, Quantity: 5}}, stock))
}

func TestPlaceOrder_ExhaustedStockRejectsNextOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 5, 0)

	_, err := f.svc.PlaceOrder(ctx, order(line(widget, 5)))
	require.NoError(t, err)
	require.Equal(t, 0, f.stock(t, widget))

	_, err = f.svc.PlaceOrder(ctx, order(line(widget, 1)))
	require.ErrorIs(t, err, ErrInvalidInput)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "Not enough stock for Widget: only 0 left", insufficient.Error())
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plenty := f.product(t, "Plenty", "1.00", 100, 0)
	scarce := f.product(t, "Scarce", "1.00", 1, 0)

	_, err := f.svc.PlaceOrder(ctx, order(line(plenty, 10), line(scarce, 2)))
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, scarce, insufficient.ProductID)

	require.Equal(t, 100, f.stock(t, plenty))
	require.Equal(t, 1, f.stock(t, scarce))
	orders, err := f.svc.ListOrders(ctx, types.ListOrdersInput{})
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Empty(t, f.notifier.events)
	require.Empty(t, f.cache.ids)
}

func TestPlaceOrder_UnknownProductNamesFirstMissingID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 5, 0)

	_, err := f.svc.PlaceOrder(ctx, order(line(widget, 1), line(99, 1), line(98, 1)))
	require.ErrorIs(t, err, ErrInvalidInput)
	var unknown *domain.UnknownProductError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, int64(99), unknown.ProductID)
	require.Contains(t, err.Error(), "Product with ID 99 not found.")
	require.Equal(t, 5, f.stock(t, widget))
}

func TestPlaceOrder_ValidatesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 5, 0)

	_, err := f.svc.PlaceOrder(ctx, order())
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrEmptyOrder)

	_, err = f.svc.PlaceOrder(ctx, order(line(widget, 0)))
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.PlaceOrder(ctx, types.PlaceOrderInput{UserName: "Ann", UserEmail: "nope", Lines: []types.LineInput{line(widget, 1)}})
	require.ErrorIs(t, err, domain.ErrInvalidUserEmail)
	require.Equal(t, 5, f.stock(t, widget))
}

func TestPlaceOrder_NotifierFailureIsLoggedNotReturned(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	widget := f.product(t, "Widget", "1.00", 5, 0)

	placed, err := f.svc.PlaceOrder(context.Background(), order(line(widget, 1)))
	require.NoError(t, err)
	require.NotNil(t, placed)
	require.Len(t, f.notifier.events, 1)
	require.Contains(t, f.logs.String(), "order notification failed")
	require.Contains(t, f.logs.String(), "broker down")
}

func TestPlaceOrder_EventReportsThresholdCrossings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	crossing := f.product(t, "Crossing", "1.00", 5, 3)
	alreadyLow := f.product(t, "AlreadyLow", "1.00", 2, 3)
	fine := f.product(t, "Fine", "1.00", 50, 3)

	_, err := f.svc.PlaceOrder(ctx, order(line(crossing, 3), line(alreadyLow, 1), line(fine, 1)))
	require.NoError(t, err)
	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	require.Equal(t, []int64{crossing}, event.LowStockProductIDs)
	require.Equal(t, "Ann", event.UserName)
	require.Len(t, event.Lines, 3)
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 10, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.PlaceOrder(ctx, order(line(widget, 1))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 10, succeeded)
	require.Equal(t, 0, f.stock(t, widget))
}

func TestDeleteOrder_KeepsStockAndUnblocksProductDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 5, 0)

	placed, err := f.svc.PlaceOrder(ctx, order(line(widget, 2)))
	require.NoError(t, err)

	referenced, err := f.orders.ReferencesProduct(ctx, widget)
	require.NoError(t, err)
	require.True(t, referenced)

	require.NoError(t, f.svc.DeleteOrder(ctx, types.OrderIdentifier{ID: placed.ID}))
	require.Equal(t, 3, f.stock(t, widget))

	_, err = f.svc.GetOrder(ctx, types.OrderIdentifier{ID: placed.ID})
	require.ErrorIs(t, err, ports.ErrNotFound)
	require.ErrorIs(t, f.svc.DeleteOrder(ctx, types.OrderIdentifier{ID: placed.ID}), ports.ErrNotFound)

	require.NoError(t, f.catalog.Products().Delete(ctx, widget))
}

func TestListOrders_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 50, 0)

	_, err := f.svc.PlaceOrder(ctx, order(line(widget, 1)))
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, types.PlaceOrderInput{UserName: "Bob", UserEmail: "bob@corp.test", Lines: []types.LineInput{line(widget, 1)}})
	require.NoError(t, err)

	all, err := f.svc.ListOrders(ctx, types.ListOrdersInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byName, err := f.svc.ListOrders(ctx, types.ListOrdersInput{Search: "bo"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "Bob", byName[0].UserName)

	byEmail, err := f.svc.ListOrders(ctx, types.ListOrdersInput{Email: "EXAMPLE.com"})
	require.NoError(t, err)
	require.Len(t, byEmail, 1)

	otherDay := placedAt.AddDate(0, 0, 1)
	none, err := f.svc.ListOrders(ctx, types.ListOrdersInput{OrderDate: &otherDay})
	require.NoError(t, err)
	require.Empty(t, none)
}

type failingLedger struct {
	ports.StockLedger
	err error
}

func (l failingLedger) Deduct(context.Context, int64, int, time.Time) error { return l.err }

func TestPlaceOrder_StorageFaultDuringDeductionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", "1.00", 5, 0)
	boom := errors.New("disk on fire")

	svc := NewService(f.orders, failingLedger{StockLedger: stockadapter.NewStockLedger(f.catalog.Products()), err: boom},
		WithTransactor(memtx.NewTransactor()))
	_, err := svc.PlaceOrder(ctx, order(line(widget, 1)))
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrInvalidInput)

	orders, err := f.orders.List(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	require.Empty(t, orders)
	referenced, err := f.orders.ReferencesProduct(ctx, widget)
	require.NoError(t, err)
	require.False(t, referenced)
}
