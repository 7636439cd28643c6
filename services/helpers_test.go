package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/models"
)

type fakeCatalog struct {
	mu    sync.Mutex
	items map[uint]models.MenuItem
}

func newFakeCatalog(items ...models.MenuItem) *fakeCatalog {
	c := &fakeCatalog{items: make(map[uint]models.MenuItem)}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func (c *fakeCatalog) put(item models.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
}

func (c *fakeCatalog) ResolveItem(_ context.Context, id uint) (models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return models.MenuItem{}, fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	return it, nil
}

func (c *fakeCatalog) IngredientsOf(ctx context.Context, id uint) ([]models.Portion, error) {
	it, err := c.ResolveItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return append([]models.Portion{}, it.Portions...), nil
}

type fakeCustomers map[uint]models.Customer

func (f fakeCustomers) ResolveCustomer(_ context.Context, id uint) (models.Customer, error) {
	c, ok := f[id]
	if !ok {
		return models.Customer{}, ErrCustomerNotFound
	}
	return c, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	orders   []models.Order
	lowStock [][]models.Ingredient
	stats    []OrderStats
}

func (n *recordingNotifier) OrderUpdated(o models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o)
}

func (n *recordingNotifier) LowStock(items []models.Ingredient) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lowStock = append(n.lowStock, items)
}

func (n *recordingNotifier) DashboardUpdate(stats interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if st, ok := stats.(OrderStats); ok {
		n.stats = append(n.stats, st)
	}
}

func (n *recordingNotifier) lastStats() (OrderStats, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stats) == 0 {
		return OrderStats{}, false
	}
	return n.stats[len(n.stats)-1], true
}

func (n *recordingNotifier) lowStockCalls() [][]models.Ingredient {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]models.Ingredient(nil), n.lowStock...)
}

// flakyCollection wraps a Collection and fails SaveAll while failing is set.
type flakyCollection[T any] struct {
	database.Collection[T]
	failing atomic.Bool
}

func (f *flakyCollection[T]) SaveAll(ctx context.Context, items []T) error {
	if f.failing.Load() {
		return &database.StorageError{Op: "save", Collection: f.Name(), Err: errors.New("disk full")}
	}
	return f.Collection.SaveAll(ctx, items)
}

var (
	homeAddress = models.Address{Street: "Rua das Flores", Number: "100", District: "Centro", City: "Recife", PostalCode: "50000-000"}
	testDay     = time.Date(2024, 3, 15, 19, 30, 0, 0, time.UTC)
)

type fixture struct {
	ledger       *Ledger
	service      *OrderService
	catalog      *fakeCatalog
	notifier     *recordingNotifier
	orderStore   *flakyCollection[models.Order]
	stockStore   *flakyCollection[models.Ingredient]
	now          time.Time
	ingredientID map[string]uint
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newFixture registers the given ingredient stock and builds a service around
// memory collections.
func newFixture(t *testing.T, opts OrderOptions, stock map[string]int) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		catalog:      newFakeCatalog(),
		notifier:     &recordingNotifier{},
		orderStore:   &flakyCollection[models.Order]{Collection: database.NewMemoryCollection[models.Order](database.OrdersCollection)},
		stockStore:   &flakyCollection[models.Ingredient]{Collection: database.NewMemoryCollection[models.Ingredient](database.IngredientsCollection)},
		now:          testDay,
		ingredientID: make(map[string]uint),
	}

	var err error
	f.ledger, err = NewLedger(ctx, f.stockStore)
	require.NoError(t, err)
	for name, qty := range stock {
		ing, err := f.ledger.Register(ctx, name, dec("2.00"), qty)
		require.NoError(t, err)
		f.ingredientID[name] = ing.ID
	}

	if opts.Notifier == nil {
		opts.Notifier = f.notifier
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return f.now }
	}
	customers := fakeCustomers{1: {ID: 1, Name: "Ana", Phone: "81 99999-0000", Address: homeAddress}}
	f.service, err = NewOrderService(ctx, f.orderStore, f.ledger, f.catalog, customers, opts)
	require.NoError(t, err)
	return f
}

// pizza adds a composite menu item needing perUnit units of each named ingredient.
func (f *fixture) pizza(id uint, base string, perUnit map[string]int) models.MenuItem {
	item := models.MenuItem{ID: id, Kind: models.KindComposite, Name: fmt.Sprintf("Pizza %d", id), BasePrice: dec(base), Size: models.SizeSmall}
	for name, qty := range perUnit {
		item.Portions = append(item.Portions, models.Portion{IngredientID: f.ingredientID[name], Quantity: qty})
	}
	f.catalog.put(item)
	return item
}

func (f *fixture) soda(id uint, price string) models.MenuItem {
	item := models.MenuItem{ID: id, Kind: models.KindSimple, Name: "Soda", FixedPrice: dec(price), VolumeML: 350}
	f.catalog.put(item)
	return item
}

func (f *fixture) stockOf(t *testing.T, name string) int {
	t.Helper()
	ing, err := f.ledger.Get(f.ingredientID[name])
	require.NoError(t, err)
	return ing.Stock
}

func (f *fixture) order(t *testing.T, lines ...LineRequest) models.Order {
	t.Helper()
	o, err := f.service.CreateOrder(context.Background(), CreateOrderInput{CustomerID: 1, Lines: lines})
	require.NoError(t, err)
	return o
}
