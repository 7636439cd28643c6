package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// CatalogLookup resolves menu items for order lines.
type CatalogLookup interface {
	ResolveItem(ctx context.Context, itemID uint) (models.MenuItem, error)
	IngredientsOf(ctx context.Context, itemID uint) ([]models.Portion, error)
}

// CustomerResolver resolves the customer an order is placed for.
type CustomerResolver interface {
	ResolveCustomer(ctx context.Context, id uint) (models.Customer, error)
}

// Notifier is told about order and stock events. The kitchen display hub implements it.
type Notifier interface {
	OrderUpdated(order models.Order)
	LowStock(items []models.Ingredient)
	DashboardUpdate(stats interface{})
}

type nopNotifier struct{}

func (nopNotifier) OrderUpdated(models.Order)     {}
func (nopNotifier) LowStock([]models.Ingredient) {}
func (nopNotifier) DashboardUpdate(interface{})   {}

type OrderOptions struct {
	Pricing models.PricingPolicy
	// RestockOnCancel returns consumed ingredients to stock when an order is cancelled.
	RestockOnCancel bool
	Notifier        Notifier
	Now             func() time.Time
}

type LineRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

type CreateOrderInput struct {
	CustomerID      uint            `json:"customer_id" binding:"required"`
	Lines           []LineRequest   `json:"items"`
	DeliveryAddress *models.Address `json:"delivery_address"`
}

// OrderService drives the order lifecycle and keeps stock in step with it.
type OrderService struct {
	store     database.Collection[models.Order]
	ledger    *Ledger
	catalog   CatalogLookup
	customers CustomerResolver
	opts      OrderOptions

	mu     sync.RWMutex
	orders map[uint]models.Order

	locksMu sync.Mutex
	locks   map[uint]*sync.Mutex

	persistMu sync.Mutex
}

// NewOrderService loads the stored orders.
func NewOrderService(ctx context.Context, store database.Collection[models.Order], ledger *Ledger,
	catalog CatalogLookup, customers CustomerResolver, opts OrderOptions) (*OrderService, error) {
	if opts.Pricing == "" {
		opts.Pricing = models.PricingBaseTimesSize
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	stored, err := store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	orders := make(map[uint]models.Order, len(stored))
	for _, o := range stored {
		orders[o.ID] = o
	}

	return &OrderService{
		store:     store,
		ledger:    ledger,
		catalog:   catalog,
		customers: customers,
		opts:      opts,
		orders:    orders,
		locks:     make(map[uint]*sync.Mutex),
	}, nil
}

// CreateOrder prices the requested lines and stores a PENDING order. Stock is
// checked but not consumed; any shortage rejects the whole order.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (models.Order, error) {
	if len(in.Lines) == 0 {
		return models.Order{}, ErrEmptyOrder
	}
	customer, err := s.customers.ResolveCustomer(ctx, in.CustomerID)
	if err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		CustomerID: customer.ID,
		Status:     models.StatusPending,
		Lines:      make([]models.OrderLine, 0, len(in.Lines)),
	}
	for _, req := range in.Lines {
		line, err := s.buildLine(ctx, req)
		if err != nil {
			return models.Order{}, err
		}
		if !order.AddLine(line) {
			return models.Order{}, lineLimitErr(req.ItemID)
		}
	}

	if models.IsDelivery(customer.Address, in.DeliveryAddress) {
		addr := *in.DeliveryAddress
		order.Delivery = true
		order.DeliveryAddress = &addr
	}

	if err := s.ledger.VerifyBatch(AggregateDemand(order.Lines)); err != nil {
		return models.Order{}, err
	}

	id, err := s.store.NextID(ctx)
	if err != nil {
		return models.Order{}, err
	}
	now := s.opts.Now()
	order.ID = id
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.commit(ctx, order); err != nil {
		return models.Order{}, err
	}

	fields := logrus.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total":       order.Total.StringFixed(2),
		"delivery":    order.Delivery,
	}
	if order.Delivery {
		fields["deliver_to"] = order.DeliveryAddress.String()
	}
	utils.InfoLogger.WithFields(fields).Info("order created")
	s.opts.Notifier.OrderUpdated(order.Clone())
	s.opts.Notifier.DashboardUpdate(s.Stats())
	return order.Clone(), nil
}

func lineLimitErr(itemID uint) error {
	return fmt.Errorf("%w: item %d must total between 1 and %d units", ErrInvalidQuantity, itemID, models.MaxLineQuantity)
}

func (s *OrderService) buildLine(ctx context.Context, req LineRequest) (models.OrderLine, error) {
	if req.Quantity <= 0 || req.Quantity > models.MaxLineQuantity {
		return models.OrderLine{}, lineLimitErr(req.ItemID)
	}
	item, err := s.catalog.ResolveItem(ctx, req.ItemID)
	if err != nil {
		return models.OrderLine{}, err
	}
	if item.IsComposite() {
		portions, err := s.catalog.IngredientsOf(ctx, item.ID)
		if err != nil {
			return models.OrderLine{}, err
		}
		item.Portions = portions
	}
	price := models.Price(item, s.opts.Pricing, s.ledger.AddOnPrices())
	return models.NewOrderLine(item, req.Quantity, price), nil
}

// AdvanceStatus moves an order to newStatus. The first move out of PENDING
// into any status but CANCELLED consumes the order's ingredients; if any
// ingredient is short the order stays PENDING.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uint, newStatus models.OrderStatus) (models.Order, error) {
	lock := s.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	current, ok := s.lookup(orderID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if current.Status.IsTerminal() {
		return models.Order{}, &InvalidOrderStateError{OrderID: orderID, Status: current.Status, To: newStatus, Op: "change status to " + string(newStatus)}
	}
	if !models.CanTransition(current.Status, newStatus) {
		return models.Order{}, &IllegalTransitionError{OrderID: orderID, From: current.Status, To: newStatus}
	}

	next := current.Clone()
	var consumed, restocked []Demand

	if current.Status == models.StatusPending && newStatus != models.StatusCancelled && !current.StockConsumed {
		demand := AggregateDemand(current.Lines)
		if err := s.ledger.ConsumeBatch(ctx, demand); err != nil {
			return models.Order{}, err
		}
		consumed = demand
		next.StockConsumed = true
	}
	if newStatus == models.StatusCancelled && s.opts.RestockOnCancel && current.StockConsumed {
		demand := AggregateDemand(current.Lines)
		if err := s.ledger.RestockBatch(ctx, demand); err != nil {
			return models.Order{}, err
		}
		restocked = demand
		next.StockConsumed = false
	}

	next.Status = newStatus
	next.UpdatedAt = s.opts.Now()

	if err := s.commit(ctx, next); err != nil {
		s.compensate(ctx, orderID, consumed, restocked)
		return models.Order{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     current.Status,
		"to":       newStatus,
	}).Info("order status changed")
	s.opts.Notifier.OrderUpdated(next.Clone())
	s.opts.Notifier.DashboardUpdate(s.Stats())
	s.notifyLowStock(consumed)
	return next.Clone(), nil
}

// compensate undoes the stock side of a transition whose order could not be saved.
func (s *OrderService) compensate(ctx context.Context, orderID uint, consumed, restocked []Demand) {
	ctx = context.WithoutCancel(ctx)
	log := utils.ErrorLogger.WithField("order_id", orderID)
	if len(consumed) > 0 {
		if err := s.ledger.RestockBatch(ctx, consumed); err != nil {
			log.WithError(err).Error("failed to return consumed stock after order save failure")
		}
	}
	if len(restocked) > 0 {
		if err := s.ledger.ConsumeBatch(ctx, restocked); err != nil {
			log.WithError(err).Error("failed to take back restocked stock after order save failure")
		}
	}
}

func (s *OrderService) notifyLowStock(consumed []Demand) {
	if len(consumed) == 0 {
		return
	}
	var empty []models.Ingredient
	for _, d := range consumed {
		if ing, err := s.ledger.Get(d.IngredientID); err == nil && !ing.InStock() {
			empty = append(empty, ing)
		}
	}
	if len(empty) > 0 {
		s.opts.Notifier.LowStock(empty)
	}
}

// CancelOrder moves the order to CANCELLED.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (models.Order, error) {
	return s.AdvanceStatus(ctx, orderID, models.StatusCancelled)
}

// AddLine adds an item to a PENDING order, merging with an existing line for
// the same item. The whole order must still be coverable by current stock.
func (s *OrderService) AddLine(ctx context.Context, orderID uint, req LineRequest) (models.Order, error) {
	return s.modify(ctx, orderID, "add items", func(next *models.Order) error {
		line, err := s.buildLine(ctx, req)
		if err != nil {
			return err
		}
		if !next.AddLine(line) {
			return lineLimitErr(req.ItemID)
		}
		return s.ledger.VerifyBatch(AggregateDemand(next.Lines))
	})
}

// RemoveLine drops the line for itemID from a PENDING order.
func (s *OrderService) RemoveLine(ctx context.Context, orderID, itemID uint) (models.Order, error) {
	return s.modify(ctx, orderID, "remove items", func(next *models.Order) error {
		if !next.RemoveLine(itemID) {
			return fmt.Errorf("%w: item %d", ErrLineNotFound, itemID)
		}
		return nil
	})
}

// RepriceOrder recomputes every unit price of a PENDING order from the current catalog.
func (s *OrderService) RepriceOrder(ctx context.Context, orderID uint) (models.Order, error) {
	return s.modify(ctx, orderID, "be repriced", func(next *models.Order) error {
		for i, line := range next.Lines {
			fresh, err := s.buildLine(ctx, LineRequest{ItemID: line.ItemID, Quantity: line.Quantity})
			if err != nil {
				return err
			}
			next.Lines[i] = fresh
		}
		next.Recalculate()
		return nil
	})
}

func (s *OrderService) modify(ctx context.Context, orderID uint, op string, apply func(next *models.Order) error) (models.Order, error) {
	lock := s.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	current, ok := s.lookup(orderID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if !current.CanBeModified() {
		return models.Order{}, &InvalidOrderStateError{OrderID: orderID, Status: current.Status, Op: op}
	}

	next := current.Clone()
	if err := apply(&next); err != nil {
		return models.Order{}, err
	}
	next.UpdatedAt = s.opts.Now()
	if err := s.commit(ctx, next); err != nil {
		return models.Order{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"order_id": orderID, "total": next.Total.StringFixed(2)}).Info("order updated")
	s.opts.Notifier.OrderUpdated(next.Clone())
	return next.Clone(), nil
}

// commit saves the full order set with next in place and only then publishes
// next in memory. Saves are serialised so a slower snapshot never overwrites a newer one.
func (s *OrderService) commit(ctx context.Context, next models.Order) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	snapshot := make([]models.Order, 0, len(s.orders)+1)
	for id, o := range s.orders {
		if id != next.ID {
			snapshot = append(snapshot, o)
		}
	}
	s.mu.RUnlock()
	snapshot = append(snapshot, next)
	sortOrders(snapshot)

	if err := s.store.SaveAll(ctx, snapshot); err != nil {
		utils.ErrorLogger.WithError(err).WithField("order_id", next.ID).Error("failed to persist orders")
		return err
	}

	s.mu.Lock()
	s.orders[next.ID] = next
	s.mu.Unlock()
	return nil
}

func (s *OrderService) orderLock(id uint) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *OrderService) lookup(id uint) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *OrderService) Get(orderID uint) (models.Order, error) {
	o, ok := s.lookup(orderID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	return o.Clone(), nil
}

// List returns every order ordered by id.
func (s *OrderService) List() []models.Order {
	return s.filter(func(models.Order) bool { return true })
}

func (s *OrderService) ListByStatus(status models.OrderStatus) []models.Order {
	return s.filter(func(o models.Order) bool { return o.Status == status })
}

func (s *OrderService) ListByCustomer(customerID uint) []models.Order {
	return s.filter(func(o models.Order) bool { return o.CustomerID == customerID })
}

// ListToday returns the orders created on the current calendar day.
func (s *OrderService) ListToday() []models.Order {
	now := s.opts.Now()
	return s.filter(func(o models.Order) bool { return sameDay(o.CreatedAt, now) })
}

// RevenueToday sums the totals of today's concluded orders.
func (s *OrderService) RevenueToday() decimal.Decimal {
	return sumTotals(s.ListToday(), models.StatusConcluded)
}

// RevenueTotal sums the totals of every concluded order.
func (s *OrderService) RevenueTotal() decimal.Decimal {
	return sumTotals(s.List(), models.StatusConcluded)
}

type OrderStats struct {
	Total        int                        `json:"total"`
	ByStatus     map[models.OrderStatus]int `json:"by_status"`
	Today        int                        `json:"today"`
	RevenueToday decimal.Decimal            `json:"revenue_today"`
	RevenueTotal decimal.Decimal            `json:"revenue_total"`
}

// Summary renders the stats as a single line for logs and dashboards.
func (st OrderStats) Summary() string {
	return fmt.Sprintf("Orders: %d total, %d pending, %d in preparation, %d out for delivery, %d concluded, %d cancelled. Revenue today: %s",
		st.Total,
		st.ByStatus[models.StatusPending],
		st.ByStatus[models.StatusInPreparation],
		st.ByStatus[models.StatusOutForDelivery],
		st.ByStatus[models.StatusConcluded],
		st.ByStatus[models.StatusCancelled],
		utils.FormatCurrencyBRL(st.RevenueToday))
}

func (s *OrderService) Stats() OrderStats {
	all := s.List()
	now := s.opts.Now()
	stats := OrderStats{
		Total:        len(all),
		ByStatus:     make(map[models.OrderStatus]int, len(models.AllStatuses())),
		RevenueToday: decimal.Zero,
		RevenueTotal: decimal.Zero,
	}
	for _, st := range models.AllStatuses() {
		stats.ByStatus[st] = 0
	}
	for _, o := range all {
		stats.ByStatus[o.Status]++
		today := sameDay(o.CreatedAt, now)
		if today {
			stats.Today++
		}
		if o.Status == models.StatusConcluded {
			stats.RevenueTotal = stats.RevenueTotal.Add(o.Total)
			if today {
				stats.RevenueToday = stats.RevenueToday.Add(o.Total)
			}
		}
	}
	return stats
}

func (s *OrderService) filter(keep func(models.Order) bool) []models.Order {
	s.mu.RLock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	s.mu.RUnlock()
	sortOrders(out)
	return out
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
}

func sumTotals(orders []models.Order, status models.OrderStatus) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Status == status {
			total = total.Add(o.Total)
		}
	}
	return total
}

func sameDay(t, now time.Time) bool {
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
