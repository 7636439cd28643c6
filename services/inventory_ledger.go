package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/pizzeria-app/database"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// Demand is the number of units of one ingredient an operation needs.
type Demand struct {
	IngredientID uint `json:"ingredient_id"`
	Quantity     int  `json:"quantity"`
}

// AggregateDemand sums per-unit portions times line quantity for every
// composite line, merged per ingredient and ordered by ingredient id.
func AggregateDemand(lines []models.OrderLine) []Demand {
	totals := make(map[uint]int)
	for _, line := range lines {
		if line.Kind != models.KindComposite {
			continue
		}
		for _, p := range line.Portions {
			totals[p.IngredientID] += p.Quantity * line.Quantity
		}
	}
	return demandFromMap(totals)
}

func demandFromMap(totals map[uint]int) []Demand {
	out := make([]Demand, 0, len(totals))
	for id, qty := range totals {
		if qty == 0 {
			continue
		}
		out = append(out, Demand{IngredientID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out
}

// Ledger owns the stock counts of every ingredient. A single mutex guards
// all counts; batch consumption verifies, applies and persists while holding it.
type Ledger struct {
	mu    sync.Mutex
	store database.Collection[models.Ingredient]
	items map[uint]*models.Ingredient
	now   func() time.Time
}

// NewLedger loads the stored ingredients.
func NewLedger(ctx context.Context, store database.Collection[models.Ingredient]) (*Ledger, error) {
	l := &Ledger{
		store: store,
		items: make(map[uint]*models.Ingredient),
		now:   time.Now,
	}
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload replaces the in-memory counts with the stored ones.
func (l *Ledger) Reload(ctx context.Context) error {
	stored, err := l.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	items := make(map[uint]*models.Ingredient, len(stored))
	for i := range stored {
		ing := stored[i]
		items[ing.ID] = &ing
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()

	utils.InfoLogger.WithField("count", len(items)).Debug("ingredients loaded")
	return nil
}

// CheckAvailable reports whether the ingredient has at least qty units.
// Unknown ingredients are never available.
func (l *Ledger) CheckAvailable(id uint, qty int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	ing, ok := l.items[id]
	return ok && ing.Stock >= qty
}

// Consume removes qty units of one ingredient.
func (l *Ledger) Consume(ctx context.Context, id uint, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return l.ConsumeBatch(ctx, []Demand{{IngredientID: id, Quantity: qty}})
}

// Restock adds qty units to one ingredient.
func (l *Ledger) Restock(ctx context.Context, id uint, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return l.RestockBatch(ctx, []Demand{{IngredientID: id, Quantity: qty}})
}

// VerifyBatch checks every entry against current stock without reserving
// anything. It fails on the first short ingredient.
func (l *Ledger) VerifyBatch(demand []Demand) error {
	merged, err := mergeDemand(demand)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifyLocked(merged)
}

// ConsumeBatch removes every entry of demand or nothing at all. If the new
// counts cannot be persisted, the in-memory counts are restored.
func (l *Ledger) ConsumeBatch(ctx context.Context, demand []Demand) error {
	merged, err := mergeDemand(demand)
	if err != nil {
		return err
	}
	if len(merged) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.verifyLocked(merged); err != nil {
		return err
	}
	return l.applyLocked(ctx, merged, -1)
}

// RestockBatch adds every entry of demand or nothing at all.
func (l *Ledger) RestockBatch(ctx context.Context, demand []Demand) error {
	merged, err := mergeDemand(demand)
	if err != nil {
		return err
	}
	if len(merged) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, d := range merged {
		ing, ok := l.items[d.IngredientID]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrIngredientNotFound, d.IngredientID)
		}
		if ing.Stock > math.MaxInt-d.Quantity {
			return fmt.Errorf("%w: stock of %s would overflow", ErrInvalidQuantity, ing.Name)
		}
	}
	return l.applyLocked(ctx, merged, 1)
}

func (l *Ledger) verifyLocked(demand []Demand) error {
	for _, d := range demand {
		ing, ok := l.items[d.IngredientID]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrIngredientNotFound, d.IngredientID)
		}
		if ing.Stock < d.Quantity {
			return &InsufficientStockError{
				IngredientID: ing.ID,
				Ingredient:   ing.Name,
				Available:    ing.Stock,
				Requested:    d.Quantity,
			}
		}
	}
	return nil
}

// applyLocked moves every count by sign*quantity and persists. Caller holds l.mu
// and has already validated the batch.
func (l *Ledger) applyLocked(ctx context.Context, demand []Demand, sign int) error {
	previous := make(map[uint]models.Ingredient, len(demand))
	now := l.now()
	for _, d := range demand {
		ing := l.items[d.IngredientID]
		previous[ing.ID] = *ing
		ing.Stock += sign * d.Quantity
		ing.UpdatedAt = now
	}

	if err := l.persistLocked(ctx); err != nil {
		for id, ing := range previous {
			restored := ing
			l.items[id] = &restored
		}
		utils.ErrorLogger.WithError(err).Error("stock change rolled back")
		return err
	}

	for _, d := range demand {
		utils.InfoLogger.WithFields(logrus.Fields{
			"ingredient_id": d.IngredientID,
			"delta":         sign * d.Quantity,
			"stock":         l.items[d.IngredientID].Stock,
		}).Debug("stock changed")
	}
	return nil
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	return l.store.SaveAll(ctx, l.snapshotLocked())
}

func (l *Ledger) snapshotLocked() []models.Ingredient {
	out := make([]models.Ingredient, 0, len(l.items))
	for _, ing := range l.items {
		out = append(out, *ing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// mergeDemand folds duplicate ingredient entries so a batch is checked
// against its combined requirement.
func mergeDemand(demand []Demand) ([]Demand, error) {
	totals := make(map[uint]int, len(demand))
	for _, d := range demand {
		if d.Quantity < 0 || totals[d.IngredientID] > math.MaxInt-d.Quantity {
			return nil, ErrInvalidQuantity
		}
		totals[d.IngredientID] += d.Quantity
	}
	return demandFromMap(totals), nil
}

// Register adds a new ingredient. Names are unique regardless of case.
func (l *Ledger) Register(ctx context.Context, name string, addOnPrice decimal.Decimal, stock int) (models.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Ingredient{}, fmt.Errorf("%w: name is required", ErrInvalidIngredient)
	}
	if addOnPrice.IsNegative() {
		return models.Ingredient{}, fmt.Errorf("%w: add-on price must not be negative", ErrInvalidIngredient)
	}
	if stock < 0 {
		return models.Ingredient{}, ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.nameTakenLocked(name, 0) {
		return models.Ingredient{}, ErrDuplicateIngredient
	}

	id, err := l.store.NextID(ctx)
	if err != nil {
		return models.Ingredient{}, err
	}
	now := l.now()
	ing := &models.Ingredient{
		ID:         id,
		Name:       name,
		AddOnPrice: addOnPrice,
		Stock:      stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.items[id] = ing
	if err := l.persistLocked(ctx); err != nil {
		delete(l.items, id)
		return models.Ingredient{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"ingredient_id": id, "name": name}).Info("ingredient registered")
	return *ing, nil
}

// UpdateDetails changes the name and add-on price. Stock is untouched.
func (l *Ledger) UpdateDetails(ctx context.Context, id uint, name string, addOnPrice decimal.Decimal) (models.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" || addOnPrice.IsNegative() {
		return models.Ingredient{}, fmt.Errorf("%w: name is required and add-on price must not be negative", ErrInvalidIngredient)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ing, ok := l.items[id]
	if !ok {
		return models.Ingredient{}, ErrIngredientNotFound
	}
	if l.nameTakenLocked(name, id) {
		return models.Ingredient{}, ErrDuplicateIngredient
	}

	previous := *ing
	ing.Name = name
	ing.AddOnPrice = addOnPrice
	ing.UpdatedAt = l.now()
	if err := l.persistLocked(ctx); err != nil {
		*ing = previous
		return models.Ingredient{}, err
	}
	return *ing, nil
}

func (l *Ledger) nameTakenLocked(name string, except uint) bool {
	for _, ing := range l.items {
		if ing.ID != except && strings.EqualFold(ing.Name, name) {
			return true
		}
	}
	return false
}

func (l *Ledger) Get(id uint) (models.Ingredient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ing, ok := l.items[id]
	if !ok {
		return models.Ingredient{}, ErrIngredientNotFound
	}
	return *ing, nil
}

func (l *Ledger) List() []models.Ingredient {
	return l.filter(func(models.Ingredient) bool { return true })
}

// ListAvailable returns ingredients with stock left.
func (l *Ledger) ListAvailable() []models.Ingredient {
	return l.filter(func(i models.Ingredient) bool { return i.InStock() })
}

// ListOutOfStock returns ingredients whose stock is zero.
func (l *Ledger) ListOutOfStock() []models.Ingredient {
	return l.filter(func(i models.Ingredient) bool { return i.Stock == 0 })
}

// Search returns ingredients whose name contains name, ignoring case.
func (l *Ledger) Search(name string) []models.Ingredient {
	needle := strings.ToLower(strings.TrimSpace(name))
	return l.filter(func(i models.Ingredient) bool { return strings.Contains(strings.ToLower(i.Name), needle) })
}

// ListBelow returns ingredients whose stock is strictly below threshold.
func (l *Ledger) ListBelow(threshold int) []models.Ingredient {
	return l.filter(func(i models.Ingredient) bool { return i.Stock < threshold })
}

func (l *Ledger) filter(keep func(models.Ingredient) bool) []models.Ingredient {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Ingredient, 0)
	for _, ing := range l.snapshotLocked() {
		if keep(ing) {
			out = append(out, ing)
		}
	}
	return out
}

// AddOnPrices maps every ingredient id to its add-on price.
func (l *Ledger) AddOnPrices() map[uint]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[uint]decimal.Decimal, len(l.items))
	for id, ing := range l.items {
		out[id] = ing.AddOnPrice
	}
	return out
}
