package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
	"gorm.io/gorm"
)

// IngredientSource is used by the catalog to check that portions point at
// known ingredients. *Ledger implements it.
type IngredientSource interface {
	Get(id uint) (models.Ingredient, error)
}

// Catalog is the gorm-backed menu. Items reference ingredients by id only.
type Catalog struct {
	DB          *gorm.DB
	Ingredients IngredientSource
}

func NewCatalog(db *gorm.DB, ingredients IngredientSource) *Catalog {
	return &Catalog{DB: db, Ingredients: ingredients}
}

// ResolveItem returns the menu item with the given id.
func (c *Catalog) ResolveItem(ctx context.Context, itemID uint) (models.MenuItem, error) {
	var item models.MenuItem
	if err := c.DB.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MenuItem{}, fmt.Errorf("%w: id %d", ErrItemNotFound, itemID)
		}
		return models.MenuItem{}, err
	}
	return item, nil
}

// IngredientsOf returns the per-unit portions of a composite item, and an
// empty list for simple items.
func (c *Catalog) IngredientsOf(ctx context.Context, itemID uint) ([]models.Portion, error) {
	item, err := c.ResolveItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsComposite() {
		return []models.Portion{}, nil
	}
	return append([]models.Portion{}, item.Portions...), nil
}

// List returns menu items ordered by id. A non-empty kind filters by kind and
// a non-empty name keeps items whose name contains it, ignoring case.
func (c *Catalog) List(ctx context.Context, kind models.ItemKind, name string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	q := c.DB.WithContext(ctx).Order("id")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if name = strings.TrimSpace(name); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Catalog) Create(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	item.ID = 0
	if err := c.validate(&item); err != nil {
		return models.MenuItem{}, err
	}
	if err := c.checkUnique(ctx, item); err != nil {
		return models.MenuItem{}, err
	}
	if err := c.DB.WithContext(ctx).Create(&item).Error; err != nil {
		return models.MenuItem{}, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"item_id": item.ID, "name": item.Name}).Info("menu item created")
	return item, nil
}

// Update replaces every editable field of an existing item. Orders keep the
// price snapshot they were created with.
func (c *Catalog) Update(ctx context.Context, itemID uint, item models.MenuItem) (models.MenuItem, error) {
	existing, err := c.ResolveItem(ctx, itemID)
	if err != nil {
		return models.MenuItem{}, err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	if err := c.validate(&item); err != nil {
		return models.MenuItem{}, err
	}
	if err := c.checkUnique(ctx, item); err != nil {
		return models.MenuItem{}, err
	}
	if err := c.DB.WithContext(ctx).Save(&item).Error; err != nil {
		return models.MenuItem{}, err
	}
	return item, nil
}

func (c *Catalog) Delete(ctx context.Context, itemID uint) error {
	res := c.DB.WithContext(ctx).Delete(&models.MenuItem{}, itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrItemNotFound, itemID)
	}
	return nil
}

// checkUnique rejects a second item with the same kind, size and name
// (case-insensitive). The same pizza may be listed once per size.
func (c *Catalog) checkUnique(ctx context.Context, item models.MenuItem) error {
	var count int64
	err := c.DB.WithContext(ctx).Model(&models.MenuItem{}).
		Where("kind = ? AND size = ? AND LOWER(name) = ? AND id <> ?", item.Kind, item.Size, strings.ToLower(item.Name), item.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateMenuItem, item.Name)
	}
	return nil
}

func (c *Catalog) validate(item *models.MenuItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMenuItem)
	}

	switch item.Kind {
	case models.KindComposite:
		size, ok := models.ParseSize(string(item.Size))
		if !ok {
			return fmt.Errorf("%w: size must be P, M or G", ErrInvalidMenuItem)
		}
		item.Size = size
		if item.BasePrice.IsNegative() {
			return fmt.Errorf("%w: base price must not be negative", ErrInvalidMenuItem)
		}
		seen := make(map[uint]bool, len(item.Portions))
		for _, p := range item.Portions {
			if p.Quantity <= 0 {
				return fmt.Errorf("%w: portion quantity must be greater than zero", ErrInvalidMenuItem)
			}
			if p.Quantity > models.MaxPortionQuantity {
				return fmt.Errorf("%w: portion quantity must be at most %d", ErrInvalidMenuItem, models.MaxPortionQuantity)
			}
			if seen[p.IngredientID] {
				return fmt.Errorf("%w: ingredient %d listed twice", ErrInvalidMenuItem, p.IngredientID)
			}
			seen[p.IngredientID] = true
			if c.Ingredients != nil {
				if _, err := c.Ingredients.Get(p.IngredientID); err != nil {
					return fmt.Errorf("%w: unknown ingredient %d", ErrInvalidMenuItem, p.IngredientID)
				}
			}
		}
		item.FixedPrice = decimal.Zero
		item.VolumeML = 0
	case models.KindSimple:
		if item.FixedPrice.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", ErrInvalidMenuItem)
		}
		if len(item.Portions) > 0 {
			return fmt.Errorf("%w: simple items have no ingredients", ErrInvalidMenuItem)
		}
		if item.VolumeML < 0 {
			return fmt.Errorf("%w: volume must not be negative", ErrInvalidMenuItem)
		}
		item.Size = ""
		item.Portions = nil
		item.BasePrice = decimal.Zero
	default:
		return fmt.Errorf("%w: kind must be composite or simple", ErrInvalidMenuItem)
	}
	return nil
}
