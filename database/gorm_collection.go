package database

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// Sequence persists the last identifier handed out for a collection.
type Sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(64)"`
	Value uint   `gorm:"not null;default:0"`
}

// GormCollection stores T in its gorm table. T must have an integer "id" column.
type GormCollection[T any] struct {
	db   *gorm.DB
	name string
	seq  sync.Mutex
}

func NewGormCollection[T any](db *gorm.DB, name string) *GormCollection[T] {
	return &GormCollection[T]{db: db, name: name}
}

func (g *GormCollection[T]) Name() string {
	return g.name
}

func (g *GormCollection[T]) LoadAll(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	if err := g.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, storageErr("load", g.name, err)
	}
	return items, nil
}

// SaveAll replaces the table contents inside a single transaction, so a
// failed save leaves the previous set intact.
func (g *GormCollection[T]) SaveAll(ctx context.Context, items []T) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(new(T)).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.CreateInBatches(items, 100).Error
	})
	return storageErr("save", g.name, err)
}

// NextID bumps the collection's row in the sequences table. The first call
// seeds the sequence from the highest id already stored.
func (g *GormCollection[T]) NextID(ctx context.Context) (uint, error) {
	g.seq.Lock()
	defer g.seq.Unlock()

	var next uint
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq Sequence
		err := tx.Where("name = ?", g.name).First(&seq).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxID uint
			if err := tx.Model(new(T)).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
				return err
			}
			seq = Sequence{Name: g.name, Value: maxID}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		next = seq.Value + 1
		return tx.Model(&Sequence{}).Where("name = ?", g.name).Update("value", next).Error
	})
	if err != nil {
		return 0, storageErr("next id", g.name, err)
	}
	return next, nil
}
