package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a stock-tracked component shared by composite menu items.
// Stock is only changed through services.Ledger.
type Ingredient struct {
	ID         uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name       string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	AddOnPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"add_on_price"`
	Stock      int             `gorm:"not null;default:0" json:"stock"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}

func (i Ingredient) InStock() bool {
	return i.Stock > 0
}
