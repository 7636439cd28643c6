package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	KindComposite ItemKind = "composite" // pizza-like, consumes ingredients
	KindSimple    ItemKind = "simple"    // beverage-like, fixed price
)

// Size is the pizza size code used on the menu.
type Size string

const (
	SizeSmall  Size = "P"
	SizeMedium Size = "M"
	SizeLarge  Size = "G"
)

var sizeMultipliers = map[Size]decimal.Decimal{
	SizeSmall:  decimal.NewFromInt(1),
	SizeMedium: decimal.RequireFromString("1.5"),
	SizeLarge:  decimal.NewFromInt(2),
}

// Multiplier returns the price multiplier for the size.
func (s Size) Multiplier() (decimal.Decimal, bool) {
	m, ok := sizeMultipliers[s]
	return m, ok
}

func (s Size) Valid() bool {
	_, ok := sizeMultipliers[s]
	return ok
}

// ParseSize accepts the size code in any case ("p", "M", ...).
func ParseSize(code string) (Size, bool) {
	s := Size(strings.ToUpper(strings.TrimSpace(code)))
	return s, s.Valid()
}

// MaxPortionQuantity caps the units of one ingredient a single item may need.
const MaxPortionQuantity = 1000

// Portion is a non-owning reference to an ingredient and the units one item needs.
type Portion struct {
	IngredientID uint `json:"ingredient_id"`
	Quantity     int  `json:"quantity"`
}

// MenuItem is a tagged union over composite and simple items; Kind selects
// which price fields are meaningful.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Kind        ItemKind        `gorm:"type:varchar(20);not null;index" json:"kind"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"base_price"`
	Size        Size            `gorm:"type:varchar(2)" json:"size,omitempty"`
	Portions    []Portion       `gorm:"serializer:json" json:"portions,omitempty"`
	FixedPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"fixed_price"`
	VolumeML    int             `json:"volume_ml,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (m MenuItem) IsComposite() bool {
	return m.Kind == KindComposite
}
