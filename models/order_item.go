package models

import "github.com/shopspring/decimal"

// MaxLineQuantity caps the units of one item in an order, merged lines included.
const MaxLineQuantity = 1000

// OrderLine is a price snapshot of a menu item taken when it was added to an order.
type OrderLine struct {
	ItemID    uint            `json:"item_id"`
	Kind      ItemKind        `json:"kind"`
	Name      string          `json:"name"`
	Size      Size            `json:"size,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Portions  []Portion       `json:"portions,omitempty"`
}

func NewOrderLine(item MenuItem, quantity int, unitPrice decimal.Decimal) OrderLine {
	line := OrderLine{
		ItemID:    item.ID,
		Kind:      item.Kind,
		Name:      item.Name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
	if item.IsComposite() {
		line.Size = item.Size
		line.Portions = append([]Portion(nil), item.Portions...)
	}
	return line
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
