package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PricingPolicy selects how composite items are priced.
type PricingPolicy string

const (
	// PricingBaseTimesSize ignores ingredient cost: base price x size multiplier.
	PricingBaseTimesSize PricingPolicy = "base"
	// PricingWithAddOns adds each portion's add-on price to the base before the multiplier.
	PricingWithAddOns PricingPolicy = "addons"
)

func ParsePricingPolicy(s string) (PricingPolicy, error) {
	switch PricingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PricingBaseTimesSize:
		return PricingBaseTimesSize, nil
	case PricingWithAddOns:
		return PricingWithAddOns, nil
	}
	return "", fmt.Errorf("unknown pricing policy %q", s)
}

// Price computes the unit price of a menu item. addOns maps ingredient id to
// its add-on price and is only read under PricingWithAddOns.
func Price(item MenuItem, policy PricingPolicy, addOns map[uint]decimal.Decimal) decimal.Decimal {
	switch item.Kind {
	case KindSimple:
		return item.FixedPrice
	case KindComposite:
		base := item.BasePrice
		if policy == PricingWithAddOns {
			for _, p := range item.Portions {
				base = base.Add(addOns[p.IngredientID].Mul(decimal.NewFromInt(int64(p.Quantity))))
			}
		}
		mult, ok := item.Size.Multiplier()
		if !ok {
			mult = decimal.NewFromInt(1)
		}
		return base.Mul(mult).Round(2)
	}
	return decimal.Zero
}
