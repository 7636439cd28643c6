package models

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:        {StatusInPreparation, StatusOutForDelivery, StatusConcluded, StatusCancelled},
		StatusInPreparation:  {StatusOutForDelivery, StatusConcluded, StatusCancelled},
		StatusOutForDelivery: {StatusConcluded},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestNothingLeadsBackToPending(t *testing.T) {
	for _, from := range AllStatuses() {
		assert.False(t, CanTransition(from, StatusPending), from)
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("in-preparation")
	require.NoError(t, err)
	assert.Equal(t, StatusInPreparation, s)

	s, err = ParseOrderStatus(" concluded ")
	require.NoError(t, err)
	assert.Equal(t, StatusConcluded, s)

	_, err = ParseOrderStatus("DELIVERED")
	assert.Error(t, err)
}

func line(itemID uint, price string, qty int) OrderLine {
	return OrderLine{ItemID: itemID, Kind: KindSimple, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestOrderTotalFollowsLines(t *testing.T) {
	var o Order
	o.AddLine(line(1, "30.00", 2))
	o.AddLine(line(2, "5.50", 1))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("65.50")), o.Total.String())

	// same item merges and keeps the first unit price
	o.AddLine(line(1, "99.00", 1))
	require.Len(t, o.Lines, 2)
	assert.Equal(t, 3, o.Lines[0].Quantity)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("95.50")), o.Total.String())
	assert.Equal(t, 4, o.ItemCount())

	assert.True(t, o.RemoveLine(2))
	assert.False(t, o.RemoveLine(2))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("90.00")), o.Total.String())
}

func TestOrderGuards(t *testing.T) {
	o := Order{Status: StatusPending}
	assert.True(t, o.CanBeModified())
	assert.True(t, o.CanBeCancelled())

	o.Status = StatusInPreparation
	assert.False(t, o.CanBeModified())
	assert.True(t, o.CanBeCancelled())

	o.Status = StatusOutForDelivery
	assert.False(t, o.CanBeCancelled())
}

func TestIsDelivery(t *testing.T) {
	home := Address{Street: "Rua A", Number: "10", District: "Centro", City: "Recife", PostalCode: "50000-000"}

	assert.False(t, IsDelivery(home, nil))
	assert.False(t, IsDelivery(home, &Address{}))

	same := Address{Street: " rua a", Number: "10", District: "CENTRO", City: "Recife", PostalCode: "50000-000"}
	assert.False(t, IsDelivery(home, &same))

	other := home
	other.Number = "12"
	assert.True(t, IsDelivery(home, &other))
}

func TestCloneIsDeep(t *testing.T) {
	addr := Address{Street: "Rua B"}
	o := Order{
		Lines:           []OrderLine{{ItemID: 1, Quantity: 1, Portions: []Portion{{IngredientID: 7, Quantity: 2}}}},
		DeliveryAddress: &addr,
	}
	c := o.Clone()
	c.Lines[0].Quantity = 5
	c.Lines[0].Portions[0].Quantity = 9
	c.DeliveryAddress.Street = "Rua C"

	assert.Equal(t, 1, o.Lines[0].Quantity)
	assert.Equal(t, 2, o.Lines[0].Portions[0].Quantity)
	assert.Equal(t, "Rua B", o.DeliveryAddress.Street)
}

func TestAddLineKeepsQuantityInRange(t *testing.T) {
	var o Order
	require.True(t, o.AddLine(line(1, "6.00", 1)))

	assert.False(t, o.AddLine(line(1, "6.00", math.MaxInt)))
	assert.False(t, o.AddLine(line(1, "6.00", MaxLineQuantity)))
	assert.False(t, o.AddLine(line(2, "6.00", 0)))
	assert.False(t, o.AddLine(line(2, "6.00", -1)))
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 1, o.Lines[0].Quantity)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("6.00")), o.Total.String())

	assert.True(t, o.AddLine(line(1, "6.00", MaxLineQuantity-1)))
	assert.Equal(t, MaxLineQuantity, o.Lines[0].Quantity)
	assert.False(t, o.AddLine(line(1, "6.00", 1)))
	assert.False(t, o.Total.IsNegative())
}

func TestAddressString(t *testing.T) {
	addr := Address{Street: "Rua A", Number: "10", District: "Centro", City: "Recife", PostalCode: "50000-000"}
	assert.Equal(t, "Rua A, 10 - Centro, Recife - 50000-000", addr.String())
}
