package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusInPreparation  OrderStatus = "IN_PREPARATION"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusConcluded      OrderStatus = "CONCLUDED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// transitions lists the legal targets of every status. Terminal statuses map
// to an empty list; nothing ever leads back to PENDING.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusInPreparation, StatusOutForDelivery, StatusConcluded, StatusCancelled},
	StatusInPreparation:  {StatusOutForDelivery, StatusConcluded, StatusCancelled},
	StatusOutForDelivery: {StatusConcluded},
	StatusConcluded:      {},
	StatusCancelled:      {},
}

// AllStatuses returns the statuses in lifecycle order.
func AllStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusInPreparation, StatusOutForDelivery, StatusConcluded, StatusCancelled}
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusConcluded || s == StatusCancelled
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ParseOrderStatus accepts "IN_PREPARATION", "in_preparation" or "in-preparation".
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !status.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CustomerID      uint            `gorm:"not null;index" json:"customer_id"`
	Lines           []OrderLine     `gorm:"serializer:json" json:"lines"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Delivery        bool            `json:"delivery"`
	DeliveryAddress *Address        `gorm:"serializer:json" json:"delivery_address,omitempty"`
	StockConsumed   bool            `json:"stock_consumed"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

// IsDelivery reports whether a delivery address is set and differs from the
// customer's home address. Anything else is a pickup order.
func IsDelivery(home Address, delivery *Address) bool {
	return delivery != nil && !delivery.IsZero() && !delivery.Equal(home)
}

// Recalculate sets Total to the sum of line subtotals.
func (o *Order) Recalculate() {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	o.Total = total
}

// AddLine merges the line into an existing line for the same item, or appends it.
// The unit price of an existing line is kept. It returns false, leaving the
// order untouched, when the quantity would fall outside 1..MaxLineQuantity.
func (o *Order) AddLine(line OrderLine) bool {
	if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
		return false
	}
	for i := range o.Lines {
		if o.Lines[i].ItemID == line.ItemID {
			if o.Lines[i].Quantity > MaxLineQuantity-line.Quantity {
				return false
			}
			o.Lines[i].Quantity += line.Quantity
			o.Recalculate()
			return true
		}
	}
	o.Lines = append(o.Lines, line)
	o.Recalculate()
	return true
}

// RemoveLine drops the line for itemID. It returns false when no such line exists.
func (o *Order) RemoveLine(itemID uint) bool {
	for i := range o.Lines {
		if o.Lines[i].ItemID == itemID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			o.Recalculate()
			return true
		}
	}
	return false
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusInPreparation
}

func (o *Order) CanBeModified() bool {
	return o.Status == StatusPending
}

func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (o Order) Clone() Order {
	c := o
	c.Lines = make([]OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		c.Lines[i] = l
		c.Lines[i].Portions = append([]Portion(nil), l.Portions...)
	}
	if o.DeliveryAddress != nil {
		addr := *o.DeliveryAddress
		c.DeliveryAddress = &addr
	}
	return c
}
