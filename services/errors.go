package services

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/pizzeria-app/models"
)

var (
	ErrItemNotFound        = errors.New("menu item not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrIngredientNotFound  = errors.New("ingredient not found")
	ErrLineNotFound        = errors.New("order has no line for this item")
	ErrDuplicateIngredient = errors.New("an ingredient with this name already exists")
	ErrDuplicateCustomer   = errors.New("a customer with this phone already exists")
	ErrDuplicateMenuItem   = errors.New("a menu item with this name and size already exists")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrEmptyOrder          = errors.New("order must contain at least one item")
	ErrInvalidMenuItem     = errors.New("invalid menu item")
	ErrInvalidIngredient   = errors.New("invalid ingredient")
	ErrInvalidCustomer     = errors.New("invalid customer")
)

// InsufficientStockError reports the first ingredient that could not cover a demand.
type InsufficientStockError struct {
	IngredientID uint
	Ingredient   string
	Available    int
	Requested    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.Ingredient, e.Available, e.Requested)
}

// InvalidOrderStateError is returned when an operation is not allowed in the
// order's current status, e.g. any transition out of a terminal status.
// To is the attempted status for transitions and empty for edits.
type InvalidOrderStateError struct {
	OrderID uint
	Status  models.OrderStatus
	To      models.OrderStatus
	Op      string
}

func (e *InvalidOrderStateError) Error() string {
	return fmt.Sprintf("order %d is %s and cannot %s", e.OrderID, e.Status, e.Op)
}

// IllegalTransitionError is returned for a status pair missing from the
// transition table, including every move back to PENDING.
type IllegalTransitionError struct {
	OrderID uint
	From    models.OrderStatus
	To      models.OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("order %d: illegal transition %s -> %s", e.OrderID, e.From, e.To)
}
