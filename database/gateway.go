package database

import (
	"context"
	"fmt"
)

// Collection names used by the engine.
const (
	OrdersCollection      = "orders"
	IngredientsCollection = "ingredients"
)

// Collection is the persistence gateway for one named set of records. The
// engine loads the whole set at startup and saves the whole set after each
// mutating operation; no transaction is kept open in between.
type Collection[T any] interface {
	Name() string
	// LoadAll returns every stored record. A collection that was never
	// written returns an empty slice, not an error.
	LoadAll(ctx context.Context) ([]T, error)
	// SaveAll replaces the stored set with items.
	SaveAll(ctx context.Context, items []T) error
	// NextID allocates a new identifier for the collection. Identifiers are
	// monotonic and never reused.
	NextID(ctx context.Context) (uint, error)
}

// StorageError wraps any I/O failure raised by a Collection.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Collection: collection, Err: err}
}
