package database

import (
	"context"
	"sync"
)

// MemoryCollection is a process-local Collection, used with STORE=memory and in tests.
type MemoryCollection[T any] struct {
	mu     sync.Mutex
	name   string
	items  []T
	lastID uint
}

func NewMemoryCollection[T any](name string) *MemoryCollection[T] {
	return &MemoryCollection[T]{name: name, items: make([]T, 0)}
}

func (m *MemoryCollection[T]) Name() string {
	return m.name
}

func (m *MemoryCollection[T]) LoadAll(ctx context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(make([]T, 0, len(m.items)), m.items...), nil
}

func (m *MemoryCollection[T]) SaveAll(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return storageErr("save", m.name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(make([]T, 0, len(items)), items...)
	return nil
}

func (m *MemoryCollection[T]) NextID(ctx context.Context) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastID++
	return m.lastID, nil
}
