package todo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no item has the requested id.
var ErrNotFound = errors.New("to-do item not found")

// Repository stores to-do items. Returned items are copies owned by the
// caller.
type Repository interface {
	// List returns all items ordered by due date, undated last, then by
	// description.
	List(ctx context.Context) ([]*Item, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	// Save inserts or updates items atomically. Items without an id are
	// assigned one.
	Save(ctx context.Context, items ...*Item) error
	// Reset removes every item.
	Reset(ctx context.Context) error
}

// MemoryStore is a Repository kept in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Item
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]*Item)}
}

func (m *MemoryStore) List(ctx context.Context) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*Item, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it.clone())
	}
	sortItems(items)
	return items, nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return it.clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, items ...*Item) error {
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		m.items[it.ID] = it.clone()
	}
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[uuid.UUID]*Item)
	return nil
}

func sortItems(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.DueBy.IsZero() != b.DueBy.IsZero() {
			return b.DueBy.IsZero()
		}
		if !a.DueBy.Equal(b.DueBy) {
			return a.DueBy.Before(b.DueBy)
		}
		return a.Description < b.Description
	})
}
