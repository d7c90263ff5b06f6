package cart

import (
	"context"
	"strings"
	"sync"
)

// Persister is the write side of a Store.
type Persister interface {
	Save(ctx context.Context, c Cart) error
}

// Repository is the in-memory cart of one owner. Every mutation persists the full
// cart before it becomes visible; a failed save leaves the repository unchanged.
type Repository struct {
	mu    sync.Mutex
	store Persister
	items Cart
}

// NewRepository wraps an already loaded cart.
func NewRepository(store Persister, items Cart) *Repository {
	return &Repository{store: store, items: items.Clone()}
}

// OpenRepository loads the cart from the store.
func OpenRepository(ctx context.Context, store *Store) *Repository {
	return NewRepository(store, store.Load(ctx))
}

// ReadOnly wraps items in a repository whose mutations all fail with
// ErrSlotUnavailable. It stands in when the slot cannot be read.
func ReadOnly(items Cart) *Repository {
	return NewRepository(unavailable{}, items)
}

type unavailable struct{}

func (unavailable) Save(context.Context, Cart) error { return ErrSlotUnavailable }

// FindIndex returns the index of the item with the given id, or -1.
func (r *Repository) FindIndex(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.IndexOf(id)
}

// Get returns the item with the given id.
func (r *Repository) Get(id string) (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := r.items.IndexOf(id); idx >= 0 {
		return r.items[idx], true
	}
	return Item{}, false
}

// At returns the item at a position.
func (r *Repository) At(index int) (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.items) {
		return Item{}, false
	}
	return r.items[index], true
}

// Items returns a copy of the cart in insertion order.
func (r *Repository) Items() Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.Clone()
}

// Len returns the number of distinct items.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// TotalQuantity sums qty across all items.
func (r *Repository) TotalQuantity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.TotalQuantity()
}

// UpsertIncrement adds one unit of id, inserting it with meta when absent.
func (r *Repository) UpsertIncrement(ctx context.Context, id string, meta Metadata) (Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Item{}, ErrInvalidIdentity
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.items.Clone()
	idx := next.IndexOf(id)
	if idx >= 0 {
		next[idx].Qty++
	} else {
		next = append(next, newItem(id, meta))
		idx = len(next) - 1
	}
	if err := r.commit(ctx, next); err != nil {
		return Item{}, err
	}
	return next[idx], nil
}

// SetQty sets the quantity of an existing item. A quantity of zero or less removes it.
// The returned bool reports whether the item is still present afterwards.
func (r *Repository) SetQty(ctx context.Context, id string, qty int) (Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.items.IndexOf(id)
	if idx < 0 {
		return Item{}, false, nil
	}
	next := r.items.Clone()
	if qty <= 0 {
		next = append(next[:idx], next[idx+1:]...)
		if err := r.commit(ctx, next); err != nil {
			return Item{}, true, err
		}
		return Item{}, false, nil
	}
	next[idx].Qty = qty
	if err := r.commit(ctx, next); err != nil {
		return Item{}, true, err
	}
	return next[idx], true, nil
}

// RemoveAt deletes the item at a position. Out of range is a no-op.
func (r *Repository) RemoveAt(ctx context.Context, index int) (Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.items) {
		return Item{}, false, nil
	}
	return r.removeLocked(ctx, index)
}

// RemoveByID deletes the item with the given id. Unknown ids are a no-op.
func (r *Repository) RemoveByID(ctx context.Context, id string) (Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.items.IndexOf(id)
	if idx < 0 {
		return Item{}, false, nil
	}
	return r.removeLocked(ctx, idx)
}

func (r *Repository) removeLocked(ctx context.Context, index int) (Item, bool, error) {
	removed := r.items[index]
	next := r.items.Clone()
	next = append(next[:index], next[index+1:]...)
	if err := r.commit(ctx, next); err != nil {
		return Item{}, false, err
	}
	return removed, true, nil
}

func (r *Repository) commit(ctx context.Context, next Cart) error {
	if r.store != nil {
		if err := r.store.Save(ctx, next); err != nil {
			return err
		}
	}
	r.items = next
	return nil
}
