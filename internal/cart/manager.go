package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Manager opens per-owner repositories and serializes their mutation cycles.
// Two requests for the same owner never interleave their read-modify-write-render work.
type Manager struct {
	slot   Slot
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager constructs a Manager backed by slot.
func NewManager(slot Slot, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{slot: slot, logger: logger, locks: make(map[string]*ownerLock)}
}

// Store returns the store bound to the owner's slot key.
func (m *Manager) Store(owner string) *Store {
	return NewStore(m.slot, SlotKey(owner), m.logger)
}

// Do loads the owner's cart and runs fn while holding the owner's lock. When the
// slot cannot be read fn is not called and the error wraps ErrSlotUnavailable.
func (m *Manager) Do(ctx context.Context, owner string, fn func(*Repository) error) error {
	if fn == nil {
		return errors.New("cart: nil callback")
	}
	owner = strings.TrimSpace(owner)
	unlock := m.lock(owner)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	items, err := m.Store(owner).Fetch(ctx)
	if err != nil {
		return err
	}
	return fn(NewRepository(m.Store(owner), items))
}

// Clear deletes the owner's slot.
func (m *Manager) Clear(ctx context.Context, owner string) error {
	unlock := m.lock(strings.TrimSpace(owner))
	defer unlock()
	return m.Store(owner).Clear(ctx)
}

func (m *Manager) lock(owner string) func() {
	m.mu.Lock()
	l, ok := m.locks[owner]
	if !ok {
		l = &ownerLock{}
		m.locks[owner] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, owner)
		}
		m.mu.Unlock()
	}
}
