package storage

import (
	"context"
	"sync"

	"finitefield.org/storefront-web/internal/cart"
)

// Memory keeps slots in process memory. Contents are lost on restart.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory returns an empty in-memory slot set.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	if !ok {
		return nil, cart.ErrSlotEmpty
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.mu.Lock()
	m.slots[key] = buf
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.slots, key)
	m.mu.Unlock()
	return nil
}
