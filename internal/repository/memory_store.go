package repository

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// MemoryStore keeps a single cart blob in process memory. It applies the
// same codec as the cookie store and is used by the CLI and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	raw   string
	clock clock.Clock
	err   error
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{clock: clk}
}

func (m *MemoryStore) Load(context.Context) []domain.LineItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items, _ := DecodeCart(m.raw)
	return items
}

func (m *MemoryStore) Save(_ context.Context, items []domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, err := EncodeCart(items, m.clock.Now())
	if err != nil {
		return err
	}
	m.raw = raw
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = ""
	return nil
}

// Raw returns the stored blob.
func (m *MemoryStore) Raw() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw
}

// SetRaw replaces the stored blob verbatim.
func (m *MemoryStore) SetRaw(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
}

// FailWrites makes subsequent saves return err; nil restores normal writes.
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
