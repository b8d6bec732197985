package store

import (
	"context"
	"sync"
)

// MemorySlot keeps slots in process memory. Used by tests and --ephemeral runs.
type MemorySlot struct {
	mu      sync.Mutex
	quota   int
	slots   map[string][]byte
	writes  int
	failPut error
}

func NewMemorySlot(quota int) *MemorySlot {
	return &MemorySlot{
		quota: quota,
		slots: make(map[string][]byte),
	}
}

func (m *MemorySlot) Get(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.slots[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (m *MemorySlot) Put(_ context.Context, name string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	if err := checkQuota(payload, m.quota); err != nil {
		return err
	}
	m.slots[name] = append([]byte(nil), payload...)
	m.writes++
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, name)
	return nil
}

func (m *MemorySlot) Close() error {
	return nil
}

// Writes counts successful Put calls.
func (m *MemorySlot) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailWrites makes every later Put return err (nil restores normal behaviour).
func (m *MemorySlot) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut = err
}
