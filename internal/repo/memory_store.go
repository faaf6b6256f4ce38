package repo

import (
	"context"
	"sync"
)

// MemoryStore is a process-local blob store. It backs tests and the
// "memory" storage backend; contents are lost on restart.
//
// GetErr and SetErr, when non-nil, are returned by every Get or Set call
// instead of touching the map. Tests use them to simulate I/O failures.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string

	GetErr error
	SetErr error

	gets, sets int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	m.gets++
	getErr := m.GetErr
	v, ok := m.data[key]
	m.mu.Unlock()
	if getErr != nil {
		return "", false, getErr
	}
	return v, ok, nil
}

// Set replaces the value stored under key.
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
	return nil
}

// Put seeds key with value, bypassing injected errors.
func (m *MemoryStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
}

// Raw returns the stored value, bypassing injected errors.
func (m *MemoryStore) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Calls reports how many Get and Set calls reached the store.
func (m *MemoryStore) Calls() (gets, sets int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets, m.sets
}
