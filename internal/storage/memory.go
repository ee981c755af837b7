package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. It backs the "memory"
// driver and the store tests.
type MemoryBackend struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saves   int
	saveErr error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return &PersistenceError{Key: key, Err: m.saveErr}
	}
	m.saves++
	m.docs[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Close() {}

// FailSaves makes every following Save fail with err; nil restores writes.
func (m *MemoryBackend) FailSaves(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Put seeds a raw document.
func (m *MemoryBackend) Put(key string, data []byte) {
	m.mu.Lock()
	m.docs[key] = append([]byte(nil), data...)
	m.mu.Unlock()
}
