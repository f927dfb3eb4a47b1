package blob

import (
	"context"
	"sync"
)

// Memory is an in-process Store, used by tests and the "memory" backend.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	puts  map[string]int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[string][]byte),
		puts:  make(map[string]int),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	m.puts[key]++
	return nil
}

// Puts reports how many times key has been written.
func (m *Memory) Puts(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts[key]
}
