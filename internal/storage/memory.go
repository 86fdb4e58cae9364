package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. It backs the device scope and tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, owner, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docs[owner][key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Save(_ context.Context, owner, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[owner] == nil {
		m.docs[owner] = make(map[string][]byte)
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.docs[owner][key] = v
	return nil
}

// Keys lists the keys stored for owner.
func (m *Memory) Keys(owner string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.docs[owner] {
		keys = append(keys, k)
	}
	return keys
}
