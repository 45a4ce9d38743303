// Package artifact persists pipeline outputs keyed by case identifier.
// Presence of a key is the cache: existence is the sole freshness signal.
package artifact

import (
	"sort"
	"sync"
)

// Store is the artifact persistence contract shared by both pipeline stages.
// Writes are whole-value replace; a key is either fully present or absent.
type Store interface {
	Exists(key string) (bool, error)
	Read(key string) ([]byte, error)
	Write(key string, blob []byte) error
	Delete(key string) (bool, error)
	List() ([]string, error)
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string][]byte{}}
}

func (m *MemStore) Exists(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MemStore) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.data[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (m *MemStore) Write(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.data[key] = cp
	return nil
}

func (m *MemStore) Delete(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

func (m *MemStore) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return "artifact not found: " + e.Key
}
