package storage

import (
	"sync"
	"time"
)

type memoryItem struct {
	value  string
	expiry time.Time
}

// MemoryStore keeps items in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		ttl:   normalizeOptions(opts).ItemTTL,
	}
}

// GetItem returns the value stored under key, if present and not expired.
func (m *MemoryStore) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	if expired(item.expiry, time.Now()) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expiry.Equal(item.expiry) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return item.value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (m *MemoryStore) SetItem(key, value string) error {
	m.mu.Lock()
	m.items[key] = memoryItem{value: value, expiry: expiryFor(time.Now(), m.ttl)}
	m.mu.Unlock()
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (m *MemoryStore) RemoveItem(key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored items, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Clear removes every item.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
}

func (m *MemoryStore) Close() error { return nil }
