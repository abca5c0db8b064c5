package cache

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"
)

// Store is the cache surface usecases depend on. RedisClient implements it
// for production; MemoryStore backs development mode and tests.
type Store interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

var (
	_ Store = (*RedisClient)(nil)
	_ Store = (*MemoryStore)(nil)
)

type memItem struct {
	val     []byte
	expires time.Time
}

type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memItem), now: time.Now}
}

func (m *MemoryStore) get(key string) ([]byte, bool) {
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !it.expires.IsZero() && m.now().After(it.expires) {
		delete(m.items, key)
		return nil, false
	}
	return it.val, true
}

func (m *MemoryStore) set(key string, val []byte, ttl time.Duration) {
	it := memItem{val: val}
	if ttl > 0 {
		it.expires = m.now().Add(ttl)
	}
	m.items[key] = it
}

func (m *MemoryStore) GetJSON(_ context.Context, key string, dst any) error {
	m.mu.Lock()
	val, ok := m.get(key)
	m.mu.Unlock()
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(val, dst)
}

func (m *MemoryStore) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.set(key, data, ttl)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *MemoryStore) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *MemoryStore) AcquireLock(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.get(key); ok {
		return false, nil
	}
	m.set(key, []byte(value), ttl)
	return true, nil
}

func (m *MemoryStore) ReleaseLock(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.get(key); ok && string(val) == value {
		delete(m.items, key)
	}
	return nil
}
