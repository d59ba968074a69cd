package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	v   V
	exp time.Time
}

// TTLCache is an in-process map with per-entry expiry.
type TTLCache[V any] struct {
	mu  sync.RWMutex
	m   map[string]entry[V]
	now func() time.Time
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{m: make(map[string]entry[V]), now: time.Now}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if ok && c.expired(e) {
		// A Set may have landed between the two locks.
		c.mu.Lock()
		e, ok = c.m[key]
		if ok && c.expired(e) {
			delete(c.m, key)
			ok = false
		}
		c.mu.Unlock()
	}
	if !ok {
		var zero V
		return zero, false
	}
	return e.v, true
}

func (c *TTLCache[V]) expired(e entry[V]) bool {
	return !e.exp.IsZero() && c.now().After(e.exp)
}

// Set stores v. A non-positive ttl never expires.
func (c *TTLCache[V]) Set(key string, v V, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry[V]{v: v, exp: exp}
	c.mu.Unlock()
}

func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// MemoryBytes adapts a TTLCache to BytesCache.
type MemoryBytes struct {
	c *TTLCache[[]byte]
}

func NewMemoryBytes() *MemoryBytes {
	return &MemoryBytes{c: NewTTLCache[[]byte]()}
}

func (m *MemoryBytes) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := m.c.Get(key)
	return b, ok, nil
}

func (m *MemoryBytes) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.c.Set(key, cp, ttl)
	return nil
}
