package metadata

import (
	"sync"
	"time"
)

// Memo keeps recently fetched backend payloads by id so that a lookup's
// details and credits calls can reuse what its search already returned.
// Entries expire after a TTL and the memo never holds more than its
// capacity; the oldest entry is dropped first.
type Memo[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[string]memoEntry[T]
	order   []string // insertion order, oldest first
}

type memoEntry[T any] struct {
	value   T
	expires time.Time
}

// NewMemo creates a memo. Non-positive arguments pick 10 minutes and 128
// entries.
func NewMemo[T any](ttl time.Duration, capacity int) *Memo[T] {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if capacity <= 0 {
		capacity = 128
	}
	return &Memo[T]{
		ttl:     ttl,
		max:     capacity,
		now:     time.Now,
		entries: make(map[string]memoEntry[T]),
	}
}

// Get returns the value stored for id if it has not expired.
func (m *Memo[T]) Get(id string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || !m.now().Before(e.expires) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Put stores v under id, replacing any earlier value.
func (m *Memo[T]) Put(id string, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if _, ok := m.entries[id]; ok {
		m.remove(id)
	}
	m.evict(now)
	m.entries[id] = memoEntry[T]{value: v, expires: now.Add(m.ttl)}
	m.order = append(m.order, id)
}

// Len reports how many entries are held, expired ones included.
func (m *Memo[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evict drops expired entries, then the oldest ones until there is room
// for one more.
func (m *Memo[T]) evict(now time.Time) {
	kept := m.order[:0]
	for _, id := range m.order {
		if now.Before(m.entries[id].expires) {
			kept = append(kept, id)
		} else {
			delete(m.entries, id)
		}
	}
	m.order = kept
	for len(m.order) >= m.max {
		delete(m.entries, m.order[0])
		m.order = m.order[1:]
	}
}

func (m *Memo[T]) remove(id string) {
	delete(m.entries, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
