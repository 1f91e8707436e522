package cache

import (
	"path"
	"sync"
	"time"
)

// Memory is the always-on process-local cache tier. Entries expire lazily on
// read and are swept periodically once StartSweeper is called.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	stopOnce sync.Once
	stop     chan struct{}
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// NewMemory creates an empty local tier.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
}

// Get returns the live value for key, or false when absent or expired.
// Expired entries are dropped on the spot.
func (m *Memory) Get(key string) ([]byte, bool) {
	now := time.Now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if e.expired(now) {
		m.mu.Lock()
		// Re-check under the write lock; a newer value may have landed.
		if cur, ok := m.entries[key]; ok && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// Has reports whether a live value exists for key.
func (m *Memory) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// InvalidatePattern removes every key matching the glob pattern and returns
// how many entries were dropped.
func (m *Memory) InvalidatePattern(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key := range m.entries {
		if ok, err := path.Match(pattern, key); err == nil && ok {
			delete(m.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of physically present entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// StartSweeper launches the periodic janitor that drops expired entries.
// Stop with Close.
func (m *Memory) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// Close stops the janitor. Safe to call more than once.
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory) sweep() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}
