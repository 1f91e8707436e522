package breaker

import "sync"

// Manager holds one breaker per backend name, creating them on first use.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	breakers map[string]*Breaker
}

// NewManager creates a manager that configures every breaker with cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for a backend, creating a closed one on first use.
func (m *Manager) Get(name string) *Breaker {
	m.mu.RLock()
	b, ok := m.breakers[name]
	m.mu.RUnlock()
	if ok {
		return b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[name]; ok {
		return b
	}
	b = New(name, m.cfg)
	m.breakers[name] = b
	return b
}

// Status returns a snapshot of every known breaker, keyed by backend name.
func (m *Manager) Status() map[string]Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Snapshot, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.Snapshot()
	}
	return out
}

// Reset closes the named backend's breaker. It reports whether the breaker
// existed.
func (m *Manager) Reset(name string) bool {
	m.mu.RLock()
	b, ok := m.breakers[name]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	b.Reset()
	return true
}

// ResetAll closes every breaker.
func (m *Manager) ResetAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.breakers {
		b.Reset()
	}
}
