// Package breaker implements per-backend circuit breaking. Each backend gets
// its own state machine; transitions are serialized by that breaker's mutex
// while the backend calls themselves never are.
package breaker

import (
	"fmt"
	"sync"
	"time"
)

// State is a breaker's position in the closed/open/half-open cycle.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config tunes a breaker. Zero fields fall back to defaults.
type Config struct {
	// FailureThreshold is the consecutive-failure count that trips a closed
	// breaker open.
	FailureThreshold int

	// ResetTimeout is how long after the last failure an open breaker waits
	// before admitting probes.
	ResetTimeout time.Duration

	// HalfOpenMaxProbes caps how many probe calls are admitted while
	// half-open.
	HalfOpenMaxProbes int
}

// DefaultConfig returns the breaker tuning used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenMaxProbes: 1,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = def.ResetTimeout
	}
	if c.HalfOpenMaxProbes <= 0 {
		c.HalfOpenMaxProbes = def.HalfOpenMaxProbes
	}
	return c
}

// Breaker is one backend's circuit state machine.
type Breaker struct {
	name string
	cfg  Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	lastSuccess time.Time
	openedAt    time.Time
	probes      int
}

// New creates a closed breaker for the named backend.
func New(name string, cfg Config) *Breaker {
	return &Breaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		state: StateClosed,
	}
}

// Name returns the backend this breaker guards.
func (b *Breaker) Name() string { return b.name }

// Allow is the admission gate. Closed always admits. Open admits once the
// reset timeout has elapsed since the last failure, moving the breaker to
// half-open and counting the caller as its first probe. Half-open admits
// until the probe budget is spent.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailure) >= b.cfg.ResetTimeout {
			b.state = StateHalfOpen
			b.probes = 1
			return true
		}
		return false
	case StateHalfOpen:
		if b.probes < b.cfg.HalfOpenMaxProbes {
			b.probes++
			return true
		}
		return false
	default:
		return false
	}
}

// Available reports whether a call would be admitted right now, without
// consuming a probe slot or moving the state machine. Route selection uses
// this so that probing is left to the call path.
func (b *Breaker) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		return time.Since(b.lastFailure) >= b.cfg.ResetTimeout
	case StateHalfOpen:
		return b.probes < b.cfg.HalfOpenMaxProbes
	default:
		return false
	}
}

// RecordSuccess notes a call's final success. A successful half-open probe
// closes the circuit fully; in closed state the failure streak resets.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++
	b.lastSuccess = time.Now()

	switch b.state {
	case StateHalfOpen:
		b.state = StateClosed
		b.failures = 0
		b.probes = 0
	case StateClosed:
		b.failures = 0
	}
}

// RecordFailure notes a call's final failure. Crossing the threshold trips a
// closed breaker; a failed half-open probe trips immediately, never back to
// closed.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
		}
	case StateHalfOpen:
		b.trip()
	case StateOpen:
		b.failures++
	}
}

// trip opens the circuit. Callers hold the mutex.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.probes = 0
}

// State reports the breaker's effective state: an open breaker whose reset
// timeout has elapsed is reported half-open, though the transition itself
// only happens on the next Allow.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.lastFailure) >= b.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed with cleared counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probes = 0
}

// OpenError builds the refusal error for a call this breaker did not admit.
func (b *Breaker) OpenError() *OpenError {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.cfg.ResetTimeout - time.Since(b.lastFailure)
	if remaining < 0 {
		remaining = 0
	}
	return &OpenError{Backend: b.name, OpenedAt: b.openedAt, RetryAfter: remaining}
}

// Snapshot is a point-in-time view of one breaker for status reporting.
type Snapshot struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Failures    int       `json:"consecutive_failures"`
	Successes   int       `json:"successes"`
	LastFailure time.Time `json:"last_failure"`
	LastSuccess time.Time `json:"last_success"`
	Probes      int       `json:"half_open_probes"`
}

// Snapshot captures the breaker's current counters and effective state.
func (b *Breaker) Snapshot() Snapshot {
	state := b.State()

	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Name:        b.name,
		State:       state.String(),
		Failures:    b.failures,
		Successes:   b.successes,
		LastFailure: b.lastFailure,
		LastSuccess: b.lastSuccess,
		Probes:      b.probes,
	}
}

// OpenError is returned when a backend's breaker refuses a call. It is not
// retryable; the router re-selects instead.
type OpenError struct {
	Backend    string
	OpenedAt   time.Time
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("circuit open for backend %q, retry in %s", e.Backend, e.RetryAfter.Round(time.Millisecond))
	}
	return fmt.Sprintf("circuit open for backend %q", e.Backend)
}
