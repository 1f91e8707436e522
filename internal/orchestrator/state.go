package orchestrator

import (
	"sync"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// runState accumulates one request's metrics, notices, and failed-backend
// set. Phase 1 legs touch it concurrently, so every mutation takes the mutex.
type runState struct {
	mu      sync.Mutex
	metrics domain.RunMetrics
	notices []string
	failed  map[string]bool
}

func newRunState(runID string, req domain.PlanRequest) *runState {
	return &runState{
		metrics: domain.RunMetrics{
			RunID:      runID,
			RequestID:  req.RequestID,
			Tier:       req.Tier,
			TokenUsage: make(map[string]domain.Usage),
			Timestamp:  time.Now(),
		},
		failed: make(map[string]bool),
	}
}

func (r *runState) setRoute(name domain.RouteName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.Route = name
}

// addNotice appends a user-facing notice, skipping blanks and duplicates.
func (r *runState) addNotice(note string) {
	if note == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.notices {
		if existing == note {
			return
		}
	}
	r.notices = append(r.notices, note)
}

func (r *runState) allNotices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *runState) addCacheHit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.CacheHits++
}

func (r *runState) addRetry() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.Retries++
}

// recordCall accumulates usage and spend for one successful backend call.
func (r *runState) recordCall(backend string, usage domain.Usage, cost float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.TokenUsage[backend] = r.metrics.TokenUsage[backend].Add(usage)
	r.metrics.EstimatedCost += cost
	for _, used := range r.metrics.BackendsUsed {
		if used == backend {
			return
		}
	}
	r.metrics.BackendsUsed = append(r.metrics.BackendsUsed, backend)
}

// markFailed notes that a backend's generation attempts were exhausted, so
// the emergency sweep does not try it again.
func (r *runState) markFailed(backend string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[backend] = true
}

func (r *runState) hasFailed(backend string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed[backend]
}

func (r *runState) setPhase1Latency(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.Phase1Latency = d
}

func (r *runState) setPhase2Latency(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.Phase2Latency = d
}

func (r *runState) setEmergencyLatency(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.EmergencyLatency = d
}

// finalize seals the record and returns a detached copy safe to hand to the
// metrics window.
func (r *runState) finalize(started time.Time, success bool, quality int) domain.RunMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.TotalLatency = time.Since(started)
	r.metrics.Success = success
	r.metrics.QualityScore = quality

	out := r.metrics
	out.BackendsUsed = append([]string(nil), r.metrics.BackendsUsed...)
	out.TokenUsage = make(map[string]domain.Usage, len(r.metrics.TokenUsage))
	for backend, usage := range r.metrics.TokenUsage {
		out.TokenUsage[backend] = usage
	}
	return out
}
