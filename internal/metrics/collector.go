// Package metrics records per-run orchestration outcomes in a bounded rolling
// window and exports aggregate counters to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// Config bounds the rolling window.
type Config struct {
	WindowSize          int `env:"METRICS_WINDOW_SIZE"          envDefault:"1000"`
	MaxAge              int `env:"METRICS_MAX_AGE"              envDefault:"3600"` // seconds
	MaintenanceInterval int `env:"METRICS_MAINTENANCE_INTERVAL" envDefault:"60"`
}

// MaintainEvery returns the periodic maintenance interval.
func (c *Config) MaintainEvery() time.Duration {
	return time.Duration(c.MaintenanceInterval) * time.Second
}

// Collector is an append-only rolling window of run records. Appends are safe
// under concurrent requests; pruning is a single maintenance pass that runs
// inline on append and periodically once StartMaintenance is called, so an
// idle window still sheds aged-out entries.
type Collector struct {
	mu         sync.RWMutex
	entries    []domain.RunMetrics
	maxEntries int
	maxAge     time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewCollector creates a collector bounded by entry count and entry age.
// Non-positive bounds fall back to defaults.
func NewCollector(maxEntries int, maxAge time.Duration) *Collector {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Collector{
		entries:    make([]domain.RunMetrics, 0, maxEntries),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		stop:       make(chan struct{}),
	}
}

// Append records one finished run and prunes entries that fell out of the
// window by count or by age.
func (c *Collector) Append(m domain.RunMetrics) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.entries = append(c.entries, m)
	c.prune(time.Now())
	c.mu.Unlock()

	recordPrometheus(m)
}

// prune drops expired and overflow entries. Caller holds the write lock.
func (c *Collector) prune(now time.Time) {
	cutoff := now.Add(-c.maxAge)
	firstLive := 0
	for firstLive < len(c.entries) && c.entries[firstLive].Timestamp.Before(cutoff) {
		firstLive++
	}
	if overflow := len(c.entries) - firstLive - c.maxEntries; overflow > 0 {
		firstLive += overflow
	}
	if firstLive > 0 {
		c.entries = append(c.entries[:0:0], c.entries[firstLive:]...)
	}
}

// Window returns a copy of the current window, oldest first.
func (c *Collector) Window() []domain.RunMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.RunMetrics, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of records currently retained.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every retained record.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = c.entries[:0]
}

// StartMaintenance launches the periodic prune pass. Stop with Close.
func (c *Collector) StartMaintenance(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				c.prune(time.Now())
				c.mu.Unlock()
			}
		}
	}()
}

// Close stops the maintenance pass. Safe to call more than once.
func (c *Collector) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Summary aggregates the rolling window for the stats endpoint.
type Summary struct {
	WindowSize       int                      `json:"window_size"`
	SuccessCount     int                      `json:"success_count"`
	FailureCount     int                      `json:"failure_count"`
	SuccessRate      float64                  `json:"success_rate"`
	AvgTotalLatency  time.Duration            `json:"avg_total_latency"`
	AvgPhase1Latency time.Duration            `json:"avg_phase1_latency"`
	AvgPhase2Latency time.Duration            `json:"avg_phase2_latency"`
	CacheHits        int                      `json:"cache_hits"`
	Retries          int                      `json:"retries"`
	RouteCounts      map[domain.RouteName]int `json:"route_counts"`
	QualityBuckets   map[string]int           `json:"quality_buckets"`
	BackendTokens    map[string]domain.Usage  `json:"backend_tokens"`
	EstimatedCost    float64                  `json:"estimated_cost"`
}

// Snapshot computes aggregates over the current window.
func (c *Collector) Snapshot() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Summary{
		WindowSize:     len(c.entries),
		RouteCounts:    make(map[domain.RouteName]int),
		QualityBuckets: make(map[string]int),
		BackendTokens:  make(map[string]domain.Usage),
	}

	if len(c.entries) == 0 {
		return s
	}

	var totalLatency, phase1Latency, phase2Latency time.Duration
	for _, m := range c.entries {
		if m.Success {
			s.SuccessCount++
		} else {
			s.FailureCount++
		}

		totalLatency += m.TotalLatency
		phase1Latency += m.Phase1Latency
		phase2Latency += m.Phase2Latency

		s.CacheHits += m.CacheHits
		s.Retries += m.Retries
		s.EstimatedCost += m.EstimatedCost
		s.RouteCounts[m.Route]++
		s.QualityBuckets[qualityBucket(m.QualityScore)]++

		for backend, usage := range m.TokenUsage {
			s.BackendTokens[backend] = s.BackendTokens[backend].Add(usage)
		}
	}

	n := len(c.entries)
	s.SuccessRate = float64(s.SuccessCount) / float64(n)
	s.AvgTotalLatency = totalLatency / time.Duration(n)
	s.AvgPhase1Latency = phase1Latency / time.Duration(n)
	s.AvgPhase2Latency = phase2Latency / time.Duration(n)

	return s
}

// qualityBucket maps a 1..10 quality score into a distribution bucket.
func qualityBucket(score int) string {
	switch {
	case score <= 0:
		return "unscored"
	case score <= 3:
		return "poor"
	case score <= 6:
		return "fair"
	case score <= 8:
		return "good"
	default:
		return "excellent"
	}
}
