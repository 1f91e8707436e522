package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

var (
	promRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peregrine_runs_total",
		Help: "Total plan generation runs by tier, route, and outcome",
	}, []string{"tier", "route", "status"})

	promRunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peregrine_run_duration_seconds",
		Help:    "Run latency in seconds by pipeline phase",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"phase"})

	promBackendTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peregrine_backend_tokens_total",
		Help: "Tokens consumed per backend and direction",
	}, []string{"backend", "direction"})

	promCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peregrine_cache_hits_total",
		Help: "Cache hits during plan generation by tier",
	}, []string{"tier"})

	promRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peregrine_retries_total",
		Help: "Backend call retries during plan generation by tier",
	}, []string{"tier"})

	promRunCost = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peregrine_run_cost_dollars_total",
		Help: "Estimated backend spend in dollars by tier",
	}, []string{"tier"})
)

func init() {
	prometheus.MustRegister(promRunsTotal)
	prometheus.MustRegister(promRunDuration)
	prometheus.MustRegister(promBackendTokens)
	prometheus.MustRegister(promCacheHits)
	prometheus.MustRegister(promRetries)
	prometheus.MustRegister(promRunCost)
}

// recordPrometheus mirrors one run record into the process-wide counters.
func recordPrometheus(m domain.RunMetrics) {
	status := "success"
	if !m.Success {
		status = "failure"
	}
	promRunsTotal.WithLabelValues(m.Tier, string(m.Route), status).Inc()

	promRunDuration.WithLabelValues("total").Observe(m.TotalLatency.Seconds())
	if m.Phase1Latency > 0 {
		promRunDuration.WithLabelValues("phase1").Observe(m.Phase1Latency.Seconds())
	}
	if m.Phase2Latency > 0 {
		promRunDuration.WithLabelValues("phase2").Observe(m.Phase2Latency.Seconds())
	}

	for backend, usage := range m.TokenUsage {
		promBackendTokens.WithLabelValues(backend, "input").Add(float64(usage.InputTokens))
		promBackendTokens.WithLabelValues(backend, "output").Add(float64(usage.OutputTokens))
	}

	if m.CacheHits > 0 {
		promCacheHits.WithLabelValues(m.Tier).Add(float64(m.CacheHits))
	}
	if m.Retries > 0 {
		promRetries.WithLabelValues(m.Tier).Add(float64(m.Retries))
	}
	if m.EstimatedCost > 0 {
		promRunCost.WithLabelValues(m.Tier).Add(m.EstimatedCost)
	}
}
