// Package http exposes the orchestration engine over HTTP: plan generation,
// health, rolling stats, Prometheus metrics, and the admin reset surface.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/peregrine-ai/peregrine/internal/breaker"
	"github.com/peregrine-ai/peregrine/internal/cache"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/metrics"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

// PlanService is the orchestration surface the transport exposes.
type PlanService interface {
	Generate(ctx context.Context, req domain.PlanRequest) *domain.PlanResult
	Health(ctx context.Context) domain.HealthReport
}

// Handler handles HTTP requests.
type Handler struct {
	planner   PlanService
	breakers  *breaker.Manager
	cache     domain.Cache
	keys      cache.Keys
	collector *metrics.Collector
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	planner PlanService,
	breakers *breaker.Manager,
	store domain.Cache,
	keys cache.Keys,
	collector *metrics.Collector,
) *Handler {
	return &Handler{
		planner:   planner,
		breakers:  breakers,
		cache:     store,
		keys:      keys,
		collector: collector,
	}
}

// HandleGenerate processes plan generation requests. Pipeline failures ride
// in the result envelope; the transport status stays 200 unless the transport
// itself fails.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Early validation.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse request.
	var req domain.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	// The transport request ID doubles as the plan request ID unless the
	// caller supplied one.
	if req.RequestID == "" {
		req.RequestID = observability.GetRequestID(ctx)
	}

	logger := observability.FromContext(ctx)
	logger.Info("plan request received",
		observability.String("destination", req.Params.Destination),
		observability.Int("days", req.Params.Days),
		observability.String("tier", req.Tier),
	)

	result := h.planner.Generate(ctx, req)

	setRouteHeaders(w, result)
	w.Header().Set("Content-Type", "application/json")
	encodeErr := json.NewEncoder(w).Encode(result)
	if encodeErr != nil {
		logger.Error("failed to encode response", observability.Error(encodeErr))
		http.Error(w, fmt.Sprintf("failed to encode response: %v", encodeErr), http.StatusInternalServerError)
		return
	}
}

// setRouteHeaders exposes the routing outcome on the response so callers can
// spot degraded service without parsing the body.
func setRouteHeaders(w http.ResponseWriter, result *domain.PlanResult) {
	if result == nil {
		return
	}
	if result.Metrics.Route != "" {
		w.Header().Set("X-Peregrine-Route", string(result.Metrics.Route))
	}
	if result.QualityScore > 0 {
		w.Header().Set("X-Peregrine-Quality", strconv.Itoa(result.QualityScore))
	}
	if result.Metrics.CacheHits > 0 {
		w.Header().Set("X-Peregrine-Cache-Hits", strconv.Itoa(result.Metrics.CacheHits))
	}
}

// healthResponse wraps the health report with an overall status verdict.
type healthResponse struct {
	Status string `json:"status"`
	domain.HealthReport
}

// HandleHealth handles health check requests. Any unconfigured or unreachable
// backend degrades the verdict without failing the endpoint.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := h.planner.Health(r.Context())

	status := "healthy"
	for _, ok := range report.Backends {
		if !ok {
			status = "degraded"
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(healthResponse{
		Status:       status,
		HealthReport: report,
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

// statsResponse aggregates the rolling run window and cache occupancy.
type statsResponse struct {
	Runs  metrics.Summary   `json:"runs"`
	Cache domain.CacheStats `json:"cache"`
}

// HandleStats serves aggregates over the rolling metrics window.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := statsResponse{
		Runs:  h.collector.Snapshot(),
		Cache: h.cache.Stats(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return
	}
}

// HandleBreakersReset force-closes breakers: all of them, or only the backend
// named in the body.
func (h *Handler) HandleBreakersReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Backend string `json:"backend,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(r.Context())
	if req.Backend != "" {
		if !h.breakers.Reset(req.Backend) {
			http.Error(w, fmt.Sprintf("unknown backend %q", req.Backend), http.StatusNotFound)
			return
		}
		logger.Info("breaker reset", observability.String("backend", req.Backend))
	} else {
		h.breakers.ResetAll()
		logger.Info("all breakers reset")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.breakers.Status()); err != nil {
		return
	}
}

// HandleCacheInvalidate drops cached entries matching the requested pattern,
// or everything under the key prefix when no pattern is given.
func (h *Handler) HandleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Pattern string `json:"pattern,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = h.keys.AllPattern()
	}

	dropped, err := h.cache.InvalidatePattern(r.Context(), pattern)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	observability.FromContext(r.Context()).Info("cache invalidated",
		observability.String("pattern", pattern),
		observability.Int("dropped", dropped),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"pattern":     pattern,
		"invalidated": dropped,
	}); err != nil {
		return
	}
}
