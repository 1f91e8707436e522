// Package orchestrator runs the two-phase plan pipeline: a concurrent fan-out
// of draft generation, location validation, and candidate-pool fetch, then a
// sequential supervision pass with an optional revision cycle. Failures are
// absorbed into the result envelope; Generate never returns an error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/peregrine-ai/peregrine/internal/breaker"
	"github.com/peregrine-ai/peregrine/internal/cache"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/metrics"
	"github.com/peregrine-ai/peregrine/internal/observability"
	"github.com/peregrine-ai/peregrine/internal/retry"
)

// reviewUnavailableNotice is appended when supervision fails mid-run and the
// plan is served unsupervised.
const reviewUnavailableNotice = "editorial review was unavailable for this plan"

// emergencyNotice is appended when draft generation exhausts every eligible
// backend and the run re-enters through the emergency path.
const emergencyNotice = "minimal plan produced during a service disruption"

// Params carries the orchestrator's collaborators. Everything except
// Emergency is required.
type Params struct {
	Roster    domain.BackendRoster
	Router    domain.Router
	Breakers  *breaker.Manager
	Cache     domain.Cache
	Keys      cache.Keys
	TTLs      cache.TTLConfig
	Pool      domain.CandidatePool
	Tiers     map[string]domain.TierConfig
	Costs     domain.CostCalculator
	Collector *metrics.Collector
	Events    domain.EventPublisher
	Config    Config

	// Emergency is the last-resort backend tried after every roster backend
	// has failed. Optional.
	Emergency domain.Backend
}

// Orchestrator coordinates the tiered plan pipeline.
type Orchestrator struct {
	roster    domain.BackendRoster
	router    domain.Router
	breakers  *breaker.Manager
	cache     domain.Cache
	keys      cache.Keys
	ttls      cache.TTLConfig
	pool      domain.CandidatePool
	tiers     map[string]domain.TierConfig
	costs     domain.CostCalculator
	collector *metrics.Collector
	events    domain.EventPublisher
	emergency domain.Backend
	cfg       Config
}

// New creates an orchestrator (DI constructor).
func New(p Params) (*Orchestrator, error) {
	switch {
	case p.Roster == nil:
		return nil, errors.New("roster cannot be nil")
	case p.Router == nil:
		return nil, errors.New("router cannot be nil")
	case p.Breakers == nil:
		return nil, errors.New("breaker manager cannot be nil")
	case p.Cache == nil:
		return nil, errors.New("cache cannot be nil")
	case p.Pool == nil:
		return nil, errors.New("candidate pool cannot be nil")
	case len(p.Tiers) == 0:
		return nil, errors.New("tier table cannot be empty")
	case p.Costs == nil:
		return nil, errors.New("cost calculator cannot be nil")
	case p.Collector == nil:
		return nil, errors.New("metrics collector cannot be nil")
	case p.Events == nil:
		return nil, errors.New("event publisher cannot be nil")
	}

	ttls := p.TTLs
	if ttls.Location <= 0 {
		ttls = cache.DefaultTTLs()
	}

	return &Orchestrator{
		roster:    p.Roster,
		router:    p.Router,
		breakers:  p.Breakers,
		cache:     p.Cache,
		keys:      p.Keys,
		ttls:      ttls,
		pool:      p.Pool,
		tiers:     p.Tiers,
		costs:     p.Costs,
		collector: p.Collector,
		events:    p.Events,
		emergency: p.Emergency,
		cfg:       p.Config.withDefaults(),
	}, nil
}

// Generate runs the full pipeline for one request. Failures are encoded in
// the returned envelope, never raised.
func (o *Orchestrator) Generate(ctx context.Context, req domain.PlanRequest) (result *domain.PlanResult) {
	started := time.Now()
	runID := ulid.Make().String()

	ctx = observability.WithRunID(ctx, runID)
	if req.RequestID != "" {
		ctx = observability.WithRequestID(ctx, req.RequestID)
	}
	ctx = observability.WithTier(ctx, req.Tier)
	ctx = observability.WithDestination(ctx, req.Params.Destination)
	logger := observability.FromContext(ctx)

	run := newRunState(runID, req)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panicked", observability.Any("panic", r))
			result = o.finish(ctx, run, started, failureResult("internal pipeline failure"))
		}
	}()

	if err := o.normalize(&req); err != nil {
		logger.Warn("plan request rejected", observability.Error(err))
		return o.finish(ctx, run, started, failureResult(err.Error()))
	}

	tier, ok := o.tiers[req.Tier]
	if !ok {
		logger.Warn("plan request rejected", observability.String("tier", req.Tier))
		return o.finish(ctx, run, started, failureResult(fmt.Sprintf("unknown tier %q", req.Tier)))
	}
	tier.Name = req.Tier

	o.events.Publish(ctx, domain.EventRunStarted, map[string]interface{}{
		"kind":        string(req.Kind),
		"destination": req.Params.Destination,
		"days":        req.Params.Days,
		"tier":        req.Tier,
	})

	route := o.router.DetermineRoute(tier)
	run.setRoute(route.Name)
	run.addNotice(route.Notice)
	if route.Name != domain.RoutePrimary {
		logger.Warn("degraded route selected",
			observability.String("route", string(route.Name)),
			observability.String("notice", route.Notice),
		)
		o.events.Publish(ctx, domain.EventFallbackTaken, map[string]interface{}{
			"route":  string(route.Name),
			"notice": route.Notice,
		})
	}

	var res *domain.PlanResult
	if route.Name == domain.RouteEmergency {
		res = o.runEmergency(ctx, req, run)
	} else {
		res = o.runPipeline(ctx, tier, route, req, run)
	}
	return o.finish(ctx, run, started, res)
}

// runPipeline executes Phase 1 and, when the route calls for it, Phase 2.
// Draft exhaustion re-enters through the emergency path.
func (o *Orchestrator) runPipeline(ctx context.Context, tier domain.TierConfig, route domain.RouteDecision, req domain.PlanRequest, run *runState) *domain.PlanResult {
	phase1 := o.runPhase1(ctx, tier, route, req, run)

	if phase1.draft == nil {
		observability.FromContext(ctx).Warn("draft generation exhausted, taking emergency path",
			observability.Error(phase1.draftErr),
		)
		run.setRoute(domain.RouteEmergency)
		run.addNotice(emergencyNotice)
		o.events.Publish(ctx, domain.EventFallbackTaken, map[string]interface{}{
			"route":  string(domain.RouteEmergency),
			"notice": emergencyNotice,
		})
		return o.runEmergency(ctx, req, run)
	}

	if !route.Supervise {
		return &domain.PlanResult{Success: true, Plan: phase1.draft}
	}
	return o.runPhase2(ctx, tier, route, run, *phase1.draft, phase1.findings, phase1.candidates)
}

// Health reports per-role backend readiness, breaker states, and cache
// occupancy for operational dashboards.
func (o *Orchestrator) Health(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{
		Backends: make(map[domain.Role]bool),
		Breakers: make(map[domain.Role]string),
	}

	for _, role := range domain.AllRoles() {
		backend, err := o.roster.ForRole(role)
		if err != nil {
			report.Backends[role] = false
			continue
		}
		report.Backends[role] = backend.IsConfigured()
		report.Breakers[role] = o.breakers.Get(backend.Name()).State().String()
	}

	stats := o.cache.Stats(ctx)
	report.Cache = domain.CacheHealth{
		Size:            stats.Entries,
		SharedAvailable: stats.SharedAvailable,
	}
	return report
}

// normalize validates and defaults the request in place.
func (o *Orchestrator) normalize(req *domain.PlanRequest) error {
	if req.Kind == "" {
		req.Kind = domain.KindItinerary
	}
	if req.Kind != domain.KindItinerary {
		return fmt.Errorf("unsupported request kind %q", req.Kind)
	}

	req.Params.Destination = strings.TrimSpace(req.Params.Destination)
	if req.Params.Destination == "" {
		return errors.New("destination is required")
	}

	if req.Tier == "" {
		return errors.New("tier is required")
	}

	if req.Params.Days <= 0 {
		req.Params.Days = 3
	}
	if req.Params.Days > o.cfg.MaxDays {
		req.Params.Days = o.cfg.MaxDays
	}
	return nil
}

// finish stitches the run record into the envelope, appends it to the metrics
// window, and publishes the terminal event.
func (o *Orchestrator) finish(ctx context.Context, run *runState, started time.Time, res *domain.PlanResult) *domain.PlanResult {
	m := run.finalize(started, res.Success, res.QualityScore)
	res.Metrics = m
	res.Notices = append(run.allNotices(), res.Notices...)
	if m.Route != "" && m.Route != domain.RoutePrimary {
		res.FallbackUsed = m.Route
	}

	o.collector.Append(m)

	logger := observability.FromContext(ctx)
	if res.Success {
		logger.Info("plan generated",
			observability.String("route", string(m.Route)),
			observability.Int("quality_score", res.QualityScore),
			observability.Duration("latency", m.TotalLatency),
			observability.Int("cache_hits", m.CacheHits),
		)
		o.events.Publish(ctx, domain.EventRunCompleted, map[string]interface{}{
			"route":         string(m.Route),
			"quality_score": res.QualityScore,
			"latency_ms":    m.TotalLatency.Milliseconds(),
			"cache_hits":    m.CacheHits,
		})
	} else {
		logger.Error("plan generation failed",
			observability.String("route", string(m.Route)),
			observability.String("error", res.Error),
		)
		o.events.Publish(ctx, domain.EventRunFailed, map[string]interface{}{
			"route": string(m.Route),
			"error": res.Error,
		})
	}
	return res
}

// failureResult builds the terminal failure envelope.
func failureResult(message string) *domain.PlanResult {
	return &domain.PlanResult{Success: false, Error: message}
}

// callGuarded wraps one backend operation with the breaker admission gate,
// the per-attempt deadline, and bounded retries. The breaker observes only
// the final outcome, not individual attempts.
func callGuarded[T any](ctx context.Context, o *Orchestrator, run *runState, maxRetries int, backend domain.Backend, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	br := o.breakers.Get(backend.Name())
	if !br.Allow() {
		openErr := br.OpenError()
		return zero, &domain.BackendError{
			Backend:    backend.Name(),
			Code:       domain.ErrCodeCircuitOpen,
			Message:    "circuit open",
			RetryAfter: openErr.RetryAfter,
			Err:        openErr,
		}
	}

	logger := observability.FromContext(ctx)
	policy := o.cfg.Retry
	policy.MaxRetries = maxRetries
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		run.addRetry()
		logger.Warn("retrying backend call",
			observability.String("backend", backend.Name()),
			observability.String("operation", op),
			observability.Int("attempt", attempt),
			observability.Duration("delay", delay),
			observability.Error(err),
		)
	}

	result, err := retry.Do(ctx, policy, func(ctx context.Context) (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
		return fn(attemptCtx)
	})
	if err != nil {
		br.RecordFailure()
		return zero, err
	}
	br.RecordSuccess()
	return result, nil
}

// recordCall accounts one successful backend call: usage, spend, and the
// backend roll-up.
func (o *Orchestrator) recordCall(ctx context.Context, run *runState, backend domain.Backend, usage domain.Usage) {
	cost, err := o.costs.Calculate(ctx, backend.Model(), usage)
	if err != nil {
		cost = 0
	}
	run.recordCall(backend.Name(), usage, cost)
}
