package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/peregrine-ai/peregrine/internal/cache"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

// phase1Result collects the fan-out outcome. The draft is mandatory;
// findings and candidates are best-effort and may be empty.
type phase1Result struct {
	draft      *domain.Draft
	draftErr   error
	findings   []domain.LocationFinding
	candidates []domain.Candidate
}

// runPhase1 launches draft generation, location validation, and the
// candidate-pool fetch concurrently. Each leg's failure is isolated from its
// siblings; the join is a full barrier, so Phase 2 never observes a
// mid-flight leg.
func (o *Orchestrator) runPhase1(ctx context.Context, tier domain.TierConfig, route domain.RouteDecision, req domain.PlanRequest, run *runState) phase1Result {
	started := time.Now()
	defer func() { run.setPhase1Latency(time.Since(started)) }()

	var (
		out phase1Result
		wg  sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		out.draft, out.draftErr = o.generateDraft(ctx, tier, route, req, run)
	}()

	if route.Validate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.findings = o.fetchFindings(ctx, tier, route, req.Params.Destination, run)
		}()
	}

	if route.Supervise {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.candidates = o.fetchCandidates(ctx, req.Params.Destination, run)
		}()
	}

	wg.Wait()
	return out
}

// generateDraft produces the draft, consulting the short-lived result cache
// first. Identical parameter sets within the TTL share one generation call.
func (o *Orchestrator) generateDraft(ctx context.Context, tier domain.TierConfig, route domain.RouteDecision, req domain.PlanRequest, run *runState) (*domain.Draft, error) {
	dreq := domain.DraftRequest{
		Destination: req.Params.Destination,
		Days:        req.Params.Days,
		Interests:   req.Params.Interests,
		Style:       req.Params.Style,
		Budget:      req.Params.Budget,
	}

	key := o.keys.Draft(dreq)
	draft, hit, err := cache.GetOrSetJSON[domain.Draft](ctx, o.cache, key, o.ttls.Result, func(ctx context.Context) (domain.Draft, error) {
		return o.generateDraftDirect(ctx, tier, route, dreq, run)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		run.addCacheHit()
		observability.FromContext(ctx).Info("draft served from cache")
	}
	return &draft, nil
}

// generateDraftDirect tries each eligible generator in order until one
// produces a draft. Exhausting them all is the pipeline-level failure that
// triggers the emergency path.
func (o *Orchestrator) generateDraftDirect(ctx context.Context, tier domain.TierConfig, route domain.RouteDecision, dreq domain.DraftRequest, run *runState) (domain.Draft, error) {
	logger := observability.FromContext(ctx)

	var lastErr error
	for _, backend := range o.generatorCandidates(tier, route) {
		res, err := callGuarded(ctx, o, run, tier.MaxRetries, backend, "generate_draft", func(ctx context.Context) (*domain.DraftResult, error) {
			return backend.GenerateDraft(ctx, dreq)
		})
		if err != nil {
			lastErr = err
			run.markFailed(backend.Name())
			logger.Warn("draft generation failed",
				observability.String("backend", backend.Name()),
				observability.String("code", string(domain.CodeOf(err))),
				observability.Error(err),
			)
			continue
		}

		o.recordCall(ctx, run, backend, res.Usage)
		logger.Info("draft generated",
			observability.String("backend", backend.Name()),
			observability.Int("days", len(res.Draft.Days)),
		)
		return res.Draft, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no configured backend can generate drafts")
	}
	return domain.Draft{}, lastErr
}

// generatorCandidates orders the backends eligible to produce the draft: the
// route's generator slot first, then the tier's remaining roles in pipeline
// order. Each distinct backend appears once.
func (o *Orchestrator) generatorCandidates(tier domain.TierConfig, route domain.RouteDecision) []domain.Backend {
	order := []domain.Role{route.GeneratorSlot}
	for _, role := range domain.AllRoles() {
		if role != route.GeneratorSlot && tier.Includes(role) {
			order = append(order, role)
		}
	}

	var backends []domain.Backend
	seen := make(map[string]bool)
	for _, role := range order {
		backend, err := o.roster.ForRole(role)
		if err != nil || !backend.IsConfigured() || seen[backend.Name()] {
			continue
		}
		seen[backend.Name()] = true
		backends = append(backends, backend)
	}
	return backends
}

// fetchFindings returns location-validation findings for the destination,
// consulting the long-lived validation cache first. A final failure degrades
// to no findings, never to a request failure.
func (o *Orchestrator) fetchFindings(ctx context.Context, tier domain.TierConfig, route domain.RouteDecision, destination string, run *runState) []domain.LocationFinding {
	logger := observability.FromContext(ctx)

	backend, err := o.roster.ForRole(route.ValidatorSlot)
	if err != nil || !backend.IsConfigured() {
		logger.Warn("validation backend unavailable",
			observability.String("role", string(route.ValidatorSlot)),
		)
		return nil
	}

	key := o.keys.Validation(destination)
	findings, hit, err := cache.GetOrSetJSON[[]domain.LocationFinding](ctx, o.cache, key, o.ttls.Location, func(ctx context.Context) ([]domain.LocationFinding, error) {
		res, err := callGuarded(ctx, o, run, tier.MaxRetries, backend, "validate_locations", func(ctx context.Context) (*domain.ValidationResult, error) {
			return backend.ValidateLocations(ctx, destination)
		})
		if err != nil {
			return nil, err
		}
		o.recordCall(ctx, run, backend, res.Usage)
		return res.Findings, nil
	})
	if err != nil {
		logger.Warn("location validation failed",
			observability.String("backend", backend.Name()),
			observability.String("code", string(domain.CodeOf(err))),
			observability.Error(err),
		)
		return nil
	}

	if hit {
		run.addCacheHit()
	}
	logger.Info("location findings ready",
		observability.Int("findings", len(findings)),
		observability.Bool("cached", hit),
	)
	return findings
}

// fetchCandidates returns the candidate-pool snapshot for the destination,
// cache-wrapped. Pool failures degrade to an empty snapshot.
func (o *Orchestrator) fetchCandidates(ctx context.Context, destination string, run *runState) []domain.Candidate {
	logger := observability.FromContext(ctx)

	key := o.keys.Pool(destination, o.cfg.PoolMinQuality, o.cfg.PoolLimit)
	candidates, hit, err := cache.GetOrSetJSON[[]domain.Candidate](ctx, o.cache, key, o.ttls.Location, func(ctx context.Context) ([]domain.Candidate, error) {
		return o.pool.FetchCandidatePool(ctx, destination, o.cfg.PoolMinQuality, o.cfg.PoolLimit)
	})
	if err != nil {
		logger.Warn("candidate pool unavailable", observability.Error(err))
		return nil
	}

	if hit {
		run.addCacheHit()
	}
	return candidates
}
