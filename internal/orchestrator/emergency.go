package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

// runEmergency walks the remaining live backends one at a time for a minimal
// draft-only plan. First success wins; exhausting every backend is the
// terminal pipeline failure.
func (o *Orchestrator) runEmergency(ctx context.Context, req domain.PlanRequest, run *runState) *domain.PlanResult {
	started := time.Now()
	defer func() { run.setEmergencyLatency(time.Since(started)) }()

	logger := observability.FromContext(ctx)
	dreq := domain.DraftRequest{
		Destination: req.Params.Destination,
		Days:        req.Params.Days,
		Interests:   req.Params.Interests,
		Style:       req.Params.Style,
		Budget:      req.Params.Budget,
	}

	for _, backend := range o.emergencyCandidates(run) {
		res, err := callGuarded(ctx, o, run, 0, backend, "emergency_draft", func(ctx context.Context) (*domain.DraftResult, error) {
			return backend.GenerateDraft(ctx, dreq)
		})
		if err != nil {
			logger.Warn("emergency draft failed",
				observability.String("backend", backend.Name()),
				observability.String("code", string(domain.CodeOf(err))),
				observability.Error(err),
			)
			continue
		}

		o.recordCall(ctx, run, backend, res.Usage)
		logger.Info("emergency draft produced", observability.String("backend", backend.Name()))
		return &domain.PlanResult{Success: true, Plan: &res.Draft}
	}

	return failureResult(fmt.Sprintf("%s: every configured backend failed to produce a plan", domain.ErrCodePipelineExhausted))
}

// emergencyCandidates lists the configured backends not already exhausted
// this run, in pipeline-role order, with the dedicated emergency backend
// last.
func (o *Orchestrator) emergencyCandidates(run *runState) []domain.Backend {
	var backends []domain.Backend
	seen := make(map[string]bool)

	for _, role := range domain.AllRoles() {
		backend, err := o.roster.ForRole(role)
		if err != nil || !backend.IsConfigured() {
			continue
		}
		name := backend.Name()
		if seen[name] || run.hasFailed(name) {
			continue
		}
		seen[name] = true
		backends = append(backends, backend)
	}

	if o.emergency != nil && o.emergency.IsConfigured() {
		name := o.emergency.Name()
		if !seen[name] && !run.hasFailed(name) {
			backends = append(backends, o.emergency)
		}
	}
	return backends
}
