package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/peregrine-ai/peregrine/internal/cache"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

// runPhase2 reviews the draft and, when the tier permits, applies one
// revision cycle. Supervision failure always degrades to the unsupervised
// Phase 1 draft, never to a request failure.
func (o *Orchestrator) runPhase2(ctx context.Context, tier domain.TierConfig, route domain.RouteDecision, run *runState, draft domain.Draft, findings []domain.LocationFinding, candidates []domain.Candidate) *domain.PlanResult {
	started := time.Now()
	defer func() { run.setPhase2Latency(time.Since(started)) }()

	logger := observability.FromContext(ctx)

	supervisor, err := o.roster.ForRole(route.SupervisorSlot)
	if err != nil || !supervisor.IsConfigured() {
		logger.Warn("supervision backend unavailable",
			observability.String("role", string(route.SupervisorSlot)),
		)
		run.addNotice(reviewUnavailableNotice)
		return &domain.PlanResult{Success: true, Plan: &draft}
	}

	outcome := o.review(ctx, tier, supervisor, draft, findings, candidates, run)
	if outcome == nil {
		run.addNotice(reviewUnavailableNotice)
		return &domain.PlanResult{Success: true, Plan: &draft}
	}

	final := draft
	if !outcome.Approved && tier.AllowRevision && len(outcome.Replacements) > 0 {
		final = o.revise(ctx, route, run, draft, findings, candidates, outcome.Replacements)
	}

	return &domain.PlanResult{
		Success:      true,
		Plan:         &final,
		QualityScore: outcome.QualityScore,
		Issues:       outcome.Issues,
	}
}

// review asks the supervisor for a judgement, consulting the review cache
// first so an identical draft is never re-reviewed within the TTL. Returns
// nil when supervision failed.
func (o *Orchestrator) review(ctx context.Context, tier domain.TierConfig, supervisor domain.Backend, draft domain.Draft, findings []domain.LocationFinding, candidates []domain.Candidate, run *runState) *domain.ReviewOutcome {
	logger := observability.FromContext(ctx)

	key := o.keys.Review(draft, tier.Supervision)
	outcome, hit, err := cache.GetOrSetJSON[domain.ReviewOutcome](ctx, o.cache, key, o.ttls.Review, func(ctx context.Context) (domain.ReviewOutcome, error) {
		res, err := callGuarded(ctx, o, run, tier.MaxRetries, supervisor, "review", func(ctx context.Context) (*domain.ReviewResult, error) {
			return supervisor.Review(ctx, domain.ReviewRequest{
				Draft:      draft,
				Findings:   findings,
				Candidates: candidates,
				Depth:      tier.Supervision,
			})
		})
		if err != nil {
			return domain.ReviewOutcome{}, err
		}
		o.recordCall(ctx, run, supervisor, res.Usage)
		return res.Outcome, nil
	})
	if err != nil {
		logger.Warn("review failed",
			observability.String("backend", supervisor.Name()),
			observability.String("code", string(domain.CodeOf(err))),
			observability.Error(err),
		)
		return nil
	}

	if hit {
		run.addCacheHit()
	}
	logger.Info("draft reviewed",
		observability.Bool("approved", outcome.Approved),
		observability.Int("quality_score", outcome.QualityScore),
		observability.Int("replacements", len(outcome.Replacements)),
		observability.Bool("cached", hit),
	)
	return &outcome
}

// revise applies the supervisor's replacements copy-on-write: each swap is an
// independent regeneration call, and a failed swap keeps the original
// activity and surfaces a notice. Runs at most once per request.
func (o *Orchestrator) revise(ctx context.Context, route domain.RouteDecision, run *runState, draft domain.Draft, findings []domain.LocationFinding, candidates []domain.Candidate, replacements []domain.Replacement) domain.Draft {
	logger := observability.FromContext(ctx)

	generator, err := o.roster.ForRole(route.GeneratorSlot)
	if err != nil || !generator.IsConfigured() {
		run.addNotice("proposed revisions could not be applied")
		return draft
	}

	revised := draft
	applied := 0
	for _, rep := range replacements {
		dreq := domain.DraftRequest{
			Destination: draft.Destination,
			Days:        len(draft.Days),
			Replacement: &domain.ReplacementSpec{
				Day:       rep.Day,
				Replace:   rep.Activity,
				Suggested: rep.Suggested,
				Reason:    rep.Reason,
			},
		}

		res, err := callGuarded(ctx, o, run, 0, generator, "replace_activity", func(ctx context.Context) (*domain.DraftResult, error) {
			return generator.GenerateDraft(ctx, dreq)
		})
		if err != nil {
			logger.Warn("replacement regeneration failed",
				observability.Int("day", rep.Day),
				observability.String("activity", rep.Activity),
				observability.Error(err),
			)
			run.addNotice(fmt.Sprintf("could not replace %q on day %d", rep.Activity, rep.Day))
			continue
		}
		o.recordCall(ctx, run, generator, res.Usage)

		activity, ok := firstActivity(res.Draft)
		if !ok {
			run.addNotice(fmt.Sprintf("could not replace %q on day %d", rep.Activity, rep.Day))
			continue
		}

		next, swapped := revised.WithReplacement(rep.Day, rep.Activity, activity)
		if !swapped {
			logger.Warn("replacement target not found",
				observability.Int("day", rep.Day),
				observability.String("activity", rep.Activity),
			)
			run.addNotice(fmt.Sprintf("could not replace %q on day %d", rep.Activity, rep.Day))
			continue
		}
		revised = next
		applied++
	}

	if applied > 0 {
		o.recheckRevised(ctx, revised, findings, candidates, run)
		logger.Info("revision cycle applied",
			observability.Int("replaced", applied),
			observability.Int("proposed", len(replacements)),
		)
	}
	return revised
}

// recheckRevised is the quick re-validation pass after a revision: every
// swapped-in activity must appear among the verified findings or the
// candidate pool. Misses surface as notices, not failures.
func (o *Orchestrator) recheckRevised(ctx context.Context, draft domain.Draft, findings []domain.LocationFinding, candidates []domain.Candidate, run *runState) {
	known := make(map[string]bool)
	for _, f := range findings {
		if f.Verdict == domain.VerdictVerified {
			known[strings.ToLower(f.Name)] = true
		}
	}
	for _, c := range candidates {
		known[strings.ToLower(c.Name)] = true
	}

	for _, day := range draft.Days {
		for _, act := range day.Activities {
			if act.Revised && !known[strings.ToLower(act.Name)] {
				observability.FromContext(ctx).Warn("revised activity not among verified locations",
					observability.String("activity", act.Name),
				)
				run.addNotice(fmt.Sprintf("replacement %q could not be verified", act.Name))
			}
		}
	}
}

// firstActivity returns the first named activity in a draft. Replacement
// replies arrive as a one-day draft wrapping a single activity.
func firstActivity(d domain.Draft) (domain.Activity, bool) {
	for _, day := range d.Days {
		for _, act := range day.Activities {
			if act.Name != "" {
				return act, true
			}
		}
	}
	return domain.Activity{}, false
}
