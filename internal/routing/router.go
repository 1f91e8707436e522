// Package routing selects the pipeline route a request will take, from a
// finite route table ordered per tier.
package routing

import (
	"github.com/peregrine-ai/peregrine/internal/breaker"
	"github.com/peregrine-ai/peregrine/internal/domain"
)

// routeSpec is one entry of the finite route table. RequiredRoles must all be
// live for the route to qualify; the remaining fields describe the trade-offs
// the route makes.
type routeSpec struct {
	name            domain.RouteName
	requiredRoles   []domain.Role
	generatorSlot   domain.Role
	skipValidation  bool
	skipSupervision bool
	reducedQuality  bool
	notice          string
}

// routeTable enumerates every route the router can choose. Order here is not
// preference order; tiers carry their own ordered fallback lists.
var routeTable = map[domain.RouteName]routeSpec{
	domain.RoutePrimary: {
		name:          domain.RoutePrimary,
		generatorSlot: domain.RoleGeneration,
	},
	domain.RouteValidatorFallback: {
		name:           domain.RouteValidatorFallback,
		requiredRoles:  []domain.Role{domain.RoleGeneration, domain.RoleSupervision},
		generatorSlot:  domain.RoleGeneration,
		skipValidation: true,
		notice:         "location validation was unavailable for this plan",
	},
	domain.RouteSupervisorFallback: {
		name:            domain.RouteSupervisorFallback,
		requiredRoles:   []domain.Role{domain.RoleGeneration, domain.RoleValidation},
		generatorSlot:   domain.RoleGeneration,
		skipSupervision: true,
		notice:          "editorial review was unavailable for this plan",
	},
	domain.RouteGeneratorFallback: {
		name:            domain.RouteGeneratorFallback,
		requiredRoles:   []domain.Role{domain.RoleSupervision},
		generatorSlot:   domain.RoleSupervision,
		skipSupervision: true,
		reducedQuality:  true,
		notice:          "plan was produced by a backup generator",
	},
	domain.RouteEmergency: {
		name:            domain.RouteEmergency,
		generatorSlot:   domain.RoleGeneration,
		skipValidation:  true,
		skipSupervision: true,
		reducedQuality:  true,
		notice:          "minimal plan produced during a service disruption",
	},
}

// Router implements domain.Router over the live roster and breaker state.
type Router struct {
	roster   domain.BackendRoster
	breakers *breaker.Manager
}

// NewRouter creates a new router.
func NewRouter(roster domain.BackendRoster, breakers *breaker.Manager) *Router {
	return &Router{
		roster:   roster,
		breakers: breakers,
	}
}

// DetermineRoute resolves a tier to a route decision. Availability is read as
// a snapshot projection, so repeated calls against unchanged breaker state
// return the same route.
func (r *Router) DetermineRoute(tier domain.TierConfig) domain.RouteDecision {
	live := r.liveRoles(tier)

	if allLive(tier.Roles, live) {
		return decisionFor(routeTable[domain.RoutePrimary], tier)
	}

	for _, name := range tier.Fallbacks {
		spec, ok := routeTable[name]
		if !ok || name == domain.RoutePrimary {
			continue
		}
		if name == domain.RouteEmergency {
			return decisionFor(spec, tier)
		}
		if tierCovers(tier, spec.requiredRoles) && allLive(spec.requiredRoles, live) {
			return decisionFor(spec, tier)
		}
	}

	return decisionFor(routeTable[domain.RouteEmergency], tier)
}

// liveRoles computes the availability snapshot: a role is live when the tier
// includes it, a configured backend is bound to it, and that backend's
// breaker admits calls.
func (r *Router) liveRoles(tier domain.TierConfig) map[domain.Role]bool {
	live := make(map[domain.Role]bool, len(tier.Roles))
	for _, role := range tier.Roles {
		backend, err := r.roster.ForRole(role)
		if err != nil || !backend.IsConfigured() {
			live[role] = false
			continue
		}
		live[role] = r.breakers.Get(backend.Name()).Available()
	}
	return live
}

// decisionFor composes the concrete decision for a route under a tier.
func decisionFor(spec routeSpec, tier domain.TierConfig) domain.RouteDecision {
	decision := domain.RouteDecision{
		Name:           spec.name,
		GeneratorSlot:  spec.generatorSlot,
		ReducedQuality: spec.reducedQuality,
		Notice:         spec.notice,
	}

	if tier.Includes(domain.RoleValidation) && !spec.skipValidation {
		decision.Validate = true
		decision.ValidatorSlot = domain.RoleValidation
	}

	if tier.Includes(domain.RoleSupervision) && tier.Supervision != domain.DepthNone && !spec.skipSupervision {
		decision.Supervise = true
		decision.SupervisorSlot = domain.RoleSupervision
	}

	return decision
}

// allLive reports whether every listed role is live.
func allLive(roles []domain.Role, live map[domain.Role]bool) bool {
	for _, role := range roles {
		if !live[role] {
			return false
		}
	}
	return true
}

// tierCovers reports whether the tier's contract includes every listed role.
func tierCovers(tier domain.TierConfig, roles []domain.Role) bool {
	for _, role := range roles {
		if !tier.Includes(role) {
			return false
		}
	}
	return true
}
