package domain

import "context"

// Backend represents any content backend that can fill a pipeline role.
// Every backend answers all three operations so fallback routes can reassign
// roles between slots.
type Backend interface {
	// GenerateDraft produces a structured travel plan, or a single
	// replacement activity when the request targets one.
	GenerateDraft(ctx context.Context, req DraftRequest) (*DraftResult, error)

	// ValidateLocations returns location facts for a destination.
	ValidateLocations(ctx context.Context, destination string) (*ValidationResult, error)

	// Review judges a draft against findings and candidates at the given depth.
	Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error)

	// Name returns the backend identifier.
	Name() string

	// Model returns the model this backend is configured to call.
	Model() string

	// IsConfigured reports whether static configuration (keys, endpoints) is
	// present. It never performs network I/O.
	IsConfigured() bool
}

// BackendRoster binds backends to pipeline roles.
type BackendRoster interface {
	// Assign binds a backend to a role, replacing any previous binding.
	Assign(role Role, backend Backend) error

	// ForRole retrieves the backend bound to a role.
	ForRole(role Role) (Backend, error)

	// Roles returns the roles that currently have a backend bound.
	Roles() []Role

	// Backends returns each distinct bound backend once.
	Backends() []Backend
}

// Router selects the route a request will take.
type Router interface {
	// DetermineRoute resolves a tier to a concrete route decision. It
	// observes breaker availability but never consumes probe admissions, so
	// repeated calls against an unchanged snapshot return the same route.
	DetermineRoute(tier TierConfig) RouteDecision
}

// CandidatePool supplies pre-vetted locations for a destination. Expected to
// be cheap and safe to cache.
type CandidatePool interface {
	// FetchCandidatePool returns up to limit candidates at or above
	// minQuality, best first.
	FetchCandidatePool(ctx context.Context, destination string, minQuality float64, limit int) ([]Candidate, error)
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

// Orchestration event types.
const (
	EventRunStarted    = "run.started"
	EventRunCompleted  = "run.completed"
	EventRunFailed     = "run.failed"
	EventFallbackTaken = "fallback.taken"
)
