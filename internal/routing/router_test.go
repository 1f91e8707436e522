package routing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/backend"
	"github.com/peregrine-ai/peregrine/internal/breaker"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/routing"
)

// fakeBackend is a minimal domain.Backend whose configuration flag is
// controllable per test.
type fakeBackend struct {
	name       string
	configured bool
}

func (f *fakeBackend) GenerateDraft(_ context.Context, _ domain.DraftRequest) (*domain.DraftResult, error) {
	return &domain.DraftResult{}, nil
}

func (f *fakeBackend) ValidateLocations(_ context.Context, _ string) (*domain.ValidationResult, error) {
	return &domain.ValidationResult{}, nil
}

func (f *fakeBackend) Review(_ context.Context, _ domain.ReviewRequest) (*domain.ReviewResult, error) {
	return &domain.ReviewResult{}, nil
}

func (f *fakeBackend) Name() string       { return f.name }
func (f *fakeBackend) Model() string      { return f.name + "-model" }
func (f *fakeBackend) IsConfigured() bool { return f.configured }

func premiumTier() domain.TierConfig {
	return domain.TierConfig{
		Name:          "premium",
		Roles:         []domain.Role{domain.RoleGeneration, domain.RoleValidation, domain.RoleSupervision},
		Supervision:   domain.DepthFull,
		MaxRetries:    3,
		AllowRevision: true,
		QualityTarget: 7,
		Fallbacks: []domain.RouteName{
			domain.RouteValidatorFallback,
			domain.RouteSupervisorFallback,
			domain.RouteGeneratorFallback,
			domain.RouteEmergency,
		},
	}
}

func freeTier() domain.TierConfig {
	return domain.TierConfig{
		Name:        "free",
		Roles:       []domain.Role{domain.RoleGeneration},
		Supervision: domain.DepthNone,
		MaxRetries:  1,
		Fallbacks:   []domain.RouteName{domain.RouteGeneratorFallback, domain.RouteEmergency},
	}
}

// newFixture builds a roster of three configured backends, a one-strike
// breaker manager, and a router over both.
func newFixture(t *testing.T) (*routing.Router, *breaker.Manager) {
	t.Helper()

	roster := backend.NewRoster()
	require.NoError(t, roster.Assign(domain.RoleGeneration, &fakeBackend{name: "openai", configured: true}))
	require.NoError(t, roster.Assign(domain.RoleValidation, &fakeBackend{name: "gemini", configured: true}))
	require.NoError(t, roster.Assign(domain.RoleSupervision, &fakeBackend{name: "anthropic", configured: true}))

	breakers := breaker.NewManager(breaker.Config{FailureThreshold: 1, ResetTimeout: time.Hour})
	return routing.NewRouter(roster, breakers), breakers
}

func TestRouter_DetermineRoute(t *testing.T) {
	t.Run("should choose primary when every role is live", func(t *testing.T) {
		router, _ := newFixture(t)

		decision := router.DetermineRoute(premiumTier())
		require.Equal(t, domain.RoutePrimary, decision.Name)
		require.Equal(t, domain.RoleGeneration, decision.GeneratorSlot)
		require.True(t, decision.Validate)
		require.True(t, decision.Supervise)
		require.False(t, decision.ReducedQuality)
		require.Empty(t, decision.Notice)
	})

	t.Run("should skip validation when the validator is down", func(t *testing.T) {
		router, breakers := newFixture(t)
		breakers.Get("gemini").RecordFailure()

		decision := router.DetermineRoute(premiumTier())
		require.Equal(t, domain.RouteValidatorFallback, decision.Name)
		require.False(t, decision.Validate)
		require.True(t, decision.Supervise)
		require.NotEmpty(t, decision.Notice)
	})

	t.Run("should skip supervision when the supervisor is down", func(t *testing.T) {
		router, breakers := newFixture(t)
		breakers.Get("anthropic").RecordFailure()

		decision := router.DetermineRoute(premiumTier())
		require.Equal(t, domain.RouteSupervisorFallback, decision.Name)
		require.True(t, decision.Validate)
		require.False(t, decision.Supervise)
	})

	t.Run("should substitute the supervision slot when the generator is down", func(t *testing.T) {
		router, breakers := newFixture(t)
		breakers.Get("openai").RecordFailure()

		decision := router.DetermineRoute(premiumTier())
		require.Equal(t, domain.RouteGeneratorFallback, decision.Name)
		require.Equal(t, domain.RoleSupervision, decision.GeneratorSlot)
		require.False(t, decision.Supervise)
		require.True(t, decision.ReducedQuality)
	})

	t.Run("should fall through to emergency when every backend is down", func(t *testing.T) {
		router, breakers := newFixture(t)
		breakers.Get("openai").RecordFailure()
		breakers.Get("gemini").RecordFailure()
		breakers.Get("anthropic").RecordFailure()

		decision := router.DetermineRoute(premiumTier())
		require.Equal(t, domain.RouteEmergency, decision.Name)
		require.False(t, decision.Validate)
		require.False(t, decision.Supervise)
		require.True(t, decision.ReducedQuality)
	})

	t.Run("should treat an unconfigured backend as down", func(t *testing.T) {
		roster := backend.NewRoster()
		require.NoError(t, roster.Assign(domain.RoleGeneration, &fakeBackend{name: "openai", configured: true}))
		require.NoError(t, roster.Assign(domain.RoleValidation, &fakeBackend{name: "gemini", configured: false}))
		require.NoError(t, roster.Assign(domain.RoleSupervision, &fakeBackend{name: "anthropic", configured: true}))

		breakers := breaker.NewManager(breaker.DefaultConfig())
		router := routing.NewRouter(roster, breakers)

		decision := router.DetermineRoute(premiumTier())
		require.Equal(t, domain.RouteValidatorFallback, decision.Name)
	})

	t.Run("should treat an unbound role as down", func(t *testing.T) {
		roster := backend.NewRoster()
		require.NoError(t, roster.Assign(domain.RoleGeneration, &fakeBackend{name: "openai", configured: true}))
		require.NoError(t, roster.Assign(domain.RoleValidation, &fakeBackend{name: "gemini", configured: true}))

		breakers := breaker.NewManager(breaker.DefaultConfig())
		router := routing.NewRouter(roster, breakers)

		decision := router.DetermineRoute(premiumTier())
		require.Equal(t, domain.RouteSupervisorFallback, decision.Name)
	})

	t.Run("should ignore fallback routes the tier does not cover", func(t *testing.T) {
		// The free tier lists generator-fallback, but its contract has no
		// supervision slot to substitute, so only emergency remains.
		router, breakers := newFixture(t)
		breakers.Get("openai").RecordFailure()

		decision := router.DetermineRoute(freeTier())
		require.Equal(t, domain.RouteEmergency, decision.Name)
	})

	t.Run("should never validate or supervise on the free tier", func(t *testing.T) {
		router, _ := newFixture(t)

		decision := router.DetermineRoute(freeTier())
		require.Equal(t, domain.RoutePrimary, decision.Name)
		require.False(t, decision.Validate)
		require.False(t, decision.Supervise)
	})

	t.Run("should return the same route for an unchanged snapshot", func(t *testing.T) {
		router, breakers := newFixture(t)
		breakers.Get("gemini").RecordFailure()

		first := router.DetermineRoute(premiumTier())
		for range 10 {
			require.Equal(t, first, router.DetermineRoute(premiumTier()))
		}
	})
}
