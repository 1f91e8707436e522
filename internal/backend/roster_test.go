package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/backend"
	"github.com/peregrine-ai/peregrine/internal/domain"
)

// stubBackend is a minimal domain.Backend for roster tests.
type stubBackend struct {
	name string
}

func (s *stubBackend) GenerateDraft(_ context.Context, _ domain.DraftRequest) (*domain.DraftResult, error) {
	return &domain.DraftResult{}, nil
}

func (s *stubBackend) ValidateLocations(_ context.Context, _ string) (*domain.ValidationResult, error) {
	return &domain.ValidationResult{}, nil
}

func (s *stubBackend) Review(_ context.Context, _ domain.ReviewRequest) (*domain.ReviewResult, error) {
	return &domain.ReviewResult{}, nil
}

func (s *stubBackend) Name() string       { return s.name }
func (s *stubBackend) Model() string      { return s.name + "-model" }
func (s *stubBackend) IsConfigured() bool { return true }

func TestRoster_Assign(t *testing.T) {
	t.Run("should assign backend to role", func(t *testing.T) {
		roster := backend.NewRoster()

		err := roster.Assign(domain.RoleGeneration, &stubBackend{name: "openai"})
		require.NoError(t, err)

		bound, err := roster.ForRole(domain.RoleGeneration)
		require.NoError(t, err)
		require.Equal(t, "openai", bound.Name())
	})

	t.Run("should replace an existing binding", func(t *testing.T) {
		roster := backend.NewRoster()

		require.NoError(t, roster.Assign(domain.RoleGeneration, &stubBackend{name: "openai"}))
		require.NoError(t, roster.Assign(domain.RoleGeneration, &stubBackend{name: "static"}))

		bound, err := roster.ForRole(domain.RoleGeneration)
		require.NoError(t, err)
		require.Equal(t, "static", bound.Name())
	})

	t.Run("should return error when backend is nil", func(t *testing.T) {
		roster := backend.NewRoster()

		err := roster.Assign(domain.RoleGeneration, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "backend cannot be nil")
	})

	t.Run("should return error when backend name is empty", func(t *testing.T) {
		roster := backend.NewRoster()

		err := roster.Assign(domain.RoleGeneration, &stubBackend{name: ""})
		require.Error(t, err)
		require.Contains(t, err.Error(), "backend name cannot be empty")
	})

	t.Run("should return error for unknown role", func(t *testing.T) {
		roster := backend.NewRoster()

		err := roster.Assign(domain.Role("narration"), &stubBackend{name: "openai"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown role")
	})
}

func TestRoster_ForRole(t *testing.T) {
	t.Run("should return error when role is unbound", func(t *testing.T) {
		roster := backend.NewRoster()

		_, err := roster.ForRole(domain.RoleSupervision)
		require.Error(t, err)
		require.Contains(t, err.Error(), "no backend assigned")
	})
}

func TestRoster_Roles(t *testing.T) {
	t.Run("should list bound roles in pipeline order", func(t *testing.T) {
		roster := backend.NewRoster()

		require.NoError(t, roster.Assign(domain.RoleSupervision, &stubBackend{name: "anthropic"}))
		require.NoError(t, roster.Assign(domain.RoleGeneration, &stubBackend{name: "openai"}))

		roles := roster.Roles()
		require.Equal(t, []domain.Role{domain.RoleGeneration, domain.RoleSupervision}, roles)
	})
}

func TestRoster_Backends(t *testing.T) {
	t.Run("should return distinct backends once", func(t *testing.T) {
		roster := backend.NewRoster()
		shared := &stubBackend{name: "static"}

		require.NoError(t, roster.Assign(domain.RoleGeneration, shared))
		require.NoError(t, roster.Assign(domain.RoleValidation, shared))
		require.NoError(t, roster.Assign(domain.RoleSupervision, &stubBackend{name: "anthropic"}))

		backends := roster.Backends()
		require.Len(t, backends, 2)
		require.Equal(t, "static", backends[0].Name())
		require.Equal(t, "anthropic", backends[1].Name())
	})

	t.Run("should return empty slice for empty roster", func(t *testing.T) {
		roster := backend.NewRoster()
		require.Empty(t, roster.Backends())
	})
}
