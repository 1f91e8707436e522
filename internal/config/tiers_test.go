package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/config"
	"github.com/peregrine-ai/peregrine/internal/domain"
)

func writeTiersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultTiers(t *testing.T) {
	tiers := config.DefaultTiers()

	t.Run("should define free, pro and premium", func(t *testing.T) {
		require.Len(t, tiers, 3)
		require.Contains(t, tiers, "free")
		require.Contains(t, tiers, "pro")
		require.Contains(t, tiers, "premium")
	})

	t.Run("should give free generation only with emergency fallback", func(t *testing.T) {
		free := tiers["free"]
		require.Equal(t, []domain.Role{domain.RoleGeneration}, free.Roles)
		require.Equal(t, domain.DepthNone, free.Supervision)
		require.False(t, free.AllowRevision)
		require.Equal(t, []domain.RouteName{domain.RouteEmergency}, free.Fallbacks)
	})

	t.Run("should give premium full supervision with revision", func(t *testing.T) {
		premium := tiers["premium"]
		require.ElementsMatch(t, domain.AllRoles(), premium.Roles)
		require.Equal(t, domain.DepthFull, premium.Supervision)
		require.True(t, premium.AllowRevision)
		require.Equal(t, 7, premium.QualityTarget)
	})

	t.Run("should order pro fallbacks cheapest degradation first", func(t *testing.T) {
		pro := tiers["pro"]
		require.Equal(t, []domain.RouteName{
			domain.RouteValidatorFallback,
			domain.RouteSupervisorFallback,
			domain.RouteGeneratorFallback,
			domain.RouteEmergency,
		}, pro.Fallbacks)
	})
}

func TestLoadTiers(t *testing.T) {
	t.Run("should return defaults when no file is configured", func(t *testing.T) {
		tiers, err := config.LoadTiers("")

		require.NoError(t, err)
		require.Equal(t, config.DefaultTiers(), tiers)
	})

	t.Run("should replace a default tier wholesale", func(t *testing.T) {
		path := writeTiersFile(t, `
tiers:
  pro:
    roles: [generation, validation]
    supervision: none
    max_retries: 1
    fallbacks: [validator-fallback, emergency]
`)

		tiers, err := config.LoadTiers(path)

		require.NoError(t, err)
		pro := tiers["pro"]
		require.Equal(t, "pro", pro.Name)
		require.Equal(t, []domain.Role{domain.RoleGeneration, domain.RoleValidation}, pro.Roles)
		require.Equal(t, domain.DepthNone, pro.Supervision)
		require.Equal(t, 1, pro.MaxRetries)
		require.Zero(t, pro.QualityTarget)
		require.Equal(t, []domain.RouteName{domain.RouteValidatorFallback, domain.RouteEmergency}, pro.Fallbacks)

		// Untouched tiers keep their defaults.
		require.Equal(t, config.DefaultTiers()["free"], tiers["free"])
	})

	t.Run("should add a tier the defaults do not know", func(t *testing.T) {
		path := writeTiersFile(t, `
tiers:
  enterprise:
    roles: [generation, validation, supervision]
    supervision: full
    max_retries: 3
    allow_revision: true
    quality_target: 8
    fallbacks: [validator-fallback, supervisor-fallback, generator-fallback, emergency]
`)

		tiers, err := config.LoadTiers(path)

		require.NoError(t, err)
		require.Len(t, tiers, 4)
		require.Equal(t, 8, tiers["enterprise"].QualityTarget)
		require.True(t, tiers["enterprise"].AllowRevision)
	})

	t.Run("should fail when the file does not exist", func(t *testing.T) {
		_, err := config.LoadTiers("/nonexistent/tiers.yaml")

		require.Error(t, err)
		require.Contains(t, err.Error(), "read tiers file")
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		path := writeTiersFile(t, "tiers: [not a map")

		_, err := config.LoadTiers(path)

		require.Error(t, err)
		require.Contains(t, err.Error(), "parse tiers file")
	})

	t.Run("should reject a tier without the generation role", func(t *testing.T) {
		path := writeTiersFile(t, `
tiers:
  broken:
    roles: [validation]
    supervision: none
`)

		_, err := config.LoadTiers(path)

		require.Error(t, err)
		require.Contains(t, err.Error(), "generation role required")
	})

	t.Run("should reject unknown roles and routes", func(t *testing.T) {
		path := writeTiersFile(t, `
tiers:
  broken:
    roles: [generation, telepathy]
    supervision: none
`)

		_, err := config.LoadTiers(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), `unknown role "telepathy"`)

		path = writeTiersFile(t, `
tiers:
  broken:
    roles: [generation]
    supervision: none
    fallbacks: [teleport]
`)

		_, err = config.LoadTiers(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), `unknown fallback route "teleport"`)
	})

	t.Run("should reject primary listed as a fallback", func(t *testing.T) {
		path := writeTiersFile(t, `
tiers:
  broken:
    roles: [generation]
    supervision: none
    fallbacks: [primary]
`)

		_, err := config.LoadTiers(path)

		require.Error(t, err)
		require.Contains(t, err.Error(), "primary is not a fallback route")
	})

	t.Run("should reject an out-of-range quality target", func(t *testing.T) {
		path := writeTiersFile(t, `
tiers:
  broken:
    roles: [generation]
    supervision: none
    quality_target: 11
`)

		_, err := config.LoadTiers(path)

		require.Error(t, err)
		require.Contains(t, err.Error(), "quality_target")
	})
}
