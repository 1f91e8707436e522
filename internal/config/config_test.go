package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 300, cfg.Server.WriteTimeout)
		require.Equal(t, 5, cfg.Breaker.FailureThreshold)
		require.Equal(t, 30, cfg.Breaker.ResetTimeout)
		require.Equal(t, 1, cfg.Breaker.HalfOpenProbes)
		require.Equal(t, "peregrine", cfg.Cache.KeyPrefix)
		require.Equal(t, 21600, cfg.Cache.LocationTTL)
		require.Equal(t, 90, cfg.Pipeline.CallTimeout)
		require.Equal(t, 2.0, cfg.Pipeline.RetryMultiplier)
		require.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
		require.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
		require.Equal(t, "claude-3-5-sonnet-20241022", cfg.Anthropic.Model)
		require.Empty(t, cfg.OpenAI.APIKey)
		require.Empty(t, cfg.Redis.Addr)
		require.Empty(t, cfg.Pool.DBPath)
		require.Empty(t, cfg.TiersFile)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("BREAKER_FAILURE_THRESHOLD", "3")
		t.Setenv("BREAKER_RESET_TIMEOUT", "10")
		t.Setenv("CACHE_KEY_PREFIX", "travel")
		t.Setenv("CACHE_RESULT_TTL", "60")
		t.Setenv("PIPELINE_CALL_TIMEOUT", "45")
		t.Setenv("RETRY_BASE_DELAY", "100")
		t.Setenv("OPENAI_API_KEY", "sk-test-key")
		t.Setenv("GEMINI_MODEL", "gemini-1.5-flash")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("POOL_DB_PATH", "/tmp/pool.db")
		t.Setenv("TIERS_FILE", "/etc/peregrine/tiers.yaml")

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify loaded values
		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, 3, cfg.Breaker.FailureThreshold)
		require.Equal(t, 10, cfg.Breaker.ResetTimeout)
		require.Equal(t, "travel", cfg.Cache.KeyPrefix)
		require.Equal(t, 60, cfg.Cache.ResultTTL)
		require.Equal(t, 45, cfg.Pipeline.CallTimeout)
		require.Equal(t, 100, cfg.Pipeline.RetryBaseDelay)
		require.Equal(t, "sk-test-key", cfg.OpenAI.APIKey)
		require.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, "/tmp/pool.db", cfg.Pool.DBPath)
		require.Equal(t, "/etc/peregrine/tiers.yaml", cfg.TiersFile)
	})

	t.Run("should convert sub-configs to package settings", func(t *testing.T) {
		os.Clearenv()

		cfg := config.Load()

		settings := cfg.Breaker.Settings()
		require.Equal(t, 5, settings.FailureThreshold)
		require.Equal(t, 30*time.Second, settings.ResetTimeout)
		require.Equal(t, 1, settings.HalfOpenMaxProbes)

		ttls := cfg.Cache.TTLs()
		require.Equal(t, 6*time.Hour, ttls.Location)
		require.Equal(t, 2*time.Hour, ttls.Review)
		require.Equal(t, 30*time.Minute, ttls.Result)
		require.Equal(t, 5*time.Minute, cfg.Cache.SweepEvery())

		pipeline := cfg.Pipeline.Orchestrator()
		require.Equal(t, 90*time.Second, pipeline.CallTimeout)
		require.Equal(t, 500*time.Millisecond, pipeline.Retry.BaseDelay)
		require.Equal(t, 30*time.Second, pipeline.Retry.MaxDelay)
		require.Equal(t, 6.0, pipeline.PoolMinQuality)
		require.Equal(t, 10, pipeline.PoolLimit)
		require.Equal(t, 14, pipeline.MaxDays)
	})
}
