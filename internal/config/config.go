// Package config loads the process configuration: flat settings from the
// environment (with optional .env files) and the tier table from an optional
// YAML overlay. Everything is static after Load.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/peregrine-ai/peregrine/internal/backend/anthropic"
	"github.com/peregrine-ai/peregrine/internal/backend/gemini"
	"github.com/peregrine-ai/peregrine/internal/backend/openai"
	"github.com/peregrine-ai/peregrine/internal/breaker"
	"github.com/peregrine-ai/peregrine/internal/cache"
	"github.com/peregrine-ai/peregrine/internal/cache/redis"
	"github.com/peregrine-ai/peregrine/internal/metrics"
	"github.com/peregrine-ai/peregrine/internal/orchestrator"
	"github.com/peregrine-ai/peregrine/internal/pool"
	"github.com/peregrine-ai/peregrine/internal/retry"
)

// Config represents the orchestration service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Breaker   BreakerConfig
	Cache     CacheConfig
	Pipeline  PipelineConfig
	Metrics   metrics.Config
	Redis     redis.Config
	Pool      pool.Config
	OpenAI    openai.Config
	Gemini    gemini.Config
	Anthropic anthropic.Config

	// TiersFile points at an optional YAML tier table overlaying the
	// compiled-in defaults.
	TiersFile string `env:"TIERS_FILE"`
}

// ServerConfig contains HTTP server settings. The write timeout leaves room
// for a full pipeline run, which can hold the connection for minutes.
type ServerConfig struct {
	Port            int `env:"SERVER_PORT"             envDefault:"8080"`
	ReadTimeout     int `env:"SERVER_READ_TIMEOUT"     envDefault:"30"`
	WriteTimeout    int `env:"SERVER_WRITE_TIMEOUT"    envDefault:"300"`
	ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// BreakerConfig contains the circuit-breaker tuning shared by every backend.
type BreakerConfig struct {
	FailureThreshold int `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	ResetTimeout     int `env:"BREAKER_RESET_TIMEOUT"     envDefault:"30"` // seconds
	HalfOpenProbes   int `env:"BREAKER_HALF_OPEN_PROBES"  envDefault:"1"`
}

// Settings converts to the breaker package's config.
func (c *BreakerConfig) Settings() breaker.Config {
	return breaker.Config{
		FailureThreshold:  c.FailureThreshold,
		ResetTimeout:      time.Duration(c.ResetTimeout) * time.Second,
		HalfOpenMaxProbes: c.HalfOpenProbes,
	}
}

// CacheConfig contains cache keying and the TTL per semantic class.
type CacheConfig struct {
	KeyPrefix     string `env:"CACHE_KEY_PREFIX"     envDefault:"peregrine"`
	LocationTTL   int    `env:"CACHE_LOCATION_TTL"   envDefault:"21600"` // seconds
	ReviewTTL     int    `env:"CACHE_REVIEW_TTL"     envDefault:"7200"`
	ResultTTL     int    `env:"CACHE_RESULT_TTL"     envDefault:"1800"`
	SweepInterval int    `env:"CACHE_SWEEP_INTERVAL" envDefault:"300"`
}

// Keys derives the namespaced key builder.
func (c *CacheConfig) Keys() cache.Keys {
	return cache.Keys{Prefix: c.KeyPrefix}
}

// TTLs converts to the cache package's TTL classes.
func (c *CacheConfig) TTLs() cache.TTLConfig {
	return cache.TTLConfig{
		Location: time.Duration(c.LocationTTL) * time.Second,
		Review:   time.Duration(c.ReviewTTL) * time.Second,
		Result:   time.Duration(c.ResultTTL) * time.Second,
	}
}

// SweepEvery returns the local-tier janitor interval.
func (c *CacheConfig) SweepEvery() time.Duration {
	return time.Duration(c.SweepInterval) * time.Second
}

// PipelineConfig tunes the orchestration pipeline and its retry posture.
type PipelineConfig struct {
	CallTimeout     int     `env:"PIPELINE_CALL_TIMEOUT" envDefault:"90"` // seconds
	MaxDays         int     `env:"PIPELINE_MAX_DAYS"     envDefault:"14"`
	RetryBaseDelay  int     `env:"RETRY_BASE_DELAY"      envDefault:"500"` // milliseconds
	RetryMaxDelay   int     `env:"RETRY_MAX_DELAY"       envDefault:"30000"`
	RetryMultiplier float64 `env:"RETRY_MULTIPLIER"      envDefault:"2.0"`
	PoolMinQuality  float64 `env:"POOL_MIN_QUALITY"      envDefault:"6.0"`
	PoolLimit       int     `env:"POOL_LIMIT"            envDefault:"10"`
}

// Orchestrator converts to the orchestrator package's config. Tier tables
// override the retry attempt bound per request, so no bound is set here.
func (c *PipelineConfig) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		Retry: retry.Policy{
			BaseDelay:  time.Duration(c.RetryBaseDelay) * time.Millisecond,
			MaxDelay:   time.Duration(c.RetryMaxDelay) * time.Millisecond,
			Multiplier: c.RetryMultiplier,
			Jitter:     0.3,
		},
		CallTimeout:    time.Duration(c.CallTimeout) * time.Second,
		PoolMinQuality: c.PoolMinQuality,
		PoolLimit:      c.PoolLimit,
		MaxDays:        c.MaxDays,
	}
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server    *ServerConfig
	CORS      *CORSConfig
	Breaker   *BreakerConfig
	Cache     *CacheConfig
	Pipeline  *PipelineConfig
	Metrics   *metrics.Config
	Redis     *redis.Config
	Pool      *pool.Config
	OpenAI    *openai.Config
	Gemini    *gemini.Config
	Anthropic *anthropic.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:    &cfg.Server,
		CORS:      &cfg.CORS,
		Breaker:   &cfg.Breaker,
		Cache:     &cfg.Cache,
		Pipeline:  &cfg.Pipeline,
		Metrics:   &cfg.Metrics,
		Redis:     &cfg.Redis,
		Pool:      &cfg.Pool,
		OpenAI:    &cfg.OpenAI,
		Gemini:    &cfg.Gemini,
		Anthropic: &cfg.Anthropic,
	}
}
