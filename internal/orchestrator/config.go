package orchestrator

import (
	"time"

	"github.com/peregrine-ai/peregrine/internal/retry"
)

// Config tunes the pipeline around the injected collaborators.
type Config struct {
	// Retry is the base retry posture for backend calls. Each tier's
	// MaxRetries overrides the attempt bound.
	Retry retry.Policy

	// CallTimeout is the hard per-attempt deadline applied to every backend
	// call.
	CallTimeout time.Duration

	// PoolMinQuality is the quality floor passed to the candidate pool.
	PoolMinQuality float64

	// PoolLimit caps how many candidates are fetched per request.
	PoolLimit int

	// MaxDays caps the plannable trip length; longer requests are clamped.
	MaxDays int
}

// DefaultConfig returns the pipeline tuning used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Retry:          retry.DefaultPolicy(),
		CallTimeout:    90 * time.Second,
		PoolMinQuality: 6.0,
		PoolLimit:      10,
		MaxDays:        14,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Retry.BaseDelay <= 0 {
		c.Retry = def.Retry
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.PoolMinQuality <= 0 {
		c.PoolMinQuality = def.PoolMinQuality
	}
	if c.PoolLimit <= 0 {
		c.PoolLimit = def.PoolLimit
	}
	if c.MaxDays <= 0 {
		c.MaxDays = def.MaxDays
	}
	return c
}
