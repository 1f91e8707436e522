// Package retry wraps a single backend call with bounded exponential backoff.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// Policy controls how a call is retried. The zero value never retries.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay regardless of attempt count.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor between attempts.
	Multiplier float64

	// Jitter is the fraction of the delay randomized in both directions,
	// e.g. 0.3 spreads each delay across [0.7d, 1.3d].
	Jitter float64

	// RetryIf classifies an error as retryable. Defaults to domain.IsRetryable.
	RetryIf func(error) bool

	// OnRetry fires once before each retry, for observability only. It must
	// not affect control flow.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy is the retry posture used around provider calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.3,
	}
}

// Do runs fn under the policy. Attempt 0 is the initial call; each retryable
// failure sleeps the computed backoff (context-aware) and tries again. A
// provider-suggested wait overrides the computed delay when larger.
// Exhausting retries returns the last error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = domain.IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == p.MaxRetries || !retryIf(err) {
			break
		}

		delay := p.jittered(attempt)
		if hint := domain.RetryAfterHint(err); hint > delay {
			delay = hint
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// Delay returns the exponential delay for a zero-based attempt before
// jitter, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// jittered spreads the computed delay across [1-Jitter, 1+Jitter].
func (p Policy) jittered(attempt int) time.Duration {
	base := p.Delay(attempt)
	if p.Jitter <= 0 || base <= 0 {
		return base
	}
	factor := 1 + p.Jitter*(2*rand.Float64()-1)
	return time.Duration(float64(base) * factor)
}
