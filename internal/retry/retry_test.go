package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/retry"
)

func fastPolicy(maxRetries int) retry.Policy {
	return retry.Policy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestDo_RetryBound(t *testing.T) {
	t.Run("should invoke the call at most maxRetries+1 times", func(t *testing.T) {
		calls := 0
		_, err := retry.Do(context.Background(), fastPolicy(3), func(_ context.Context) (string, error) {
			calls++
			return "", domain.NewTransientError("openai", "boom", nil)
		})
		require.Error(t, err)
		require.Equal(t, 4, calls)
	})

	t.Run("should return the result on first success", func(t *testing.T) {
		calls := 0
		got, err := retry.Do(context.Background(), fastPolicy(3), func(_ context.Context) (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		require.Equal(t, "ok", got)
		require.Equal(t, 1, calls)
	})

	t.Run("should succeed after transient failures", func(t *testing.T) {
		calls := 0
		got, err := retry.Do(context.Background(), fastPolicy(3), func(_ context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, domain.NewTransientError("gemini", "upstream 503", nil)
			}
			return 42, nil
		})
		require.NoError(t, err)
		require.Equal(t, 42, got)
		require.Equal(t, 3, calls)
	})
}

func TestDo_NonRetryable(t *testing.T) {
	t.Run("should never retry a non-retryable error", func(t *testing.T) {
		calls := 0
		_, err := retry.Do(context.Background(), fastPolicy(5), func(_ context.Context) (string, error) {
			calls++
			return "", domain.NewNonRetryableError("openai", "bad request", nil)
		})
		require.Error(t, err)
		require.Equal(t, 1, calls)
		require.Equal(t, domain.ErrCodeNonRetryable, domain.CodeOf(err))
	})

	t.Run("should honor a custom predicate", func(t *testing.T) {
		sentinel := errors.New("special")
		policy := fastPolicy(2)
		policy.RetryIf = func(err error) bool { return errors.Is(err, sentinel) }

		calls := 0
		_, err := retry.Do(context.Background(), policy, func(_ context.Context) (string, error) {
			calls++
			return "", sentinel
		})
		require.ErrorIs(t, err, sentinel)
		require.Equal(t, 3, calls)
	})
}

func TestDo_RetryAfterHint(t *testing.T) {
	t.Run("should stretch the delay to the provider hint", func(t *testing.T) {
		var delays []time.Duration
		policy := fastPolicy(1)
		policy.OnRetry = func(_ int, _ error, delay time.Duration) {
			delays = append(delays, delay)
		}

		start := time.Now()
		_, err := retry.Do(context.Background(), policy, func(_ context.Context) (string, error) {
			return "", domain.NewRateLimitedError("openai", "throttled", 30*time.Millisecond)
		})
		require.Error(t, err)
		require.Len(t, delays, 1)
		require.GreaterOrEqual(t, delays[0], 30*time.Millisecond)
		require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := retry.Policy{
		MaxRetries: 3,
		BaseDelay:  time.Hour, // the sleep must be interrupted
		MaxDelay:   time.Hour,
		Multiplier: 2.0,
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	calls := 0
	_, err := retry.Do(ctx, policy, func(_ context.Context) (string, error) {
		calls++
		return "", domain.NewTransientError("anthropic", "flaky", nil)
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestPolicy_Delay(t *testing.T) {
	policy := retry.Policy{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	t.Run("should grow without shrinking and cap at max", func(t *testing.T) {
		prev := time.Duration(0)
		for attempt := 0; attempt < 10; attempt++ {
			d := policy.Delay(attempt)
			require.GreaterOrEqual(t, d, prev)
			require.LessOrEqual(t, d, time.Second)
			prev = d
		}
	})

	t.Run("should follow the exponential curve before the cap", func(t *testing.T) {
		require.Equal(t, 100*time.Millisecond, policy.Delay(0))
		require.Equal(t, 200*time.Millisecond, policy.Delay(1))
		require.Equal(t, 400*time.Millisecond, policy.Delay(2))
		require.Equal(t, 800*time.Millisecond, policy.Delay(3))
		require.Equal(t, time.Second, policy.Delay(4))
	})
}

func TestDo_OnRetryObservesEveryRetry(t *testing.T) {
	var attempts []int
	policy := fastPolicy(2)
	policy.OnRetry = func(attempt int, err error, _ time.Duration) {
		require.Error(t, err)
		attempts = append(attempts, attempt)
	}

	_, err := retry.Do(context.Background(), policy, func(_ context.Context) (string, error) {
		return "", domain.NewTimeoutError("gemini", "deadline")
	})
	require.Error(t, err)
	require.Equal(t, []int{1, 2}, attempts)
}
