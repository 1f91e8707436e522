package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

func TestBackendError_Retryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *domain.BackendError
		retryable bool
	}{
		{
			name:      "rate limited is retryable",
			err:       domain.NewRateLimitedError("openai", "too many requests", 2*time.Second),
			retryable: true,
		},
		{
			name:      "transient is retryable",
			err:       domain.NewTransientError("gemini", "upstream 503", nil),
			retryable: true,
		},
		{
			name:      "timeout is retryable",
			err:       domain.NewTimeoutError("anthropic", "call deadline exceeded"),
			retryable: true,
		},
		{
			name:      "non-retryable is not retryable",
			err:       domain.NewNonRetryableError("openai", "malformed response", nil),
			retryable: false,
		},
		{
			name:      "circuit open is not retryable",
			err:       &domain.BackendError{Backend: "gemini", Code: domain.ErrCodeCircuitOpen, Message: "breaker open"},
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.retryable, tt.err.Retryable())
			require.Equal(t, tt.retryable, domain.IsRetryable(tt.err))
		})
	}
}

func TestIsRetryable_WrappedAndPlainErrors(t *testing.T) {
	t.Run("should see through wrapping", func(t *testing.T) {
		inner := domain.NewTransientError("openai", "connection reset", nil)
		wrapped := fmt.Errorf("phase 1 draft: %w", inner)
		require.True(t, domain.IsRetryable(wrapped))
	})

	t.Run("should not retry plain errors", func(t *testing.T) {
		require.False(t, domain.IsRetryable(errors.New("something broke")))
	})

	t.Run("should not retry nil", func(t *testing.T) {
		require.False(t, domain.IsRetryable(nil))
	})
}

func TestRetryAfterHint(t *testing.T) {
	t.Run("should surface the provider hint", func(t *testing.T) {
		err := domain.NewRateLimitedError("openai", "throttled", 5*time.Second)
		wrapped := fmt.Errorf("draft generation: %w", err)
		require.Equal(t, 5*time.Second, domain.RetryAfterHint(wrapped))
	})

	t.Run("should return zero without a hint", func(t *testing.T) {
		require.Equal(t, time.Duration(0), domain.RetryAfterHint(errors.New("nope")))
	})
}

func TestCodeOf(t *testing.T) {
	err := domain.NewTimeoutError("gemini", "deadline")
	require.Equal(t, domain.ErrCodeTimeout, domain.CodeOf(fmt.Errorf("validation: %w", err)))
	require.Equal(t, domain.ErrorCode(""), domain.CodeOf(errors.New("plain")))
}
