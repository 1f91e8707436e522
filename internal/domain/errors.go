package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies a backend failure for the retry and routing layers.
type ErrorCode string

const (
	// ErrCodeRateLimited is a provider throttle. Retryable; may carry a
	// suggested wait.
	ErrCodeRateLimited ErrorCode = "rate-limited"
	// ErrCodeTransient is a generic network or 5xx provider failure. Retryable.
	ErrCodeTransient ErrorCode = "transient-provider"
	// ErrCodeNonRetryable is a bad request or a malformed provider response.
	// Never retried.
	ErrCodeNonRetryable ErrorCode = "non-retryable-provider"
	// ErrCodeTimeout is a per-call deadline expiry. Treated as transient.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCircuitOpen means the backend's breaker refused the call. Not a
	// retry target; the router picks another route instead.
	ErrCodeCircuitOpen ErrorCode = "circuit-open"
	// ErrCodePipelineExhausted means every configured route and the emergency
	// path failed.
	ErrCodePipelineExhausted ErrorCode = "pipeline-exhausted"
)

// BackendError is the typed failure every backend adapter surfaces.
type BackendError struct {
	Backend    string
	Code       ErrorCode
	Message    string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *BackendError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Backend, e.Code, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Retryable reports whether the retry layer may attempt this error again.
func (e *BackendError) Retryable() bool {
	switch e.Code {
	case ErrCodeRateLimited, ErrCodeTransient, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// NewRateLimitedError builds a throttle error. retryAfter may be zero when
// the provider gave no hint.
func NewRateLimitedError(backend, message string, retryAfter time.Duration) *BackendError {
	return &BackendError{Backend: backend, Code: ErrCodeRateLimited, Message: message, StatusCode: 429, RetryAfter: retryAfter}
}

// NewTransientError builds a retryable provider failure.
func NewTransientError(backend, message string, err error) *BackendError {
	return &BackendError{Backend: backend, Code: ErrCodeTransient, Message: message, Err: err}
}

// NewNonRetryableError builds a terminal provider failure.
func NewNonRetryableError(backend, message string, err error) *BackendError {
	return &BackendError{Backend: backend, Code: ErrCodeNonRetryable, Message: message, Err: err}
}

// NewTimeoutError builds a deadline failure.
func NewTimeoutError(backend, message string) *BackendError {
	return &BackendError{Backend: backend, Code: ErrCodeTimeout, Message: message}
}

// IsRetryable is the default retry predicate: rate limits, transient provider
// failures, and timeouts are retried; everything else, including unclassified
// errors, is not.
func IsRetryable(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Retryable()
	}
	return false
}

// CodeOf extracts the taxonomy code from an error chain, or "" when the error
// carries none.
func CodeOf(err error) ErrorCode {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// RetryAfterHint extracts a provider-suggested wait from an error chain.
// Zero means no hint.
func RetryAfterHint(err error) time.Duration {
	var be *BackendError
	if errors.As(err, &be) {
		return be.RetryAfter
	}
	return 0
}
