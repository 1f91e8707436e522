// Package openai provides a pipeline backend for the OpenAI API using the
// official SDK. It converts the pipeline operations into chat completions and
// classifies SDK failures into the shared error taxonomy.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/peregrine-ai/peregrine/internal/backend"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

const backendName = "openai"

// Backend implements domain.Backend for OpenAI.
type Backend struct {
	client      openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float64
	configured  bool
}

// New creates a new OpenAI backend. A backend built without an API key is
// still assignable to a role; every call on it fails until a key is set.
func New(config Config) *Backend {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// The orchestration layer owns retries and backoff.
		option.WithMaxRetries(0),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	return &Backend{
		client:      openai.NewClient(opts...),
		name:        backendName,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		configured:  config.APIKey != "",
	}
}

// GenerateDraft produces a travel plan, or a single replacement activity when
// the request targets one.
func (b *Backend) GenerateDraft(ctx context.Context, req domain.DraftRequest) (*domain.DraftResult, error) {
	system, user := backend.BuildDraftPrompt(req)

	text, usage, err := b.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	draft, err := backend.ParseGenerateReply(b.name, req, text)
	if err != nil {
		return nil, err
	}

	return &domain.DraftResult{Draft: *draft, Usage: usage}, nil
}

// ValidateLocations returns location facts for a destination.
func (b *Backend) ValidateLocations(ctx context.Context, destination string) (*domain.ValidationResult, error) {
	system, user := backend.BuildValidationPrompt(destination)

	text, usage, err := b.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	findings, err := backend.ParseFindings(b.name, text)
	if err != nil {
		return nil, err
	}

	return &domain.ValidationResult{Findings: findings, Usage: usage}, nil
}

// Review judges a draft at the requested depth.
func (b *Backend) Review(ctx context.Context, req domain.ReviewRequest) (*domain.ReviewResult, error) {
	system, user := backend.BuildReviewPrompt(req)

	text, usage, err := b.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	outcome, err := backend.ParseReview(b.name, text)
	if err != nil {
		return nil, err
	}

	return &domain.ReviewResult{Outcome: *outcome, Usage: usage}, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return b.name
}

// Model returns the configured model.
func (b *Backend) Model() string {
	return b.model
}

// IsConfigured reports whether an API key is present.
func (b *Backend) IsConfigured() bool {
	return b.configured
}

// complete sends one chat completion and returns the raw text plus usage.
func (b *Backend) complete(ctx context.Context, system, user string) (string, domain.Usage, error) {
	if !b.configured {
		return "", domain.Usage{}, domain.NewNonRetryableError(b.name, "API key is not configured", nil)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}

	if b.temperature > 0 {
		params.Temperature = openai.Float(b.temperature)
	}

	if b.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(b.maxTokens))
	}

	start := time.Now()

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		classified := classifyError(b.name, err)
		logger.Error("OpenAI API call failed", observability.Error(classified))
		return "", domain.Usage{}, classified
	}

	if len(resp.Choices) == 0 {
		return "", domain.Usage{}, domain.NewNonRetryableError(b.name, "response contains no choices", nil)
	}

	usage := domain.Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		Latency:      time.Since(start),
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", usage.InputTokens),
		observability.Int("completion_tokens", usage.OutputTokens),
	)

	return resp.Choices[0].Message.Content, usage, nil
}

// classifyError maps SDK failures into the shared taxonomy.
func classifyError(name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTimeoutError(name, "call deadline exceeded")
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusTooManyRequests:
			return &domain.BackendError{
				Backend:    name,
				Code:       domain.ErrCodeRateLimited,
				Message:    apierr.Message,
				StatusCode: apierr.StatusCode,
				RetryAfter: retryAfterHeader(apierr.Response),
				Err:        err,
			}
		case apierr.StatusCode >= http.StatusInternalServerError:
			return &domain.BackendError{
				Backend:    name,
				Code:       domain.ErrCodeTransient,
				Message:    apierr.Message,
				StatusCode: apierr.StatusCode,
				Err:        err,
			}
		default:
			return &domain.BackendError{
				Backend:    name,
				Code:       domain.ErrCodeNonRetryable,
				Message:    apierr.Message,
				StatusCode: apierr.StatusCode,
				Err:        err,
			}
		}
	}

	return domain.NewTransientError(name, "OpenAI API call failed", err)
}

// retryAfterHeader reads a Retry-After hint in seconds, or zero.
func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
