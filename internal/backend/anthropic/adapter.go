// Package anthropic provides a pipeline backend for Anthropic's Messages API
// through a small typed HTTP client.
package anthropic

import (
	"context"
	"strings"
	"time"

	"github.com/peregrine-ai/peregrine/internal/backend"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

const backendName = "anthropic"

// Backend implements domain.Backend for Anthropic.
type Backend struct {
	client     *Client
	name       string
	model      string
	maxTokens  int
	configured bool
}

// New creates a new Anthropic backend.
func New(config Config) *Backend {
	return &Backend{
		client:     NewClient(config),
		name:       backendName,
		model:      config.Model,
		maxTokens:  config.MaxTokens,
		configured: config.APIKey != "",
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

// complete sends one messages request and returns the raw text plus usage.
func (b *Backend) complete(ctx context.Context, system, user string) (string, domain.Usage, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic API")

	req := anthropicRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: user},
		},
	}

	start := time.Now()

	resp, err := b.client.CreateMessage(ctx, req)
	if err != nil {
		logger.Error("Anthropic API call failed", observability.Error(err))
		return "", domain.Usage{}, err
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	if builder.Len() == 0 {
		return "", domain.Usage{}, domain.NewNonRetryableError(b.name, "response contains no text blocks", nil)
	}

	usage := domain.Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Latency:      time.Since(start),
	}

	logger.Debug("Anthropic API call succeeded",
		observability.Int("prompt_tokens", usage.InputTokens),
		observability.Int("completion_tokens", usage.OutputTokens),
	)

	return builder.String(), usage, nil
}
