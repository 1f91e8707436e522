// Package gemini provides a pipeline backend for Google's Generative Language
// API. The API has no official Go SDK dependency here; calls go through a
// small typed HTTP client.
package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/peregrine-ai/peregrine/internal/backend"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

const backendName = "gemini"

// Backend implements domain.Backend for Gemini.
type Backend struct {
	client     *Client
	name       string
	model      string
	maxTokens  int
	configured bool
}

// New creates a new Gemini backend.
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

// complete sends one generation request and returns the raw text plus usage.
func (b *Backend) complete(ctx context.Context, system, user string) (string, domain.Usage, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini API")

	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: user}}},
		},
	}

	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	if b.maxTokens > 0 {
		req.GenerationConfig = &generationConfig{MaxOutputTokens: b.maxTokens}
	}

	start := time.Now()

	resp, err := b.client.GenerateContent(ctx, b.model, req)
	if err != nil {
		logger.Error("Gemini API call failed", observability.Error(err))
		return "", domain.Usage{}, err
	}

	if len(resp.Candidates) == 0 {
		return "", domain.Usage{}, domain.NewNonRetryableError(b.name, "response contains no candidates", nil)
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		builder.WriteString(part.Text)
	}

	usage := domain.Usage{Latency: time.Since(start)}
	if resp.UsageMetadata != nil {
		usage.InputTokens = resp.UsageMetadata.PromptTokenCount
		usage.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}

	logger.Debug("Gemini API call succeeded",
		observability.Int("prompt_tokens", usage.InputTokens),
		observability.Int("completion_tokens", usage.OutputTokens),
	)

	return builder.String(), usage, nil
}
