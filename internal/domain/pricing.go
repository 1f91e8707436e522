package domain

import "context"

// ModelPricing is the per-1K-unit price card for one backend model.
type ModelPricing struct {
	InputPer1K  float64 // USD per 1K input tokens
	OutputPer1K float64 // USD per 1K output tokens
}

// PricingRegistry holds the price cards backends register at startup.
type PricingRegistry interface {
	// Pricing returns the price card for a model.
	Pricing(ctx context.Context, model string) (ModelPricing, error)

	// Register adds or replaces a model's price card.
	Register(ctx context.Context, model string, pricing ModelPricing) error
}

// CostCalculator estimates backend spend from usage records.
type CostCalculator interface {
	// Calculate returns the estimated cost of one call against a model.
	Calculate(ctx context.Context, model string, usage Usage) (float64, error)
}
