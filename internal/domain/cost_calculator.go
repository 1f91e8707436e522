package domain

import (
	"context"
	"errors"
)

const tokensPerPriceUnit = 1000.0

// UsageCostCalculator prices usage records against the registry. A model
// without a price card costs zero rather than failing the run.
type UsageCostCalculator struct {
	registry PricingRegistry
}

// NewUsageCostCalculator creates a calculator over the given registry.
func NewUsageCostCalculator(registry PricingRegistry) *UsageCostCalculator {
	return &UsageCostCalculator{registry: registry}
}

// Calculate returns the estimated cost of one call against a model.
func (c *UsageCostCalculator) Calculate(ctx context.Context, model string, usage Usage) (float64, error) {
	if model == "" {
		return 0, errors.New("model cannot be empty")
	}

	pricing, err := c.registry.Pricing(ctx, model)
	if err != nil {
		// Unpriced models (the offline backend, unreleased models) are free.
		return 0, nil
	}

	inputCost := float64(usage.InputTokens) / tokensPerPriceUnit * pricing.InputPer1K
	outputCost := float64(usage.OutputTokens) / tokensPerPriceUnit * pricing.OutputPer1K
	return inputCost + outputCost, nil
}
