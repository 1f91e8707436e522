package openai

import (
	"context"
	"fmt"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// Pricing per 1K tokens, as published.
var modelPricing = map[string]domain.ModelPricing{
	"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":   {InputPer1K: 0.01, OutputPer1K: 0.03},
	"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},
}

// RegisterPricing registers OpenAI model price cards with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	for model, pricing := range modelPricing {
		if err := registry.Register(ctx, model, pricing); err != nil {
			return fmt.Errorf("register pricing for model %s: %w", model, err)
		}
	}
	return nil
}
