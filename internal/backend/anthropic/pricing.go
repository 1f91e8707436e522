package anthropic

import (
	"context"
	"fmt"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// Pricing per 1K tokens, as published.
var modelPricing = map[string]domain.ModelPricing{
	"claude-3-5-sonnet-20241022": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku-20241022":  {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"claude-3-opus-20240229":     {InputPer1K: 0.015, OutputPer1K: 0.075},
}

// RegisterPricing registers Anthropic model price cards with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	for model, pricing := range modelPricing {
		if err := registry.Register(ctx, model, pricing); err != nil {
			return fmt.Errorf("register pricing for model %s: %w", model, err)
		}
	}
	return nil
}
