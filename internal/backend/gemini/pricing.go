package gemini

import (
	"context"
	"fmt"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// Pricing per 1K tokens, standard context window.
var modelPricing = map[string]domain.ModelPricing{
	"gemini-1.5-pro":   {InputPer1K: 0.00125, OutputPer1K: 0.005},
	"gemini-1.5-flash": {InputPer1K: 0.000075, OutputPer1K: 0.0003},
	"gemini-2.0-flash": {InputPer1K: 0.0001, OutputPer1K: 0.0004},
}

// RegisterPricing registers Gemini model price cards with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	for model, pricing := range modelPricing {
		if err := registry.Register(ctx, model, pricing); err != nil {
			return fmt.Errorf("register pricing for model %s: %w", model, err)
		}
	}
	return nil
}
