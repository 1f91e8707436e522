package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryPricingRegistry is the process-wide price table, seeded at startup
// by each backend's pricing file.
type MemoryPricingRegistry struct {
	mu     sync.RWMutex
	models map[string]ModelPricing
}

// NewMemoryPricingRegistry creates an empty registry.
func NewMemoryPricingRegistry() *MemoryPricingRegistry {
	return &MemoryPricingRegistry{models: make(map[string]ModelPricing)}
}

// Pricing returns the price card for a model.
func (r *MemoryPricingRegistry) Pricing(_ context.Context, model string) (ModelPricing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pricing, ok := r.models[model]
	if !ok {
		return ModelPricing{}, fmt.Errorf("no pricing registered for model %s", model)
	}
	return pricing, nil
}

// Register adds or replaces a model's price card.
func (r *MemoryPricingRegistry) Register(_ context.Context, model string, pricing ModelPricing) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.models[model] = pricing
	return nil
}
