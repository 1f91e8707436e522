package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

func TestUsageCostCalculator_Calculate(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewMemoryPricingRegistry()

	require.NoError(t, registry.Register(ctx, "test-model", domain.ModelPricing{
		InputPer1K:  0.01,
		OutputPer1K: 0.02,
	}))

	calculator := domain.NewUsageCostCalculator(registry)

	tests := []struct {
		name        string
		model       string
		usage       domain.Usage
		wantCost    float64
		expectError bool
	}{
		{
			name:     "priced model",
			model:    "test-model",
			usage:    domain.Usage{InputTokens: 1000, OutputTokens: 500},
			wantCost: 0.02, // (1000/1000 * 0.01) + (500/1000 * 0.02)
		},
		{
			name:     "unpriced model costs zero",
			model:    "unknown-model",
			usage:    domain.Usage{InputTokens: 1000, OutputTokens: 500},
			wantCost: 0,
		},
		{
			name:        "empty model is an error",
			model:       "",
			expectError: true,
		},
		{
			name:     "zero usage costs zero",
			model:    "test-model",
			usage:    domain.Usage{},
			wantCost: 0,
		},
		{
			name:     "fractional thousands",
			model:    "test-model",
			usage:    domain.Usage{InputTokens: 250, OutputTokens: 100},
			wantCost: 0.0045, // (250/1000 * 0.01) + (100/1000 * 0.02)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := calculator.Calculate(ctx, tt.model, tt.usage)

			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.InDelta(t, tt.wantCost, cost, 0.0001)
		})
	}
}

func TestMemoryPricingRegistry(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewMemoryPricingRegistry()

	t.Run("should round-trip a price card", func(t *testing.T) {
		pricing := domain.ModelPricing{InputPer1K: 0.03, OutputPer1K: 0.06}

		require.NoError(t, registry.Register(ctx, "gpt-4o", pricing))

		got, err := registry.Pricing(ctx, "gpt-4o")
		require.NoError(t, err)
		require.InDelta(t, pricing.InputPer1K, got.InputPer1K, 0.0001)
		require.InDelta(t, pricing.OutputPer1K, got.OutputPer1K, 0.0001)
	})

	t.Run("should error on an unregistered model", func(t *testing.T) {
		_, err := registry.Pricing(ctx, "non-existent-model")
		require.Error(t, err)
	})

	t.Run("should reject an empty model name", func(t *testing.T) {
		err := registry.Register(ctx, "", domain.ModelPricing{InputPer1K: 0.01})
		require.Error(t, err)
	})

	t.Run("should replace an existing price card", func(t *testing.T) {
		require.NoError(t, registry.Register(ctx, "test-model", domain.ModelPricing{InputPer1K: 0.01, OutputPer1K: 0.02}))
		require.NoError(t, registry.Register(ctx, "test-model", domain.ModelPricing{InputPer1K: 0.05, OutputPer1K: 0.10}))

		got, err := registry.Pricing(ctx, "test-model")
		require.NoError(t, err)
		require.InDelta(t, 0.05, got.InputPer1K, 0.0001)
		require.InDelta(t, 0.10, got.OutputPer1K, 0.0001)
	})
}
