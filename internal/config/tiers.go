package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// DefaultTiers returns the compiled-in tier table: free gets generation only,
// pro adds validation and basic supervision, premium adds full supervision
// with one revision cycle.
func DefaultTiers() map[string]domain.TierConfig {
	return map[string]domain.TierConfig{
		"free": {
			Name:        "free",
			Roles:       []domain.Role{domain.RoleGeneration},
			Supervision: domain.DepthNone,
			MaxRetries:  1,
			Fallbacks:   []domain.RouteName{domain.RouteEmergency},
		},
		"pro": {
			Name:          "pro",
			Roles:         domain.AllRoles(),
			Supervision:   domain.DepthBasic,
			MaxRetries:    2,
			QualityTarget: 6,
			Fallbacks: []domain.RouteName{
				domain.RouteValidatorFallback,
				domain.RouteSupervisorFallback,
				domain.RouteGeneratorFallback,
				domain.RouteEmergency,
			},
		},
		"premium": {
			Name:          "premium",
			Roles:         domain.AllRoles(),
			Supervision:   domain.DepthFull,
			MaxRetries:    2,
			AllowRevision: true,
			QualityTarget: 7,
			Fallbacks: []domain.RouteName{
				domain.RouteValidatorFallback,
				domain.RouteSupervisorFallback,
				domain.RouteGeneratorFallback,
				domain.RouteEmergency,
			},
		},
	}
}

// tiersFile is the YAML overlay shape: a tiers map keyed by tier name.
type tiersFile struct {
	Tiers map[string]domain.TierConfig `yaml:"tiers"`
}

// LoadTiers returns the tier table. When path is set, tiers defined in the
// YAML file replace the same-named defaults wholesale; unknown tier names add
// new tiers. An unreadable or invalid file is a startup error, not a silent
// fallback.
func LoadTiers(path string) (map[string]domain.TierConfig, error) {
	tiers := DefaultTiers()
	if path == "" {
		return tiers, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}

	var file tiersFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse tiers file: %w", err)
	}

	for name, tier := range file.Tiers {
		tier.Name = name
		if err := validateTier(tier); err != nil {
			return nil, fmt.Errorf("tiers file: %w", err)
		}
		tiers[name] = tier
	}

	return tiers, nil
}

func validateTier(tier domain.TierConfig) error {
	if len(tier.Roles) == 0 {
		return fmt.Errorf("tier %q: at least one role required", tier.Name)
	}
	for _, role := range tier.Roles {
		switch role {
		case domain.RoleGeneration, domain.RoleValidation, domain.RoleSupervision:
		default:
			return fmt.Errorf("tier %q: unknown role %q", tier.Name, role)
		}
	}
	if !tier.Includes(domain.RoleGeneration) {
		return fmt.Errorf("tier %q: generation role required", tier.Name)
	}

	switch tier.Supervision {
	case domain.DepthNone, domain.DepthBasic, domain.DepthFull:
	default:
		return fmt.Errorf("tier %q: unknown supervision depth %q", tier.Name, tier.Supervision)
	}

	if tier.MaxRetries < 0 {
		return fmt.Errorf("tier %q: max_retries cannot be negative", tier.Name)
	}
	if tier.QualityTarget < 0 || tier.QualityTarget > 10 {
		return fmt.Errorf("tier %q: quality_target must be within 0..10", tier.Name)
	}

	for _, route := range tier.Fallbacks {
		switch route {
		case domain.RouteValidatorFallback, domain.RouteSupervisorFallback,
			domain.RouteGeneratorFallback, domain.RouteEmergency:
		case domain.RoutePrimary:
			return fmt.Errorf("tier %q: primary is not a fallback route", tier.Name)
		default:
			return fmt.Errorf("tier %q: unknown fallback route %q", tier.Name, route)
		}
	}

	return nil
}
