package domain

// Role is a backend slot in the pipeline. Each role is fulfilled by one
// pluggable backend; routes may let one slot's backend stand in for another.
type Role string

const (
	RoleGeneration  Role = "generation"
	RoleValidation  Role = "validation"
	RoleSupervision Role = "supervision"
)

// AllRoles lists every slot in pipeline order.
func AllRoles() []Role {
	return []Role{RoleGeneration, RoleValidation, RoleSupervision}
}

// TierConfig is a subscription tier's service-quality contract. Read-only
// after startup.
type TierConfig struct {
	Name          string           `yaml:"-" json:"name"`
	Roles         []Role           `yaml:"roles" json:"roles"`
	Supervision   SupervisionDepth `yaml:"supervision" json:"supervision"`
	MaxRetries    int              `yaml:"max_retries" json:"max_retries"`
	AllowRevision bool             `yaml:"allow_revision" json:"allow_revision"`
	QualityTarget int              `yaml:"quality_target" json:"quality_target"`
	Fallbacks     []RouteName      `yaml:"fallbacks" json:"fallbacks"`
}

// Includes reports whether the tier's contract includes the given role.
func (t TierConfig) Includes(role Role) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RouteName identifies one entry of the finite route table.
type RouteName string

const (
	RoutePrimary            RouteName = "primary"
	RouteValidatorFallback  RouteName = "validator-fallback"
	RouteSupervisorFallback RouteName = "supervisor-fallback"
	RouteGeneratorFallback  RouteName = "generator-fallback"
	RouteEmergency          RouteName = "emergency"
)

// RouteDecision is the resolved outcome of route selection for one request:
// which slots serve which phases, and the quality trade-offs the caller
// should be told about.
type RouteDecision struct {
	Name           RouteName `json:"name"`
	GeneratorSlot  Role      `json:"generator_slot"`
	Validate       bool      `json:"validate"`
	ValidatorSlot  Role      `json:"validator_slot,omitempty"`
	Supervise      bool      `json:"supervise"`
	SupervisorSlot Role      `json:"supervisor_slot,omitempty"`
	ReducedQuality bool      `json:"reduced_quality"`
	Notice         string    `json:"notice,omitempty"`
}
