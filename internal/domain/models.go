package domain

import "time"

// RequestKind identifies what the caller wants assembled.
type RequestKind string

const (
	// KindItinerary is a full multi-day travel plan.
	KindItinerary RequestKind = "itinerary"
)

// PlanRequest is an accepted orchestration request. Immutable once accepted.
type PlanRequest struct {
	Kind      RequestKind `json:"kind"`
	Params    PlanParams  `json:"parameters"`
	Tier      string      `json:"tier"`
	CallerID  string      `json:"caller_id,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// PlanParams describes the trip the caller wants planned.
type PlanParams struct {
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	Interests   []string `json:"interests,omitempty"`
	Style       string   `json:"style,omitempty"`  // relaxed, packed, family
	Budget      string   `json:"budget,omitempty"` // shoestring, mid, luxury
}

// Draft is a structured travel plan produced by a generation backend.
type Draft struct {
	Destination string    `json:"destination"`
	Summary     string    `json:"summary,omitempty"`
	Days        []DayPlan `json:"days"`
}

// DayPlan is one day of a draft.
type DayPlan struct {
	Day        int        `json:"day"`
	Theme      string     `json:"theme,omitempty"`
	Activities []Activity `json:"activities"`
}

// Activity is a single stop in a day plan. Revised marks activities that
// were swapped in during a supervision revision cycle.
type Activity struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	TimeOfDay   string `json:"time_of_day,omitempty"` // morning, afternoon, evening
	Description string `json:"description,omitempty"`
	Revised     bool   `json:"revised,omitempty"`
}

// Verdict is a validation backend's judgement on a single location.
type Verdict string

const (
	VerdictVerified Verdict = "verified"
	VerdictSuspect  Verdict = "suspect"
	VerdictUnknown  Verdict = "unknown"
)

// LocationFinding is one validated location fact for a destination.
type LocationFinding struct {
	Name       string  `json:"name"`
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// Candidate is a pre-vetted location supplied by the candidate pool.
type Candidate struct {
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Quality  float64 `json:"quality_score"`
	Note     string  `json:"note,omitempty"`
}

// SupervisionDepth controls how thoroughly a supervisor reviews a draft.
type SupervisionDepth string

const (
	DepthNone  SupervisionDepth = "none"
	DepthBasic SupervisionDepth = "basic"
	DepthFull  SupervisionDepth = "full"
)

// ReviewOutcome is a supervision backend's judgement on a draft.
type ReviewOutcome struct {
	Approved     bool          `json:"approved"`
	QualityScore int           `json:"quality_score"` // 1..10
	Issues       []string      `json:"issues,omitempty"`
	Replacements []Replacement `json:"replacements,omitempty"`
}

// Replacement is a targeted swap proposed by a supervisor: replace the named
// activity on the given day, preferably with the suggested candidate.
type Replacement struct {
	Day       int    `json:"day"`
	Activity  string `json:"activity"`
	Suggested string `json:"suggested,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Usage is the uniform per-call accounting record every backend reports.
type Usage struct {
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Latency      time.Duration `json:"latency"`
}

// Add accumulates another usage record, keeping the summed latency.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		Latency:      u.Latency + other.Latency,
	}
}

// DraftRequest is the input to a generation call. When Replacement is set the
// backend regenerates a single activity instead of a full plan.
type DraftRequest struct {
	Destination string           `json:"destination"`
	Days        int              `json:"days"`
	Interests   []string         `json:"interests,omitempty"`
	Style       string           `json:"style,omitempty"`
	Budget      string           `json:"budget,omitempty"`
	Replacement *ReplacementSpec `json:"replacement,omitempty"`
}

// ReplacementSpec narrows a generation call to a single activity swap.
type ReplacementSpec struct {
	Day       int    `json:"day"`
	Replace   string `json:"replace"`
	Suggested string `json:"suggested,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// DraftResult is a generation call's parsed output plus usage.
type DraftResult struct {
	Draft Draft `json:"draft"`
	Usage Usage `json:"usage"`
}

// ValidationResult is a validation call's parsed output plus usage.
type ValidationResult struct {
	Findings []LocationFinding `json:"findings"`
	Usage    Usage             `json:"usage"`
}

// ReviewRequest is the input to a supervision call.
type ReviewRequest struct {
	Draft      Draft             `json:"draft"`
	Findings   []LocationFinding `json:"findings,omitempty"`
	Candidates []Candidate       `json:"candidates,omitempty"`
	Depth      SupervisionDepth  `json:"depth"`
}

// ReviewResult is a supervision call's parsed output plus usage.
type ReviewResult struct {
	Outcome ReviewOutcome `json:"outcome"`
	Usage   Usage         `json:"usage"`
}

// RunMetrics is the per-request record appended to the rolling metrics window.
type RunMetrics struct {
	RunID            string           `json:"run_id"`
	RequestID        string           `json:"request_id,omitempty"`
	Tier             string           `json:"tier"`
	Route            RouteName        `json:"route"`
	TotalLatency     time.Duration    `json:"total_latency"`
	Phase1Latency    time.Duration    `json:"phase1_latency"`
	Phase2Latency    time.Duration    `json:"phase2_latency"`
	EmergencyLatency time.Duration    `json:"emergency_latency,omitempty"`
	BackendsUsed     []string         `json:"backends_used,omitempty"`
	CacheHits        int              `json:"cache_hits"`
	Retries          int              `json:"retries"`
	TokenUsage       map[string]Usage `json:"token_usage,omitempty"`
	EstimatedCost    float64          `json:"estimated_cost"`
	QualityScore     int              `json:"quality_score,omitempty"`
	Success          bool             `json:"success"`
	Timestamp        time.Time        `json:"timestamp"`
}

// PlanResult is the orchestration envelope returned for every request.
// Failures are encoded here; Generate never raises them.
type PlanResult struct {
	Success      bool       `json:"success"`
	Plan         *Draft     `json:"plan,omitempty"`
	QualityScore int        `json:"quality_score,omitempty"`
	Issues       []string   `json:"issues,omitempty"`
	FallbackUsed RouteName  `json:"fallback_used,omitempty"` // empty on the primary route
	Notices      []string   `json:"notices,omitempty"`
	Metrics      RunMetrics `json:"metrics"`
	Error        string     `json:"error,omitempty"`
}

// HealthReport is the operational snapshot returned by Orchestrator.Health.
type HealthReport struct {
	Backends map[Role]bool   `json:"backends"`
	Breakers map[Role]string `json:"breakers"`
	Cache    CacheHealth     `json:"cache"`
}

// CacheHealth summarizes cache occupancy and shared-tier reachability.
type CacheHealth struct {
	Size            int  `json:"size"`
	SharedAvailable bool `json:"shared_available"`
}
