package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

const draftSystemPrompt = `You are a travel planning engine. Reply with a single JSON document and no surrounding prose.`

const validationSystemPrompt = `You are a travel fact checker. Reply with a single JSON document and no surrounding prose.`

const reviewSystemPrompt = `You are a senior travel editor reviewing machine-written itineraries. Reply with a single JSON document and no surrounding prose.`

// BuildDraftPrompt returns the system and user prompts for a generation
// call. A replacement request narrows the prompt to a single activity swap.
func BuildDraftPrompt(req domain.DraftRequest) (system, user string) {
	if req.Replacement != nil {
		return draftSystemPrompt, buildReplacementPrompt(req)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan a %d-day trip to %s.\n", req.Days, req.Destination)
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, "Traveler interests: %s.\n", strings.Join(req.Interests, ", "))
	}
	if req.Style != "" {
		fmt.Fprintf(&b, "Pace: %s.\n", req.Style)
	}
	if req.Budget != "" {
		fmt.Fprintf(&b, "Budget level: %s.\n", req.Budget)
	}
	b.WriteString(`
Return JSON with this shape:
{"destination": "...", "summary": "...", "days": [{"day": 1, "theme": "...", "activities": [{"name": "...", "category": "...", "time_of_day": "morning|afternoon|evening", "description": "..."}]}]}
Use real, currently operating places. Three to four activities per day.`)
	return draftSystemPrompt, b.String()
}

func buildReplacementPrompt(req domain.DraftRequest) string {
	spec := req.Replacement

	var b strings.Builder
	fmt.Fprintf(&b, "In a trip to %s, replace the activity %q on day %d.\n", req.Destination, spec.Replace, spec.Day)
	if spec.Suggested != "" {
		fmt.Fprintf(&b, "Build the replacement around %q.\n", spec.Suggested)
	}
	if spec.Reason != "" {
		fmt.Fprintf(&b, "Reason for the swap: %s.\n", spec.Reason)
	}
	b.WriteString(`
Return JSON for the single replacement activity:
{"name": "...", "category": "...", "time_of_day": "morning|afternoon|evening", "description": "..."}`)
	return b.String()
}

// BuildValidationPrompt returns the system and user prompts for a
// location-validation call.
func BuildValidationPrompt(destination string) (system, user string) {
	user = fmt.Sprintf(`List the notable visitor locations in %s you can verify, with your confidence that each is real and currently operating.

Return JSON with this shape:
{"findings": [{"name": "...", "verdict": "verified|suspect|unknown", "confidence": 0.0, "note": "..."}]}
Cover the well-known sights, markets, museums and neighborhoods. Mark anything closed or commonly confused as suspect.`, destination)
	return validationSystemPrompt, user
}

// BuildReviewPrompt returns the system and user prompts for a supervision
// call at the given depth.
func BuildReviewPrompt(req domain.ReviewRequest) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Review this %s itinerary draft.\n\nDraft:\n%s\n", req.Draft.Destination, mustJSON(req.Draft))
	if len(req.Findings) > 0 {
		fmt.Fprintf(&b, "\nVerified location facts:\n%s\n", mustJSON(req.Findings))
	}
	if len(req.Candidates) > 0 {
		fmt.Fprintf(&b, "\nPre-vetted alternative locations:\n%s\n", mustJSON(req.Candidates))
	}

	switch req.Depth {
	case domain.DepthFull:
		b.WriteString("\nCheck every activity against the facts and candidates. Propose replacements for weak or unverified stops.")
	default:
		b.WriteString("\nCheck the overall structure and flag obviously wrong or closed locations.")
	}

	b.WriteString(`
Return JSON with this shape:
{"approved": true, "quality_score": 1, "issues": ["..."], "replacements": [{"day": 1, "activity": "...", "suggested": "...", "reason": "..."}]}
Score 1-10. Approve only when the plan needs no changes.`)
	return reviewSystemPrompt, b.String()
}

func mustJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}
