// Package backend holds the pieces shared by every concrete adapter: prompt
// construction and the strict parse-and-validate boundary that turns loose
// model replies into typed domain structures.
package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON pulls the first JSON document out of a model reply, which may
// wrap it in a markdown code fence or surround it with prose.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty response")
	}

	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	if json.Valid([]byte(text)) {
		return text, nil
	}

	for _, pair := range []struct{ open, close byte }{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair.open)
		end := strings.LastIndexByte(text, pair.close)
		if start >= 0 && end > start {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}

	return "", errors.New("no JSON document found in response")
}

// ParseGenerateReply decodes a generation reply for req: a full draft for a
// plan request, or a single activity wrapped into a one-day draft for a
// replacement request. Malformed content is a non-retryable provider error.
func ParseGenerateReply(backendName string, req domain.DraftRequest, text string) (*domain.Draft, error) {
	if req.Replacement != nil {
		activity, err := parseActivity(backendName, text)
		if err != nil {
			return nil, err
		}
		return &domain.Draft{
			Destination: req.Destination,
			Days: []domain.DayPlan{{
				Day:        req.Replacement.Day,
				Activities: []domain.Activity{*activity},
			}},
		}, nil
	}
	return ParseDraft(backendName, text)
}

// ParseDraft decodes and validates a full-plan generation reply.
func ParseDraft(backendName, text string) (*domain.Draft, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("malformed draft response: %v", err), err)
	}

	var draft domain.Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, domain.NewNonRetryableError(backendName, "draft response is not valid JSON", err)
	}

	// Backends occasionally omit day numbers; assign them positionally
	// before validating.
	for i := range draft.Days {
		if draft.Days[i].Day == 0 {
			draft.Days[i].Day = i + 1
		}
	}

	if err := validateDraft(&draft); err != nil {
		return nil, domain.NewNonRetryableError(backendName, err.Error(), err)
	}
	return &draft, nil
}

func validateDraft(d *domain.Draft) error {
	if len(d.Days) == 0 {
		return errors.New("draft has no days")
	}
	for _, day := range d.Days {
		if len(day.Activities) == 0 {
			return fmt.Errorf("draft day %d has no activities", day.Day)
		}
		for _, act := range day.Activities {
			if strings.TrimSpace(act.Name) == "" {
				return fmt.Errorf("draft day %d has an unnamed activity", day.Day)
			}
		}
	}
	return nil
}

func parseActivity(backendName, text string) (*domain.Activity, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("malformed activity response: %v", err), err)
	}

	var activity domain.Activity
	if err := json.Unmarshal([]byte(raw), &activity); err != nil {
		return nil, domain.NewNonRetryableError(backendName, "activity response is not valid JSON", err)
	}
	if strings.TrimSpace(activity.Name) == "" {
		return nil, domain.NewNonRetryableError(backendName, "activity response has no name", nil)
	}
	return &activity, nil
}

// findingsEnvelope tolerates both {"findings": [...]} and a bare array.
type findingsEnvelope struct {
	Findings []domain.LocationFinding `json:"findings"`
}

// ParseFindings decodes and normalizes a location-validation reply. An empty
// findings list is valid; unrecognized verdicts normalize to unknown.
func ParseFindings(backendName, text string) ([]domain.LocationFinding, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("malformed validation response: %v", err), err)
	}

	var findings []domain.LocationFinding
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &findings); err != nil {
			return nil, domain.NewNonRetryableError(backendName, "validation response is not valid JSON", err)
		}
	} else {
		var env findingsEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, domain.NewNonRetryableError(backendName, "validation response is not valid JSON", err)
		}
		findings = env.Findings
	}

	out := make([]domain.LocationFinding, 0, len(findings))
	for _, f := range findings {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		switch f.Verdict {
		case domain.VerdictVerified, domain.VerdictSuspect, domain.VerdictUnknown:
		default:
			f.Verdict = domain.VerdictUnknown
		}
		if f.Confidence < 0 {
			f.Confidence = 0
		}
		if f.Confidence > 1 {
			f.Confidence = 1
		}
		out = append(out, f)
	}
	return out, nil
}

// ParseReview decodes and normalizes a supervision reply. Scores clamp into
// 1..10; replacements without a target activity are dropped.
func ParseReview(backendName, text string) (*domain.ReviewOutcome, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, domain.NewNonRetryableError(backendName, fmt.Sprintf("malformed review response: %v", err), err)
	}

	var outcome domain.ReviewOutcome
	if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
		return nil, domain.NewNonRetryableError(backendName, "review response is not valid JSON", err)
	}

	if outcome.QualityScore < 1 {
		outcome.QualityScore = 1
	}
	if outcome.QualityScore > 10 {
		outcome.QualityScore = 10
	}

	kept := outcome.Replacements[:0]
	for _, r := range outcome.Replacements {
		if strings.TrimSpace(r.Activity) == "" {
			continue
		}
		if r.Day == 0 {
			r.Day = 1
		}
		kept = append(kept, r)
	}
	outcome.Replacements = kept

	return &outcome, nil
}
