package static_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/backend/static"
	"github.com/peregrine-ai/peregrine/internal/domain"
)

func TestBackend_GenerateDraft(t *testing.T) {
	b := static.New()
	ctx := context.Background()

	t.Run("should build the requested number of days", func(t *testing.T) {
		result, err := b.GenerateDraft(ctx, domain.DraftRequest{Destination: "Lisbon", Days: 3})
		require.NoError(t, err)
		require.Equal(t, "Lisbon", result.Draft.Destination)
		require.Len(t, result.Draft.Days, 3)
		for i, day := range result.Draft.Days {
			require.Equal(t, i+1, day.Day)
			require.Len(t, day.Activities, 3)
		}
		require.Positive(t, result.Usage.OutputTokens)
	})

	t.Run("should be deterministic", func(t *testing.T) {
		first, err := b.GenerateDraft(ctx, domain.DraftRequest{Destination: "Lisbon", Days: 2})
		require.NoError(t, err)
		second, err := b.GenerateDraft(ctx, domain.DraftRequest{Destination: "Lisbon", Days: 2})
		require.NoError(t, err)
		require.Equal(t, first.Draft, second.Draft)
	})

	t.Run("should default to one day", func(t *testing.T) {
		result, err := b.GenerateDraft(ctx, domain.DraftRequest{Destination: "Lisbon"})
		require.NoError(t, err)
		require.Len(t, result.Draft.Days, 1)
	})

	t.Run("should honor a replacement request", func(t *testing.T) {
		result, err := b.GenerateDraft(ctx, domain.DraftRequest{
			Destination: "Lisbon",
			Replacement: &domain.ReplacementSpec{Day: 2, Replace: "Tourist Trap", Suggested: "Time Out Market"},
		})
		require.NoError(t, err)
		require.Len(t, result.Draft.Days, 1)
		require.Equal(t, 2, result.Draft.Days[0].Day)
		require.Equal(t, "Time Out Market", result.Draft.Days[0].Activities[0].Name)
	})
}

func TestBackend_ValidateLocations(t *testing.T) {
	b := static.New()

	result, err := b.ValidateLocations(context.Background(), "Lisbon")
	require.NoError(t, err)
	require.NotEmpty(t, result.Findings)
	for _, f := range result.Findings {
		require.Equal(t, domain.VerdictVerified, f.Verdict)
	}
}

func TestBackend_Review(t *testing.T) {
	b := static.New()
	ctx := context.Background()

	t.Run("should approve a draft of verified activities", func(t *testing.T) {
		generated, err := b.GenerateDraft(ctx, domain.DraftRequest{Destination: "Lisbon", Days: 2})
		require.NoError(t, err)
		validated, err := b.ValidateLocations(ctx, "Lisbon")
		require.NoError(t, err)

		result, err := b.Review(ctx, domain.ReviewRequest{
			Draft:    generated.Draft,
			Findings: validated.Findings,
			Depth:    domain.DepthFull,
		})
		require.NoError(t, err)
		require.True(t, result.Outcome.Approved)
		require.Equal(t, 8, result.Outcome.QualityScore)
		require.Empty(t, result.Outcome.Replacements)
	})

	t.Run("should flag unverified activities with candidate swaps", func(t *testing.T) {
		draft := domain.Draft{
			Destination: "Lisbon",
			Days: []domain.DayPlan{
				{Day: 1, Activities: []domain.Activity{
					{Name: "Old Town Walking Tour"},
					{Name: "Imaginary Palace"},
				}},
			},
		}
		validated, err := b.ValidateLocations(ctx, "Lisbon")
		require.NoError(t, err)

		result, err := b.Review(ctx, domain.ReviewRequest{
			Draft:      draft,
			Findings:   validated.Findings,
			Candidates: []domain.Candidate{{Name: "Harbor Viewpoint", Quality: 9}},
			Depth:      domain.DepthFull,
		})
		require.NoError(t, err)
		require.False(t, result.Outcome.Approved)
		require.Equal(t, 7, result.Outcome.QualityScore)
		require.Len(t, result.Outcome.Replacements, 1)
		require.Equal(t, "Imaginary Palace", result.Outcome.Replacements[0].Activity)
		require.Equal(t, "Harbor Viewpoint", result.Outcome.Replacements[0].Suggested)
	})

	t.Run("should approve without findings to check against", func(t *testing.T) {
		result, err := b.Review(ctx, domain.ReviewRequest{
			Draft: domain.Draft{Destination: "Lisbon"},
			Depth: domain.DepthBasic,
		})
		require.NoError(t, err)
		require.True(t, result.Outcome.Approved)
	})
}

func TestBackend_Identity(t *testing.T) {
	b := static.New()

	require.Equal(t, "static", b.Name())
	require.Equal(t, "static-planner", b.Model())
	require.True(t, b.IsConfigured())
}
