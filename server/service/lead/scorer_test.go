package lead

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
)

type mockLLM struct {
	generateFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)
}

func (m *mockLLM) Chat(_ context.Context, _ []ai.Message) (string, error) {
	return "", nil
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return m.generateFunc(ctx, prompt, maxTokens)
}

func dims(fit, budget, need, urgency, engagement float64) DimensionScores {
	return DimensionScores{
		Fit:        SubScore{Score: fit},
		Budget:     SubScore{Score: budget},
		Need:       SubScore{Score: need},
		Urgency:    SubScore{Score: urgency},
		Engagement: SubScore{Score: engagement},
	}
}

func TestComposeWeightedTotal(t *testing.T) {
	got := Compose("u1", dims(80, 60, 70, 50, 40))

	require.Equal(t, 47, got.Score)
	require.InDelta(t, 28.0, got.Breakdown.Fit.Points, 0.001)
	require.InDelta(t, 12.0, got.Breakdown.Budget.Points, 0.001)
	require.InDelta(t, 14.0, got.Breakdown.Need.Points, 0.001)
	require.InDelta(t, 7.5, got.Breakdown.Urgency.Points, 0.001)
	require.InDelta(t, 4.0, got.Breakdown.Engagement.Points, 0.001)
	require.Equal(t, "Strong: fit, need.", got.Reason)
}

func TestComposeFitGate(t *testing.T) {
	t.Run("zero fit zeroes the score", func(t *testing.T) {
		got := Compose("u1", dims(0, 100, 100, 100, 100))
		require.Equal(t, 0, got.Score)
	})

	t.Run("perfect everything is 100", func(t *testing.T) {
		got := Compose("u1", dims(100, 100, 100, 100, 100))
		require.Equal(t, 100, got.Score)
	})

	t.Run("gate is monotonic in fit", func(t *testing.T) {
		prev := -1
		for fit := 0.0; fit <= 100; fit += 10 {
			got := Compose("u1", dims(fit, 50, 50, 50, 50))
			require.GreaterOrEqual(t, got.Score, prev, "fit=%v", fit)
			prev = got.Score
		}
	})

	t.Run("weak fit suppresses strong other dimensions", func(t *testing.T) {
		weakFit := Compose("u1", dims(20, 100, 100, 100, 100))
		strongFit := Compose("u2", dims(90, 40, 40, 40, 40))
		require.Less(t, weakFit.Score, strongFit.Score)
	})
}

func TestComposeClampsOutOfRangeSubScores(t *testing.T) {
	got := Compose("u1", dims(150, -10, 50, 50, 50))
	require.InDelta(t, 35.0, got.Breakdown.Fit.Points, 0.001)
	require.InDelta(t, 0.0, got.Breakdown.Budget.Points, 0.001)
	require.LessOrEqual(t, got.Score, 100)
}

func TestComposeWeightsSumToHundred(t *testing.T) {
	got := Compose("u1", dims(100, 100, 100, 100, 100))
	total := got.Breakdown.Fit.Max +
		got.Breakdown.Budget.Max +
		got.Breakdown.Need.Max +
		got.Breakdown.Urgency.Max +
		got.Breakdown.Engagement.Max
	require.InDelta(t, 100.0, total, 0.001)
}

func TestBuildReason(t *testing.T) {
	t.Run("no standout dimensions", func(t *testing.T) {
		got := Compose("u1", dims(50, 50, 50, 50, 50))
		require.Equal(t, defaultReason, got.Reason)
	})

	t.Run("weak dimensions are named", func(t *testing.T) {
		got := Compose("u1", dims(80, 20, 50, 10, 50))
		require.Equal(t, "Strong: fit. Weak: budget, urgency.", got.Reason)
	})
}

func TestMatchICPSortsByScoreDescending(t *testing.T) {
	llm := &mockLLM{
		generateFunc: func(_ context.Context, prompt string, _ int) (string, error) {
			// Score by which lead's insight appears in the prompt.
			switch {
			case strings.Contains(prompt, "low-insight"):
				return `{"fit":{"score":30,"detail":""},"budget":{"score":30,"detail":""},"need":{"score":30,"detail":""},"urgency":{"score":30,"detail":""},"engagement":{"score":30,"detail":""}}`, nil
			default:
				return `{"fit":{"score":90,"detail":""},"budget":{"score":80,"detail":""},"need":{"score":80,"detail":""},"urgency":{"score":70,"detail":""},"engagement":{"score":70,"detail":""}}`, nil
			}
		},
	}
	scorer := NewScorer(llm)

	got, err := scorer.MatchICP(context.Background(), &chat.MatchICPRequest{
		ICPDescription: "small business owners planning retirement",
		Leads: []chat.Lead{
			{SessionUserID: "weak", Insight: "low-insight"},
			{SessionUserID: "strong", Insight: "owns a bakery, wants to retire in 5 years"},
		},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "strong", got[0].SessionUserID)
	require.Equal(t, "weak", got[1].SessionUserID)
	require.Greater(t, got[0].Score, got[1].Score)
}

func TestMatchICPPropagatesGenerationFailure(t *testing.T) {
	llm := &mockLLM{
		generateFunc: func(_ context.Context, _ string, _ int) (string, error) {
			return "", fmt.Errorf("provider unavailable")
		},
	}
	scorer := NewScorer(llm)

	_, err := scorer.MatchICP(context.Background(), &chat.MatchICPRequest{
		ICPDescription: "anyone",
		Leads:          []chat.Lead{{SessionUserID: "u1", Insight: "something"}},
	})
	require.Error(t, err)
}
