// Package lead scores collected leads against an Ideal-Customer-Profile
// description using a weighted five-dimension rubric with a non-linear fit
// gate.
package lead

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/plugin/jsontext"
)

// Dimension weights, summing to 100.
const (
	WeightFit        = 35.0
	WeightBudget     = 20.0
	WeightNeed       = 20.0
	WeightUrgency    = 15.0
	WeightEngagement = 10.0
)

// fitGateExponent makes fit a near-prerequisite: the gate suppresses the
// total super-linearly when domain fit is weak, so high engagement or
// urgency cannot compensate for the wrong type of customer.
const fitGateExponent = 1.5

// maxConcurrentScoring bounds the per-lead generation fan-out of a batch.
const maxConcurrentScoring = 4

// defaultReason is used when no dimension is clearly strong or weak.
const defaultReason = "Mixed profile with no standout dimensions."

// SubScore is one dimension's raw 0-100 judgment with a one-sentence detail.
type SubScore struct {
	Score  float64 `json:"score"`
	Detail string  `json:"detail"`
}

// DimensionScores holds the five raw sub-scores for a lead. A dimension with
// no relevant information stated scores 0 (absence, not "unknown").
type DimensionScores struct {
	Fit        SubScore `json:"fit"`
	Budget     SubScore `json:"budget"`
	Need       SubScore `json:"need"`
	Urgency    SubScore `json:"urgency"`
	Engagement SubScore `json:"engagement"`
}

// Scorer scores leads against an ICP description.
type Scorer struct {
	llm ai.LLMService
}

// NewScorer creates a scorer over the given generation capability.
func NewScorer(llm ai.LLMService) *Scorer {
	return &Scorer{llm: llm}
}

// MatchICP scores every lead with one generation call each and returns the
// batch sorted by score descending. Scores are derived fresh per request and
// never persisted.
func (s *Scorer) MatchICP(ctx context.Context, req *chat.MatchICPRequest) ([]chat.LeadScore, error) {
	scores := make([]chat.LeadScore, len(req.Leads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScoring)
	for i, l := range req.Leads {
		g.Go(func() error {
			score, err := s.Score(gctx, req.ICPDescription, l)
			if err != nil {
				return errors.Wrapf(err, "score lead %s", l.SessionUserID)
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores, nil
}

// Score scores a single lead's accumulated insight against the ICP.
func (s *Scorer) Score(ctx context.Context, icpDescription string, l chat.Lead) (chat.LeadScore, error) {
	response, err := s.llm.Generate(ctx, dimensionPrompt(icpDescription, l.Insight), 600)
	if err != nil {
		return chat.LeadScore{}, errors.Wrap(err, "generate dimension scores")
	}

	var dims DimensionScores
	if err := jsontext.Unmarshal(response, &dims); err != nil {
		return chat.LeadScore{}, errors.Wrap(err, "parse dimension scores")
	}

	return Compose(l.SessionUserID, dims), nil
}

// Compose builds the final score from raw sub-scores. Pure and deterministic:
// weighted points per dimension, a raw total, and the exponential fit gate.
func Compose(sessionUserID string, dims DimensionScores) chat.LeadScore {
	breakdown := chat.Breakdown{
		Fit:        weigh(dims.Fit, WeightFit),
		Budget:     weigh(dims.Budget, WeightBudget),
		Need:       weigh(dims.Need, WeightNeed),
		Urgency:    weigh(dims.Urgency, WeightUrgency),
		Engagement: weigh(dims.Engagement, WeightEngagement),
	}

	rawTotal := breakdown.Fit.Points +
		breakdown.Budget.Points +
		breakdown.Need.Points +
		breakdown.Urgency.Points +
		breakdown.Engagement.Points

	fitGate := math.Pow(clamp(dims.Fit.Score)/100, fitGateExponent)
	score := int(math.Round(rawTotal * fitGate))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return chat.LeadScore{
		SessionUserID: sessionUserID,
		Score:         score,
		Reason:        buildReason(breakdown),
		Breakdown:     breakdown,
	}
}

// weigh converts a 0-100 sub-score into its weighted contribution, rounded
// to one decimal.
func weigh(sub SubScore, weight float64) chat.Dimension {
	points := math.Round(clamp(sub.Score)/100*weight*10) / 10
	return chat.Dimension{
		Points: points,
		Max:    weight,
		Detail: sub.Detail,
	}
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// buildReason names dimensions whose contribution ratio is >= 0.7 as strong
// and <= 0.3 as weak, omitting empty clauses.
func buildReason(b chat.Breakdown) string {
	named := []struct {
		name string
		dim  chat.Dimension
	}{
		{"fit", b.Fit},
		{"budget", b.Budget},
		{"need", b.Need},
		{"urgency", b.Urgency},
		{"engagement", b.Engagement},
	}

	var strong, weak []string
	for _, entry := range named {
		ratio := entry.dim.Points / entry.dim.Max
		switch {
		case ratio >= 0.7:
			strong = append(strong, entry.name)
		case ratio <= 0.3:
			weak = append(weak, entry.name)
		}
	}

	var clauses []string
	if len(strong) > 0 {
		clauses = append(clauses, "Strong: "+strings.Join(strong, ", ")+".")
	}
	if len(weak) > 0 {
		clauses = append(clauses, "Weak: "+strings.Join(weak, ", ")+".")
	}
	if len(clauses) == 0 {
		return defaultReason
	}
	return strings.Join(clauses, " ")
}

func dimensionPrompt(icpDescription string, insight string) string {
	return fmt.Sprintf(`You are scoring a sales lead against an Ideal Customer Profile (ICP).

ICP description:
%s

Everything the lead has explicitly stated:
%s

Score each dimension 0-100 with a one-sentence justification:
- "fit": conceptual/domain overlap between the ICP's implied world and the lead's stated world. Judge thematically, not by literal keyword match.
- "budget": spending-capacity alignment with what the ICP implies.
- "need": an explicit problem or desire the ICP's offering would address.
- "urgency": explicit buying-intent language versus passive curiosity.
- "engagement": specificity and richness of what the lead disclosed.

A dimension with no relevant information stated scores 0.

Respond with only JSON in this exact shape:
{"fit":{"score":0,"detail":""},"budget":{"score":0,"detail":""},"need":{"score":0,"detail":""},"urgency":{"score":0,"detail":""},"engagement":{"score":0,"detail":""}}`,
		icpDescription, insight)
}
