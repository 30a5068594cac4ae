package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/store"
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

type mockStore struct {
	articles []*store.Article
	err      error
}

func (m *mockStore) ListArticles(_ context.Context, _ *store.FindArticle) ([]*store.Article, error) {
	return m.articles, m.err
}

// scriptedLLM answers the plausibility gate, the relevance judgment and the
// suggestion request by matching prompt markers.
func scriptedLLM(comprehensible string, relevantIDs string, suggestions string) *mockLLM {
	return &mockLLM{
		generateFunc: func(_ context.Context, prompt string, _ int) (string, error) {
			switch {
			case strings.Contains(prompt, "Answer only YES or NO"):
				return comprehensible, nil
			case strings.Contains(prompt, "Which existing articles are relevant"):
				return relevantIDs, nil
			default:
				return suggestions, nil
			}
		},
	}
}

func storedArticles() []*store.Article {
	return []*store.Article{
		{ID: 1, Title: "Retiring at 50", Snippet: "Early retirement math."},
		{ID: 2, Title: "Index Funds 101", Snippet: "Passive investing basics."},
	}
}

func TestSearchTopsUpWithSuggestions(t *testing.T) {
	llm := scriptedLLM("YES", "[1]",
		`[{"title":"Catch-Up Contributions","snippet":"s1"},{"title":"Roth vs Traditional","snippet":"s2"}]`)
	svc := NewService(&mockStore{articles: storedArticles()}, llm, 3)

	got, err := svc.Search(context.Background(), "retirement planning")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// One stored result with an id, topped up with exactly two fresh ones.
	require.NotNil(t, got[0].ID)
	require.Equal(t, int32(1), *got[0].ID)
	require.Nil(t, got[1].ID)
	require.Nil(t, got[2].ID)
}

func TestSearchIncomprehensibleQueryYieldsEmpty(t *testing.T) {
	llm := scriptedLLM("NO", "[]", "[]")
	svc := NewService(&mockStore{articles: storedArticles()}, llm, 3)

	got, err := svc.Search(context.Background(), "asdfgh qwerty zxcvb")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestSearchEmptyQueryYieldsEmpty(t *testing.T) {
	llm := scriptedLLM("YES", "[]", "[]")
	svc := NewService(&mockStore{}, llm, 3)

	got, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSearchKeepsAllRelevantWhenOverTarget(t *testing.T) {
	articles := []*store.Article{
		{ID: 1, Title: "A"}, {ID: 2, Title: "B"},
		{ID: 3, Title: "C"}, {ID: 4, Title: "D"},
	}
	llm := scriptedLLM("YES", "[1,2,3,4]", "[]")
	svc := NewService(&mockStore{articles: articles}, llm, 3)

	got, err := svc.Search(context.Background(), "broad topic")
	require.NoError(t, err)
	// All four kept; no suggestions requested since the target is already met.
	require.Len(t, got, 4)
	for _, a := range got {
		require.NotNil(t, a.ID)
	}
}

func TestSearchDropsDuplicateAndUnknownRelevantIDs(t *testing.T) {
	llm := scriptedLLM("YES", "[2, 2, 99, 1]",
		`[{"title":"Fresh","snippet":"s"}]`)
	svc := NewService(&mockStore{articles: storedArticles()}, llm, 3)

	got, err := svc.Search(context.Background(), "investing")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int32(2), *got[0].ID)
	require.Equal(t, int32(1), *got[1].ID)
	require.Nil(t, got[2].ID)
}

func TestSearchUnparseableRelevanceMeansNoneRelevant(t *testing.T) {
	llm := scriptedLLM("YES", "I think the first two look good",
		`[{"title":"X","snippet":"x"},{"title":"Y","snippet":"y"},{"title":"Z","snippet":"z"}]`)
	svc := NewService(&mockStore{articles: storedArticles()}, llm, 3)

	got, err := svc.Search(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, a := range got {
		require.Nil(t, a.ID)
	}
}

func TestSearchSuggestionsNeverDuplicateExistingTitles(t *testing.T) {
	llm := scriptedLLM("YES", "[]",
		`[{"title":"index funds 101","snippet":"dup"},{"title":"Bonds Basics","snippet":"s"},{"title":"Dividend Income","snippet":"s"},{"title":"REIT Primer","snippet":"s"}]`)
	svc := NewService(&mockStore{articles: storedArticles()}, llm, 3)

	got, err := svc.Search(context.Background(), "investing")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, a := range got {
		require.NotEqual(t, "index funds 101", strings.ToLower(a.Title))
	}
}
