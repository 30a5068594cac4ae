// Package search orchestrates article search: existing stored articles judged
// relevant by the generation capability, topped up with fresh suggestions.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/plugin/jsontext"
	"github.com/afterlinkhq/afterlink/store"
)

// DefaultTargetResults is the result count a search aims for.
const DefaultTargetResults = 3

// Store is the persistence surface the search service needs.
type Store interface {
	ListArticles(ctx context.Context, find *store.FindArticle) ([]*store.Article, error)
}

// Service runs search orchestration.
type Service struct {
	store         Store
	llm           ai.LLMService
	targetResults int
}

// NewService creates a search service. targetResults <= 0 falls back to
// DefaultTargetResults.
func NewService(store Store, llm ai.LLMService, targetResults int) *Service {
	if targetResults <= 0 {
		targetResults = DefaultTargetResults
	}
	return &Service{
		store:         store,
		llm:           llm,
		targetResults: targetResults,
	}
}

// Search returns relevant existing articles (with ID) topped up with fresh
// suggestions (without ID) so every element's id-presence tells the caller
// whether to fetch by id or generate on demand.
//
// Incomprehensible queries yield an empty result. When relevance matching
// returns more than the target count, all are kept.
func (s *Service) Search(ctx context.Context, query string) ([]chat.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []chat.Article{}, nil
	}

	comprehensible, err := s.isComprehensible(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "judge query")
	}
	if !comprehensible {
		return []chat.Article{}, nil
	}

	existing, err := s.store.ListArticles(ctx, &store.FindArticle{})
	if err != nil {
		return nil, errors.Wrap(err, "list existing articles")
	}

	relevant := s.relevantExisting(ctx, query, existing)

	results := make([]chat.Article, 0, s.targetResults)
	for _, a := range relevant {
		id := a.ID
		results = append(results, chat.Article{
			ID:      &id,
			Title:   a.Title,
			Snippet: a.Snippet,
		})
	}

	needed := s.targetResults - len(relevant)
	if needed > 0 {
		suggestions, err := s.suggestNew(ctx, query, existing, needed)
		if err != nil {
			return nil, errors.Wrap(err, "suggest new articles")
		}
		results = append(results, suggestions...)
	}

	return results, nil
}

// isComprehensible is a cheap yes/no plausibility check.
func (s *Service) isComprehensible(ctx context.Context, query string) (bool, error) {
	prompt := fmt.Sprintf(
		"Is the following text a comprehensible search phrase someone could want articles about? Answer only YES or NO.\n\nText: %s",
		query)
	response, err := s.llm.Generate(ctx, prompt, 10)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(response)), "YES"), nil
}

// relevantExisting asks which stored ids are relevant to the query. Parse
// failure is treated as "none relevant". Duplicate and unknown ids are
// dropped; first occurrence order is kept.
func (s *Service) relevantExisting(ctx context.Context, query string, existing []*store.Article) []*store.Article {
	if len(existing) == 0 {
		return nil
	}

	var catalog strings.Builder
	byID := make(map[int32]*store.Article, len(existing))
	for _, a := range existing {
		byID[a.ID] = a
		fmt.Fprintf(&catalog, "- id %d: %s — %s\n", a.ID, a.Title, a.Snippet)
	}

	prompt := fmt.Sprintf(`A reader searched for: %q

Existing articles:
%s
Which existing articles are relevant to the search? Respond with only a JSON array of ids, e.g. [1, 4]. Respond [] when none are relevant.`,
		query, catalog.String())

	response, err := s.llm.Generate(ctx, prompt, 100)
	if err != nil {
		slog.Warn("relevance judgment failed, treating as none relevant", "error", err)
		return nil
	}

	var ids []int32
	if err := jsontext.Unmarshal(response, &ids); err != nil {
		return nil
	}

	seen := make(map[int32]struct{}, len(ids))
	var relevant []*store.Article
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if a, ok := byID[id]; ok {
			relevant = append(relevant, a)
		}
	}
	return relevant
}

// suggestNew requests exactly needed brand-new suggestions, excluding every
// existing title so suggestions never duplicate stored articles.
func (s *Service) suggestNew(ctx context.Context, query string, existing []*store.Article, needed int) ([]chat.Article, error) {
	existingTitles := make(map[string]struct{}, len(existing))
	var excluded strings.Builder
	for _, a := range existing {
		existingTitles[strings.ToLower(a.Title)] = struct{}{}
		fmt.Fprintf(&excluded, "- %s\n", a.Title)
	}
	if excluded.Len() == 0 {
		excluded.WriteString("(none)\n")
	}

	prompt := fmt.Sprintf(`A reader searched for: %q

Suggest exactly %d new article ideas matching the search. Never reuse any of these existing titles:
%s
Respond with only a JSON array: [{"title":"...","snippet":"one-sentence teaser"}]`,
		query, needed, excluded.String())

	response, err := s.llm.Generate(ctx, prompt, 400)
	if err != nil {
		return nil, err
	}

	var suggestions []chat.Article
	if err := jsontext.Unmarshal(response, &suggestions); err != nil {
		return nil, errors.Wrap(err, "parse suggestions")
	}

	fresh := make([]chat.Article, 0, needed)
	for _, suggestion := range suggestions {
		if len(fresh) >= needed {
			break
		}
		if suggestion.Title == "" {
			continue
		}
		if _, exists := existingTitles[strings.ToLower(suggestion.Title)]; exists {
			continue
		}
		// Suggestions are not yet persisted; their id must stay absent.
		suggestion.ID = nil
		fresh = append(fresh, suggestion)
	}
	return fresh, nil
}
