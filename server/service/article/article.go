// Package article generates and serves full article bodies with embedded
// curiosity questions.
package article

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/plugin/markdown"
	"github.com/afterlinkhq/afterlink/store"
)

const snippetMaxLen = 160

// Store is the persistence surface the article service needs.
type Store interface {
	CreateArticle(ctx context.Context, create *store.Article) (*store.Article, error)
	GetArticle(ctx context.Context, find *store.FindArticle) (*store.Article, error)
	ListArticles(ctx context.Context, find *store.FindArticle) ([]*store.Article, error)
	UpdateArticle(ctx context.Context, update *store.UpdateArticle) (*store.Article, error)
	CreateArticleContent(ctx context.Context, create *store.ArticleContent) (*store.ArticleContent, error)
	GetArticleContent(ctx context.Context, find *store.FindArticleContent) (*store.ArticleContent, error)
	ClearArticles(ctx context.Context) error
}

// Service generates, persists and serves articles.
type Service struct {
	store Store
	llm   ai.LLMService
	md    markdown.Service
}

// NewService creates an article service.
func NewService(store Store, llm ai.LLMService, md markdown.Service) *Service {
	return &Service{
		store: store,
		llm:   llm,
		md:    md,
	}
}

// Generate produces and persists a full article for a title, or returns the
// stored one when the title already exists. Content is stored separately
// from metadata to stay under the metadata payload ceiling.
func (s *Service) Generate(ctx context.Context, title string) (*chat.FullArticle, error) {
	existing, err := s.store.GetArticle(ctx, &store.FindArticle{Title: &title})
	if err != nil {
		return nil, errors.Wrap(err, "find article by title")
	}
	if existing != nil {
		return s.GetByID(ctx, existing.ID)
	}

	raw, err := s.llm.Generate(ctx, articlePrompt(title), 1600)
	if err != nil {
		return nil, errors.Wrap(err, "generate article body")
	}
	content := SanitizeMarkers(raw)

	snippet := s.md.PlainText(content)
	if len(snippet) > snippetMaxLen {
		cut := snippetMaxLen
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}

	created, err := s.store.CreateArticle(ctx, &store.Article{
		Title:   title,
		Slug:    Slugify(title),
		Snippet: snippet,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create article")
	}

	if err := s.resolveSlugCollision(ctx, created); err != nil {
		slog.Warn("failed to resolve slug collision", "article_id", created.ID, "error", err)
	}

	if _, err := s.store.CreateArticleContent(ctx, &store.ArticleContent{
		ArticleID: created.ID,
		Content:   content,
	}); err != nil {
		return nil, errors.Wrap(err, "store article content")
	}

	return &chat.FullArticle{
		ID:      created.ID,
		Title:   created.Title,
		Content: content,
	}, nil
}

// GetByID returns a stored article with its body, or chat.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int32) (*chat.FullArticle, error) {
	article, err := s.store.GetArticle(ctx, &store.FindArticle{ID: &id})
	if err != nil {
		return nil, errors.Wrap(err, "find article")
	}
	if article == nil {
		return nil, errors.Wrapf(chat.ErrNotFound, "article %d", id)
	}

	content, err := s.store.GetArticleContent(ctx, &store.FindArticleContent{ArticleID: &id})
	if err != nil {
		return nil, errors.Wrap(err, "load article content")
	}
	body := ""
	if content != nil {
		body = content.Content
	}

	return &chat.FullArticle{
		ID:      article.ID,
		Title:   article.Title,
		Content: body,
	}, nil
}

// List returns all stored article metadata.
func (s *Service) List(ctx context.Context) ([]*store.Article, error) {
	return s.store.ListArticles(ctx, &store.FindArticle{})
}

// Clear wipes all stored articles, contents and insights.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.ClearArticles(ctx)
}

// resolveSlugCollision appends the article id when the computed slug is
// already owned by a different article.
func (s *Service) resolveSlugCollision(ctx context.Context, created *store.Article) error {
	owners, err := s.store.ListArticles(ctx, &store.FindArticle{Slug: &created.Slug})
	if err != nil {
		return err
	}
	for _, owner := range owners {
		if owner.ID != created.ID {
			newSlug := fmt.Sprintf("%s-%d", created.Slug, created.ID)
			if _, err := s.store.UpdateArticle(ctx, &store.UpdateArticle{
				ID:   created.ID,
				Slug: &newSlug,
			}); err != nil {
				return err
			}
			created.Slug = newSlug
			return nil
		}
	}
	return nil
}

func articlePrompt(title string) string {
	return fmt.Sprintf(`Write an informative article titled %q.

Requirements:
- Split the prose into paragraphs separated by blank lines (double newline).
- At 2 to 5 points where general information is insufficient without the
  reader's personal context, wrap a short phrase in a marker of the form
  {{Q:phrase}}. The phrase must read naturally in the sentence.
- No headings, no lists, no markdown emphasis. Prose only.
- Do not mention these instructions.`, title)
}
