package article

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/plugin/markdown"
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

type memStore struct {
	nextID   int32
	articles []*store.Article
	contents []*store.ArticleContent
	cleared  bool
}

func (m *memStore) CreateArticle(_ context.Context, create *store.Article) (*store.Article, error) {
	m.nextID++
	created := *create
	created.ID = m.nextID
	m.articles = append(m.articles, &created)
	return &created, nil
}

func (m *memStore) GetArticle(_ context.Context, find *store.FindArticle) (*store.Article, error) {
	for _, a := range m.articles {
		if find.ID != nil && a.ID != *find.ID {
			continue
		}
		if find.Title != nil && a.Title != *find.Title {
			continue
		}
		if find.Slug != nil && a.Slug != *find.Slug {
			continue
		}
		return a, nil
	}
	return nil, nil
}

func (m *memStore) ListArticles(_ context.Context, find *store.FindArticle) ([]*store.Article, error) {
	var out []*store.Article
	for _, a := range m.articles {
		if find.ID != nil && a.ID != *find.ID {
			continue
		}
		if find.Title != nil && a.Title != *find.Title {
			continue
		}
		if find.Slug != nil && a.Slug != *find.Slug {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) UpdateArticle(_ context.Context, update *store.UpdateArticle) (*store.Article, error) {
	for _, a := range m.articles {
		if a.ID == update.ID {
			if update.Slug != nil {
				a.Slug = *update.Slug
			}
			if update.Title != nil {
				a.Title = *update.Title
			}
			return a, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateArticleContent(_ context.Context, create *store.ArticleContent) (*store.ArticleContent, error) {
	created := *create
	m.contents = append(m.contents, &created)
	return &created, nil
}

func (m *memStore) GetArticleContent(_ context.Context, find *store.FindArticleContent) (*store.ArticleContent, error) {
	for _, c := range m.contents {
		if find.ArticleID != nil && c.ArticleID == *find.ArticleID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memStore) ClearArticles(_ context.Context) error {
	m.cleared = true
	m.articles = nil
	m.contents = nil
	return nil
}

func generatorLLM(body string) *mockLLM {
	return &mockLLM{
		generateFunc: func(_ context.Context, _ string, _ int) (string, error) {
			return body, nil
		},
	}
}

func newTestService(st *memStore, llm *mockLLM) *Service {
	return NewService(st, llm, markdown.NewService())
}

func TestGeneratePersistsArticleAndContent(t *testing.T) {
	st := &memStore{}
	body := "Retirement depends on {{Q:your monthly budget}}.\n\nStart early and stay invested."
	svc := newTestService(st, generatorLLM(body))

	got, err := svc.Generate(context.Background(), "Retiring at 50")
	require.NoError(t, err)
	require.Equal(t, int32(1), got.ID)
	require.Equal(t, "Retiring at 50", got.Title)
	require.Equal(t, body, got.Content)

	require.Len(t, st.articles, 1)
	require.Equal(t, "retiring-at-50", st.articles[0].Slug)
	// The snippet is marker-free plain text.
	require.NotContains(t, st.articles[0].Snippet, "{{Q:")
	require.Contains(t, st.articles[0].Snippet, "your monthly budget")
	require.Len(t, st.contents, 1)
	require.Equal(t, body, st.contents[0].Content)
}

func TestGenerateReusesExistingTitle(t *testing.T) {
	st := &memStore{}
	calls := 0
	llm := &mockLLM{
		generateFunc: func(_ context.Context, _ string, _ int) (string, error) {
			calls++
			return "Body one.\n\nBody two.", nil
		},
	}
	svc := newTestService(st, llm)
	ctx := context.Background()

	first, err := svc.Generate(ctx, "Same Title")
	require.NoError(t, err)

	second, err := svc.Generate(ctx, "Same Title")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Content, second.Content)
	require.Equal(t, 1, calls)
	require.Len(t, st.articles, 1)
}

func TestGenerateSanitizesMalformedMarkers(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, generatorLLM("Keep {{Q:this}} but drop {{Q:broken."))

	got, err := svc.Generate(context.Background(), "Marker Repair")
	require.NoError(t, err)
	require.NoError(t, ValidateMarkers(got.Content))
	require.Equal(t, 1, CountMarkers(got.Content))
}

func TestGenerateSnippetTrimsAtRuneBoundary(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, generatorLLM(strings.Repeat("界", 100)))

	_, err := svc.Generate(context.Background(), "Wide Runes")
	require.NoError(t, err)

	snippet := st.articles[0].Snippet
	require.LessOrEqual(t, len(snippet), snippetMaxLen)
	require.True(t, utf8.ValidString(snippet))
}

func TestGenerateResolvesSlugCollision(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, generatorLLM("Some body.\n\nMore body."))
	ctx := context.Background()

	_, err := svc.Generate(ctx, "My Topic")
	require.NoError(t, err)
	second, err := svc.Generate(ctx, "My topic")
	require.NoError(t, err)

	require.Len(t, st.articles, 2)
	require.Equal(t, "my-topic", st.articles[0].Slug)
	require.Equal(t, "my-topic-2", st.articles[1].Slug)
	require.Equal(t, int32(2), second.ID)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService(&memStore{}, generatorLLM(""))

	_, err := svc.GetByID(context.Background(), 42)
	require.True(t, chat.IsNotFound(err))
}

func TestClearDelegatesToStore(t *testing.T) {
	st := &memStore{}
	svc := newTestService(st, generatorLLM(""))

	require.NoError(t, svc.Clear(context.Background()))
	require.True(t, st.cleared)
}
