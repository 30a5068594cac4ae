package apiv1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/store"
)

type articleMetadata struct {
	ID        int32  `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Snippet   string `json:"snippet"`
	CreatedTs int64  `json:"createdTs"`
}

// ListArticles returns metadata for every stored article.
//
//	GET /api/v1/articles
func (s *APIV1Service) ListArticles(c echo.Context) error {
	articles, err := s.ArticleService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list articles").SetInternal(err)
	}

	resp := make([]*articleMetadata, 0, len(articles))
	for _, a := range articles {
		resp = append(resp, toArticleMetadata(a))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetArticle returns one stored article with its full body. The path segment
// is a numeric id or a slug.
//
//	GET /api/v1/articles/:id
func (s *APIV1Service) GetArticle(c echo.Context) error {
	ctx := c.Request().Context()
	ref := c.Param("id")

	id64, err := strconv.ParseInt(ref, 10, 32)
	if err != nil {
		slug := ref
		article, err := s.Store.GetArticle(ctx, &store.FindArticle{Slug: &slug})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to find article").SetInternal(err)
		}
		if article == nil {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		id64 = int64(article.ID)
	}

	full, err := s.ArticleService.GetByID(ctx, int32(id64))
	if err != nil {
		if chat.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load article").SetInternal(err)
	}
	return c.JSON(http.StatusOK, full)
}

// ListInsights returns every accumulated lead record.
//
//	GET /api/v1/insights
func (s *APIV1Service) ListInsights(c echo.Context) error {
	rows, err := s.InsightService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list insights").SetInternal(err)
	}

	resp := make([]chat.UserInsight, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, chat.UserInsight{
			ID:                row.ID,
			SessionUserID:     row.SessionUserID,
			ArticleTitle:      row.ArticleTitle,
			Category:          row.Category,
			Insight:           row.Insight,
			RawMessage:        row.RawMessage,
			UserName:          row.UserName,
			ContactPreference: row.ContactPreference,
			UserEmail:         row.UserEmail,
			UserPhone:         row.UserPhone,
			CreatedTs:         row.CreatedTs,
			UpdatedTs:         row.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetStats returns instance usage counters.
//
//	GET /api/v1/stats
func (s *APIV1Service) GetStats(c echo.Context) error {
	snapshot, err := s.StatsCollector.Snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to collect stats").SetInternal(err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

func toArticleMetadata(a *store.Article) *articleMetadata {
	return &articleMetadata{
		ID:        a.ID,
		Title:     a.Title,
		Slug:      a.Slug,
		Snippet:   a.Snippet,
		CreatedTs: a.CreatedTs,
	}
}
