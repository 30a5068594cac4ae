package apiv1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/afterlinkhq/afterlink/store"
)

const maxRSSItemCount = 100

// GetRSSFeed serves the explore feed of published articles.
//
//	GET /explore/rss.xml
func (s *APIV1Service) GetRSSFeed(c echo.Context) error {
	ctx := c.Request().Context()
	articles, err := s.ArticleService.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list articles").SetInternal(err)
	}
	if len(articles) > maxRSSItemCount {
		articles = articles[:maxRSSItemCount]
	}

	baseURL := s.Profile.InstanceURL
	feed := &feeds.Feed{
		Title:       "Afterlink Explore",
		Link:        &feeds.Link{Href: baseURL + "/explore"},
		Description: "Generated articles",
		Created:     time.Now(),
	}

	feed.Items = make([]*feeds.Item, 0, len(articles))
	for _, article := range articles {
		item, err := s.feedItem(ctx, article, baseURL)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render feed item").SetInternal(err)
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate rss").SetInternal(err)
	}
	return c.Blob(http.StatusOK, "application/rss+xml", []byte(rss))
}

func (s *APIV1Service) feedItem(ctx context.Context, article *store.Article, baseURL string) (*feeds.Item, error) {
	description := article.Snippet
	content, err := s.Store.GetArticleContent(ctx, &store.FindArticleContent{ArticleID: &article.ID})
	if err != nil {
		return nil, err
	}
	body := ""
	if content != nil {
		rendered, err := s.MarkdownService.RenderHTML(content.Content)
		if err != nil {
			return nil, err
		}
		body = rendered
	}

	return &feeds.Item{
		Title:       article.Title,
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/a/%s", baseURL, article.Slug)},
		Description: description,
		Content:     body,
		Created:     time.Unix(article.CreatedTs, 0),
	}, nil
}
