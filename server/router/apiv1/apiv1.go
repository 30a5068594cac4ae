// Package apiv1 exposes the HTTP surface: the conversation-channel endpoints
// the polling client drives, plus read-only article and insight endpoints for
// the web experience.
package apiv1

import (
	"github.com/labstack/echo/v4"

	"github.com/afterlinkhq/afterlink/internal/profile"
	"github.com/afterlinkhq/afterlink/plugin/markdown"
	"github.com/afterlinkhq/afterlink/server/dispatcher"
	"github.com/afterlinkhq/afterlink/server/service/article"
	"github.com/afterlinkhq/afterlink/server/service/insight"
	"github.com/afterlinkhq/afterlink/server/stats"
	"github.com/afterlinkhq/afterlink/store"
)

type APIV1Service struct {
	Profile         *profile.Profile
	Store           *store.Store
	Dispatcher      *dispatcher.Dispatcher
	ArticleService  *article.Service
	InsightService  *insight.Accumulator
	MarkdownService markdown.Service
	StatsCollector  *stats.Collector
}

func NewAPIV1Service(
	profile *profile.Profile,
	store *store.Store,
	dispatcher *dispatcher.Dispatcher,
	articleService *article.Service,
	insightService *insight.Accumulator,
	markdownService markdown.Service,
) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		Store:           store,
		Dispatcher:      dispatcher,
		ArticleService:  articleService,
		InsightService:  insightService,
		MarkdownService: markdownService,
		StatsCollector:  stats.NewCollector(store),
	}
}

// Register wires all routes onto the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	apiV1 := e.Group("/api/v1")

	apiV1.POST("/channels", s.CreateChannel)
	apiV1.DELETE("/channels/:uid", s.DeleteChannel)
	apiV1.POST("/channels/:uid/messages", s.SendChannelMessage)
	apiV1.GET("/channels/:uid/messages", s.ListChannelMessages)

	apiV1.GET("/articles", s.ListArticles)
	apiV1.GET("/articles/:id", s.GetArticle)
	apiV1.GET("/insights", s.ListInsights)
	apiV1.GET("/stats", s.GetStats)

	e.GET("/explore/rss.xml", s.GetRSSFeed)
}
