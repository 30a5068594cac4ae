// Package server wires the HTTP surface and background runners.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/internal/profile"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/plugin/markdown"
	"github.com/afterlinkhq/afterlink/server/dispatcher"
	internalmw "github.com/afterlinkhq/afterlink/server/middleware"
	"github.com/afterlinkhq/afterlink/server/router/apiv1"
	"github.com/afterlinkhq/afterlink/server/runner/sweeper"
	"github.com/afterlinkhq/afterlink/server/service/article"
	"github.com/afterlinkhq/afterlink/server/service/insight"
	"github.com/afterlinkhq/afterlink/server/service/lead"
	"github.com/afterlinkhq/afterlink/server/service/question"
	"github.com/afterlinkhq/afterlink/server/service/search"
	"github.com/afterlinkhq/afterlink/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	sweeper    *sweeper.Runner
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, llm ai.LLMService) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   store,
	}

	echoServer := echo.New()
	echoServer.Debug = true
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
	echoServer.Use(internalmw.NewRateLimiter().Middleware())

	markdownService := markdown.NewService()
	insightService := insight.NewAccumulator(store, llm)
	articleService := article.NewService(store, llm, markdownService)
	searchService := search.NewService(store, llm, profile.SearchTargetResults)
	questionService := question.NewService(llm, insightService)
	scorer := lead.NewScorer(llm)

	commandDispatcher := dispatcher.New(store, searchService, articleService, questionService, insightService, scorer)

	apiV1Service := apiv1.NewAPIV1Service(profile, store, commandDispatcher, articleService, insightService, markdownService)
	apiV1Service.Register(echoServer)

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	s.echoServer = echoServer
	s.sweeper = sweeper.NewRunner(store, profile.ChannelTTL)

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	go s.sweeper.Run(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "version", s.Profile.Version)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}
