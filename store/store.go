package store

import (
	"context"
	"fmt"
	"time"

	"github.com/afterlinkhq/afterlink/internal/profile"
	"github.com/afterlinkhq/afterlink/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// contentCache keeps hot article bodies out of the content table.
	contentCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		contentCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        200,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.contentCache.Close()
	return s.driver.Close()
}

func (s *Store) CreateArticle(ctx context.Context, create *Article) (*Article, error) {
	return s.driver.CreateArticle(ctx, create)
}

func (s *Store) ListArticles(ctx context.Context, find *FindArticle) ([]*Article, error) {
	return s.driver.ListArticles(ctx, find)
}

// GetArticle returns the single article matching find, or nil when absent.
func (s *Store) GetArticle(ctx context.Context, find *FindArticle) (*Article, error) {
	articles, err := s.driver.ListArticles(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}
	return articles[0], nil
}

func (s *Store) UpdateArticle(ctx context.Context, update *UpdateArticle) (*Article, error) {
	return s.driver.UpdateArticle(ctx, update)
}

func (s *Store) DeleteArticle(ctx context.Context, delete *DeleteArticle) error {
	s.contentCache.Delete(ctx, contentCacheKey(delete.ID))
	return s.driver.DeleteArticle(ctx, delete)
}

func (s *Store) CreateArticleContent(ctx context.Context, create *ArticleContent) (*ArticleContent, error) {
	content, err := s.driver.CreateArticleContent(ctx, create)
	if err != nil {
		return nil, err
	}
	s.contentCache.Set(ctx, contentCacheKey(content.ArticleID), content)
	return content, nil
}

// GetArticleContent returns the body for an article, or nil when absent.
func (s *Store) GetArticleContent(ctx context.Context, find *FindArticleContent) (*ArticleContent, error) {
	if find.ArticleID != nil {
		if cached, ok := s.contentCache.Get(ctx, contentCacheKey(*find.ArticleID)); ok {
			if content, ok := cached.(*ArticleContent); ok {
				return content, nil
			}
		}
	}
	content, err := s.driver.GetArticleContent(ctx, find)
	if err != nil {
		return nil, err
	}
	if content != nil {
		s.contentCache.Set(ctx, contentCacheKey(content.ArticleID), content)
	}
	return content, nil
}

// ClearArticles wipes articles, contents and accumulated insights. This is
// the only bulk-delete path in the system.
func (s *Store) ClearArticles(ctx context.Context) error {
	if err := s.driver.DeleteAllArticleContents(ctx); err != nil {
		return err
	}
	if err := s.driver.DeleteAllArticles(ctx); err != nil {
		return err
	}
	if err := s.driver.DeleteAllUserInsights(ctx); err != nil {
		return err
	}
	s.contentCache.Clear(ctx)
	return nil
}

func (s *Store) UpsertUserInsight(ctx context.Context, upsert *UserInsight) (*UserInsight, error) {
	return s.driver.UpsertUserInsight(ctx, upsert)
}

func (s *Store) ListUserInsights(ctx context.Context, find *FindUserInsight) ([]*UserInsight, error) {
	return s.driver.ListUserInsights(ctx, find)
}

// GetUserInsight returns the insight row for find, or nil when absent.
func (s *Store) GetUserInsight(ctx context.Context, find *FindUserInsight) (*UserInsight, error) {
	insights, err := s.driver.ListUserInsights(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(insights) == 0 {
		return nil, nil
	}
	return insights[0], nil
}

func (s *Store) UpdateUserInsight(ctx context.Context, update *UpdateUserInsight) (*UserInsight, error) {
	return s.driver.UpdateUserInsight(ctx, update)
}

func (s *Store) CreateChannel(ctx context.Context, create *Channel) (*Channel, error) {
	return s.driver.CreateChannel(ctx, create)
}

func (s *Store) ListChannels(ctx context.Context, find *FindChannel) ([]*Channel, error) {
	return s.driver.ListChannels(ctx, find)
}

// GetChannel returns the channel matching find, or nil when absent.
func (s *Store) GetChannel(ctx context.Context, find *FindChannel) (*Channel, error) {
	channels, err := s.driver.ListChannels(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, nil
	}
	return channels[0], nil
}

func (s *Store) UpdateChannel(ctx context.Context, update *UpdateChannel) (*Channel, error) {
	return s.driver.UpdateChannel(ctx, update)
}

func (s *Store) DeleteChannel(ctx context.Context, delete *DeleteChannel) error {
	return s.driver.DeleteChannel(ctx, delete)
}

func (s *Store) CreateChannelMessage(ctx context.Context, create *ChannelMessage) (*ChannelMessage, error) {
	return s.driver.CreateChannelMessage(ctx, create)
}

func (s *Store) ListChannelMessages(ctx context.Context, find *FindChannelMessage) ([]*ChannelMessage, error) {
	return s.driver.ListChannelMessages(ctx, find)
}

func contentCacheKey(articleID int32) string {
	return fmt.Sprintf("article-content:%d", articleID)
}
