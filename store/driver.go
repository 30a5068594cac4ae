package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Article model related methods.
	CreateArticle(ctx context.Context, create *Article) (*Article, error)
	ListArticles(ctx context.Context, find *FindArticle) ([]*Article, error)
	UpdateArticle(ctx context.Context, update *UpdateArticle) (*Article, error)
	DeleteArticle(ctx context.Context, delete *DeleteArticle) error
	DeleteAllArticles(ctx context.Context) error

	// ArticleContent model related methods.
	CreateArticleContent(ctx context.Context, create *ArticleContent) (*ArticleContent, error)
	GetArticleContent(ctx context.Context, find *FindArticleContent) (*ArticleContent, error)
	DeleteAllArticleContents(ctx context.Context) error

	// UserInsight model related methods.
	UpsertUserInsight(ctx context.Context, upsert *UserInsight) (*UserInsight, error)
	ListUserInsights(ctx context.Context, find *FindUserInsight) ([]*UserInsight, error)
	UpdateUserInsight(ctx context.Context, update *UpdateUserInsight) (*UserInsight, error)
	DeleteAllUserInsights(ctx context.Context) error

	// Channel model related methods.
	CreateChannel(ctx context.Context, create *Channel) (*Channel, error)
	ListChannels(ctx context.Context, find *FindChannel) ([]*Channel, error)
	UpdateChannel(ctx context.Context, update *UpdateChannel) (*Channel, error)
	DeleteChannel(ctx context.Context, delete *DeleteChannel) error

	// ChannelMessage model related methods.
	CreateChannelMessage(ctx context.Context, create *ChannelMessage) (*ChannelMessage, error)
	ListChannelMessages(ctx context.Context, find *FindChannelMessage) ([]*ChannelMessage, error)
}
