package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/afterlinkhq/afterlink/store"
)

func (d *DB) CreateArticle(ctx context.Context, create *store.Article) (*store.Article, error) {
	fields := []string{"title", "slug", "snippet"}
	placeholderValues := []any{create.Title, create.Slug, create.Snippet}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		placeholderValues = append(placeholderValues, create.UpdatedTs)
	}

	stmt := `INSERT INTO article (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	return create, nil
}

func (d *DB) ListArticles(ctx context.Context, find *store.FindArticle) ([]*store.Article, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "article.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Title; v != nil {
		where, args = append(where, "article.title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Slug; v != nil {
		where, args = append(where, "article.slug = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, title, slug, snippet, created_ts, updated_ts
		FROM article
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY article.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	list := []*store.Article{}
	for rows.Next() {
		article := &store.Article{}
		if err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.Slug,
			&article.Snippet,
			&article.CreatedTs,
			&article.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		list = append(list, article)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateArticle(ctx context.Context, update *store.UpdateArticle) (*store.Article, error) {
	set, args := []string{}, []any{}

	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Slug; v != nil {
		set, args = append(set, "slug = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Snippet; v != nil {
		set, args = append(set, "snippet = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `UPDATE article SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, title, slug, snippet, created_ts, updated_ts`

	article := &store.Article{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&article.ID,
		&article.Title,
		&article.Slug,
		&article.Snippet,
		&article.CreatedTs,
		&article.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}

	return article, nil
}

func (d *DB) DeleteArticle(ctx context.Context, delete *store.DeleteArticle) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM article_content WHERE article_id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete article content: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM article WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

func (d *DB) DeleteAllArticles(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM article`); err != nil {
		return fmt.Errorf("failed to delete articles: %w", err)
	}
	return nil
}

func (d *DB) CreateArticleContent(ctx context.Context, create *store.ArticleContent) (*store.ArticleContent, error) {
	stmt := `INSERT INTO article_content (article_id, content)
		VALUES (?, ?)
		ON CONFLICT (article_id) DO UPDATE SET content = EXCLUDED.content
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, create.ArticleID, create.Content).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create article content: %w", err)
	}
	return create, nil
}

func (d *DB) GetArticleContent(ctx context.Context, find *store.FindArticleContent) (*store.ArticleContent, error) {
	if find.ArticleID == nil {
		return nil, fmt.Errorf("article_id is required")
	}

	query := `SELECT id, article_id, content FROM article_content WHERE article_id = ?`

	content := &store.ArticleContent{}
	err := d.db.QueryRowContext(ctx, query, *find.ArticleID).Scan(
		&content.ID,
		&content.ArticleID,
		&content.Content,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get article content: %w", err)
	}

	return content, nil
}

func (d *DB) DeleteAllArticleContents(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM article_content`); err != nil {
		return fmt.Errorf("failed to delete article contents: %w", err)
	}
	return nil
}
