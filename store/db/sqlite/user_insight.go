package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/afterlinkhq/afterlink/store"
)

// UpsertUserInsight inserts or replaces the single insight row for a session.
// The unique index on session_user_id enforces the at-most-one-row invariant
// even under concurrent turns from the same session.
func (d *DB) UpsertUserInsight(ctx context.Context, upsert *store.UserInsight) (*store.UserInsight, error) {
	stmt := `INSERT INTO user_insight (
			session_user_id, article_title, category, insight, raw_message,
			user_name, contact_preference, user_email, user_phone
		)
		VALUES (` + placeholders(9) + `)
		ON CONFLICT (session_user_id) DO UPDATE SET
			article_title = EXCLUDED.article_title,
			category = EXCLUDED.category,
			insight = EXCLUDED.insight,
			raw_message = EXCLUDED.raw_message,
			user_name = EXCLUDED.user_name,
			contact_preference = EXCLUDED.contact_preference,
			user_email = EXCLUDED.user_email,
			user_phone = EXCLUDED.user_phone,
			updated_ts = strftime('%s', 'now')
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.SessionUserID, upsert.ArticleTitle, upsert.Category, upsert.Insight, upsert.RawMessage,
		upsert.UserName, upsert.ContactPreference, upsert.UserEmail, upsert.UserPhone,
	).Scan(
		&upsert.ID,
		&upsert.CreatedTs,
		&upsert.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert user insight: %w", err)
	}

	return upsert, nil
}

func (d *DB) ListUserInsights(ctx context.Context, find *store.FindUserInsight) ([]*store.UserInsight, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "user_insight.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SessionUserID; v != nil {
		where, args = append(where, "user_insight.session_user_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, session_user_id, article_title, category, insight, raw_message,
			user_name, contact_preference, user_email, user_phone,
			created_ts, updated_ts
		FROM user_insight
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY user_insight.updated_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user insights: %w", err)
	}
	defer rows.Close()

	list := []*store.UserInsight{}
	for rows.Next() {
		insight := &store.UserInsight{}
		if err := rows.Scan(
			&insight.ID,
			&insight.SessionUserID,
			&insight.ArticleTitle,
			&insight.Category,
			&insight.Insight,
			&insight.RawMessage,
			&insight.UserName,
			&insight.ContactPreference,
			&insight.UserEmail,
			&insight.UserPhone,
			&insight.CreatedTs,
			&insight.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user insight: %w", err)
		}
		list = append(list, insight)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateUserInsight(ctx context.Context, update *store.UpdateUserInsight) (*store.UserInsight, error) {
	set, args := []string{}, []any{}

	if v := update.ArticleTitle; v != nil {
		set, args = append(set, "article_title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Category; v != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Insight; v != nil {
		set, args = append(set, "insight = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RawMessage; v != nil {
		set, args = append(set, "raw_message = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UserName; v != nil {
		set, args = append(set, "user_name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ContactPreference; v != nil {
		set, args = append(set, "contact_preference = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UserEmail; v != nil {
		set, args = append(set, "user_email = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UserPhone; v != nil {
		set, args = append(set, "user_phone = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `UPDATE user_insight SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING
			id, session_user_id, article_title, category, insight, raw_message,
			user_name, contact_preference, user_email, user_phone,
			created_ts, updated_ts`

	insight := &store.UserInsight{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&insight.ID,
		&insight.SessionUserID,
		&insight.ArticleTitle,
		&insight.Category,
		&insight.Insight,
		&insight.RawMessage,
		&insight.UserName,
		&insight.ContactPreference,
		&insight.UserEmail,
		&insight.UserPhone,
		&insight.CreatedTs,
		&insight.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update user insight: %w", err)
	}

	return insight, nil
}

func (d *DB) DeleteAllUserInsights(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM user_insight`); err != nil {
		return fmt.Errorf("failed to delete user insights: %w", err)
	}
	return nil
}
