package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/internal/profile"
	"github.com/afterlinkhq/afterlink/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection and ensures the schema exists.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver := &DB{
		db:      db,
		profile: profile,
	}
	if err := driver.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const latestSchema = `
CREATE TABLE IF NOT EXISTS article (
	id SERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL DEFAULT '',
	snippet TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL DEFAULT extract(epoch from now()),
	updated_ts BIGINT NOT NULL DEFAULT extract(epoch from now())
);

CREATE TABLE IF NOT EXISTS article_content (
	id SERIAL PRIMARY KEY,
	article_id INTEGER NOT NULL,
	content TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_article_content_article_id ON article_content (article_id);

CREATE TABLE IF NOT EXISTS user_insight (
	id SERIAL PRIMARY KEY,
	session_user_id TEXT NOT NULL,
	article_title TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	insight TEXT NOT NULL DEFAULT '',
	raw_message TEXT NOT NULL DEFAULT '',
	user_name TEXT NOT NULL DEFAULT '',
	contact_preference TEXT NOT NULL DEFAULT '',
	user_email TEXT NOT NULL DEFAULT '',
	user_phone TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL DEFAULT extract(epoch from now()),
	updated_ts BIGINT NOT NULL DEFAULT extract(epoch from now())
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_user_insight_session_user_id ON user_insight (session_user_id);

CREATE TABLE IF NOT EXISTS channel (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	created_ts BIGINT NOT NULL DEFAULT extract(epoch from now()),
	updated_ts BIGINT NOT NULL DEFAULT extract(epoch from now())
);

CREATE TABLE IF NOT EXISTS channel_message (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	channel_id INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_ts BIGINT NOT NULL DEFAULT extract(epoch from now())
);

CREATE INDEX IF NOT EXISTS idx_channel_message_channel_id ON channel_message (channel_id);
`

func (d *DB) migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	return nil
}
