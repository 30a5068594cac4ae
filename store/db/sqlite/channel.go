package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/afterlinkhq/afterlink/store"
)

func (d *DB) CreateChannel(ctx context.Context, create *store.Channel) (*store.Channel, error) {
	stmt := `INSERT INTO channel (uid)
		VALUES (?)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, create.UID).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return create, nil
}

func (d *DB) ListChannels(ctx context.Context, find *store.FindChannel) ([]*store.Channel, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "channel.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "channel.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UpdatedBefore; v != nil {
		where, args = append(where, "channel.updated_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, created_ts, updated_ts
		FROM channel
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY channel.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	list := []*store.Channel{}
	for rows.Next() {
		channel := &store.Channel{}
		if err := rows.Scan(
			&channel.ID,
			&channel.UID,
			&channel.CreatedTs,
			&channel.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		list = append(list, channel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateChannel(ctx context.Context, update *store.UpdateChannel) (*store.Channel, error) {
	if update.UpdatedTs == nil {
		return nil, fmt.Errorf("no fields to update")
	}

	stmt := `UPDATE channel SET updated_ts = ?
		WHERE id = ?
		RETURNING id, uid, created_ts, updated_ts`

	channel := &store.Channel{}
	if err := d.db.QueryRowContext(ctx, stmt, *update.UpdatedTs, update.ID).Scan(
		&channel.ID,
		&channel.UID,
		&channel.CreatedTs,
		&channel.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}

	return channel, nil
}

func (d *DB) DeleteChannel(ctx context.Context, delete *store.DeleteChannel) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM channel_message WHERE channel_id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete channel messages: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM channel WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

func (d *DB) CreateChannelMessage(ctx context.Context, create *store.ChannelMessage) (*store.ChannelMessage, error) {
	stmt := `INSERT INTO channel_message (uid, channel_id, role, content)
		VALUES (` + placeholders(4) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.ChannelID, create.Role, create.Content,
	).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create channel message: %w", err)
	}

	return create, nil
}

func (d *DB) ListChannelMessages(ctx context.Context, find *store.FindChannelMessage) ([]*store.ChannelMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "channel_message.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "channel_message.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ChannelID; v != nil {
		where, args = append(where, "channel_message.channel_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	// Append order is id order; the correlator depends on it.
	query := `
		SELECT id, uid, channel_id, role, content, created_ts
		FROM channel_message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY channel_message.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel messages: %w", err)
	}
	defer rows.Close()

	list := []*store.ChannelMessage{}
	for rows.Next() {
		message := &store.ChannelMessage{}
		if err := rows.Scan(
			&message.ID,
			&message.UID,
			&message.ChannelID,
			&message.Role,
			&message.Content,
			&message.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan channel message: %w", err)
		}
		list = append(list, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
