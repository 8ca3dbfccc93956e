package repository

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"messenger/internal/domain/message"
	messenger_errors "messenger/pkg/errors"
)

type PostgresMessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

const messageColumns = `msg_id, chat_id, sender_login, msg_text, msg_timestamp`

func scanMessage(row interface{ Scan(...interface{}) error }, m *message.Message) error {
	return row.Scan(&m.MsgID, &m.ChatID, &m.SenderLogin, &m.Text, &m.Timestamp)
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	err := r.db.QueryRowContext(ctx, `
        INSERT INTO message (msg_text, msg_timestamp, sender_login, chat_id)
        VALUES ($1,$2,$3,$4)
        RETURNING msg_id
    `,
		m.Text,
		m.Timestamp,
		m.SenderLogin,
		m.ChatID,
	).Scan(&m.MsgID)
	if err != nil {
		return wrapDBError(err, "create message")
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, chatID, msgID int64) (message.Message, error) {
	var m message.Message
	row := r.db.QueryRowContext(ctx, `
        SELECT `+messageColumns+`
        FROM message
        WHERE msg_id = $1 AND chat_id = $2
    `, msgID, chatID)
	if err := scanMessage(row, &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return message.Message{}, messenger_errors.ErrNotFound
		}
		return message.Message{}, wrapDBError(err, "get message")
	}
	return m, nil
}

func (r *PostgresMessageRepository) UpdateText(ctx context.Context, msgID int64, text string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE message SET msg_text = $1 WHERE msg_id = $2`, text, msgID)
	if err != nil {
		return wrapDBError(err, "update message")
	}
	n, err := rowsAffected(res, "update message")
	if err != nil {
		return err
	}
	if n == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) Delete(ctx context.Context, msgID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM message WHERE msg_id = $1`, msgID)
	if err != nil {
		return wrapDBError(err, "delete message")
	}
	n, err := rowsAffected(res, "delete message")
	if err != nil {
		return err
	}
	if n == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) Page(ctx context.Context, chatID int64, after *message.Cursor, limit int) ([]message.Message, error) {
	if after == nil {
		return r.query(ctx, "message page", `
            SELECT `+messageColumns+`
            FROM message
            WHERE chat_id = $1
            ORDER BY msg_timestamp ASC, msg_id ASC
            LIMIT $2
        `, chatID, limit)
	}
	return r.query(ctx, "message page", `
        SELECT `+messageColumns+`
        FROM message
        WHERE chat_id = $1 AND (msg_timestamp, msg_id) > ($2, $3)
        ORDER BY msg_timestamp ASC, msg_id ASC
        LIMIT $4
    `, chatID, after.Timestamp, after.MsgID, limit)
}

func (r *PostgresMessageRepository) PageBefore(ctx context.Context, chatID int64, before *message.Cursor, limit int) ([]message.Message, error) {
	var (
		msgs []message.Message
		err  error
	)
	if before == nil {
		msgs, err = r.query(ctx, "message history", `
            SELECT `+messageColumns+`
            FROM message
            WHERE chat_id = $1
            ORDER BY msg_timestamp DESC, msg_id DESC
            LIMIT $2
        `, chatID, limit)
	} else {
		msgs, err = r.query(ctx, "message history", `
            SELECT `+messageColumns+`
            FROM message
            WHERE chat_id = $1 AND (msg_timestamp, msg_id) < ($2, $3)
            ORDER BY msg_timestamp DESC, msg_id DESC
            LIMIT $4
        `, chatID, before.Timestamp, before.MsgID, limit)
	}
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (r *PostgresMessageRepository) Latest(ctx context.Context, chatID int64) (message.Message, error) {
	msgs, err := r.PageBefore(ctx, chatID, nil, 1)
	if err != nil {
		return message.Message{}, err
	}
	if len(msgs) == 0 {
		return message.Message{}, messenger_errors.ErrNotFound
	}
	return msgs[0], nil
}

func (r *PostgresMessageRepository) Count(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message WHERE chat_id = $1`, chatID).Scan(&n)
	if err != nil {
		return 0, wrapDBError(err, "count messages")
	}
	return n, nil
}

func (r *PostgresMessageRepository) DeleteByChat(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM message WHERE chat_id = $1`, chatID)
	return wrapDBError(err, "delete chat messages")
}

func (r *PostgresMessageRepository) DeleteBySender(ctx context.Context, login string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM message WHERE sender_login = $1`, login)
	return wrapDBError(err, "delete sender messages")
}

func (r *PostgresMessageRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]message.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, op)
	}
	defer rows.Close()

	var msgs []message.Message
	for rows.Next() {
		var m message.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, wrapDBError(err, op)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, op)
	}
	return msgs, nil
}
