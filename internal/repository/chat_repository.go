package repository

import (
	"context"
	"database/sql"
	"errors"

	"messenger/internal/domain/chat"
	messenger_errors "messenger/pkg/errors"
)

type PostgresChatRepository struct {
	db DBTX
}

func NewChatRepository(db DBTX) ChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) Create(ctx context.Context, c *chat.Chat) error {
	err := r.db.QueryRowContext(ctx, `
        INSERT INTO chat (chat_type, init_sender, completed)
        VALUES ($1,$2,$3)
        RETURNING chat_id
    `, string(c.Type), c.InitSender, c.Completed).Scan(&c.ChatID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return messenger_errors.ErrUnknownUser
		}
		return wrapDBError(err, "create chat")
	}
	return nil
}

func (r *PostgresChatRepository) GetByID(ctx context.Context, chatID int64) (chat.Chat, error) {
	return r.get(ctx, `SELECT chat_id, chat_type, init_sender, completed FROM chat WHERE chat_id = $1`, chatID)
}

func (r *PostgresChatRepository) LockByID(ctx context.Context, chatID int64) (chat.Chat, error) {
	return r.get(ctx, `SELECT chat_id, chat_type, init_sender, completed FROM chat WHERE chat_id = $1 FOR UPDATE`, chatID)
}

func (r *PostgresChatRepository) get(ctx context.Context, query string, chatID int64) (chat.Chat, error) {
	var c chat.Chat
	var t string
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(&c.ChatID, &t, &c.InitSender, &c.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Chat{}, messenger_errors.ErrNotFound
		}
		return chat.Chat{}, wrapDBError(err, "get chat")
	}
	c.Type = chat.Type(t)
	return c, nil
}

func (r *PostgresChatRepository) UpdateType(ctx context.Context, chatID int64, t chat.Type) error {
	return r.update(ctx, `UPDATE chat SET chat_type = $1 WHERE chat_id = $2`, "update chat type", string(t), chatID)
}

func (r *PostgresChatRepository) UpdateInitSender(ctx context.Context, chatID int64, login string) error {
	return r.update(ctx, `UPDATE chat SET init_sender = $1 WHERE chat_id = $2`, "update init sender", login, chatID)
}

func (r *PostgresChatRepository) MarkCompleted(ctx context.Context, chatID int64) error {
	return r.update(ctx, `UPDATE chat SET completed = TRUE WHERE chat_id = $1`, "mark chat completed", chatID)
}

func (r *PostgresChatRepository) Delete(ctx context.Context, chatID int64) error {
	return r.update(ctx, `DELETE FROM chat WHERE chat_id = $1`, "delete chat", chatID)
}

func (r *PostgresChatRepository) update(ctx context.Context, query, op string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDBError(err, op)
	}
	n, err := rowsAffected(res, op)
	if err != nil {
		return err
	}
	if n == 0 {
		return messenger_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresChatRepository) AddMember(ctx context.Context, chatID int64, member string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO chat_list (chat_id, member)
        VALUES ($1,$2)
    `, chatID, member)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return messenger_errors.ErrDuplicateMembership
		case isForeignKeyViolation(err):
			return messenger_errors.ErrUnknownUser
		}
		return wrapDBError(err, "add chat member")
	}
	return nil
}

func (r *PostgresChatRepository) RemoveMember(ctx context.Context, chatID int64, member string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM chat_list
        WHERE chat_id = $1 AND member = $2
    `, chatID, member)
	if err != nil {
		return false, wrapDBError(err, "remove chat member")
	}
	n, err := rowsAffected(res, "remove chat member")
	return n > 0, err
}

func (r *PostgresChatRepository) Members(ctx context.Context, chatID int64) ([]chat.Membership, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT chat_id, member, joined_at
        FROM chat_list
        WHERE chat_id = $1
        ORDER BY joined_at ASC, member ASC
    `, chatID)
	if err != nil {
		return nil, wrapDBError(err, "chat members")
	}
	defer rows.Close()

	var members []chat.Membership
	for rows.Next() {
		var m chat.Membership
		if err := rows.Scan(&m.ChatID, &m.Member, &m.JoinedAt); err != nil {
			return nil, wrapDBError(err, "chat members")
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "chat members")
	}
	return members, nil
}

func (r *PostgresChatRepository) IsMember(ctx context.Context, chatID int64, member string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (SELECT 1 FROM chat_list WHERE chat_id = $1 AND member = $2)
    `, chatID, member).Scan(&exists)
	if err != nil {
		return false, wrapDBError(err, "is chat member")
	}
	return exists, nil
}

func (r *PostgresChatRepository) CountMembers(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_list WHERE chat_id = $1`, chatID).Scan(&n)
	if err != nil {
		return 0, wrapDBError(err, "count chat members")
	}
	return n, nil
}

func (r *PostgresChatRepository) DeleteMembers(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_list WHERE chat_id = $1`, chatID)
	return wrapDBError(err, "delete chat members")
}

func (r *PostgresChatRepository) DeleteMembershipsOf(ctx context.Context, member string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_list WHERE member = $1`, member)
	return wrapDBError(err, "delete chat memberships")
}

func (r *PostgresChatRepository) ChatsOf(ctx context.Context, member string) ([]chat.Chat, error) {
	return r.list(ctx, `
        SELECT c.chat_id, c.chat_type, c.init_sender, c.completed
        FROM chat c
        JOIN chat_list cl ON cl.chat_id = c.chat_id
        WHERE cl.member = $1
        ORDER BY c.chat_id ASC
    `, "chats of member", member)
}

func (r *PostgresChatRepository) InitiatedBy(ctx context.Context, login string) ([]chat.Chat, error) {
	return r.list(ctx, `
        SELECT chat_id, chat_type, init_sender, completed
        FROM chat
        WHERE init_sender = $1
        ORDER BY chat_id ASC
    `, "chats initiated by", login)
}

func (r *PostgresChatRepository) list(ctx context.Context, query, op string, args ...interface{}) ([]chat.Chat, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, op)
	}
	defer rows.Close()

	var chats []chat.Chat
	for rows.Next() {
		var c chat.Chat
		var t string
		if err := rows.Scan(&c.ChatID, &t, &c.InitSender, &c.Completed); err != nil {
			return nil, wrapDBError(err, op)
		}
		c.Type = chat.Type(t)
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, op)
	}
	return chats, nil
}
