package repository

import (
	"context"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/message"
	"messenger/internal/domain/user"
)

type UserRepository interface {
	// Create inserts u. A taken login yields ErrDuplicateLogin.
	Create(ctx context.Context, u *user.User) error
	GetByLogin(ctx context.Context, login string) (user.User, error)
	Exists(ctx context.Context, login string) (bool, error)
	// ExistingLogins returns the subset of logins that have a user row.
	ExistingLogins(ctx context.Context, logins []string) (map[string]bool, error)
	UpdateStatus(ctx context.Context, login, status string) error
	Delete(ctx context.Context, login string) error
}

type ListRepository interface {
	CreateList(ctx context.Context, kind user.ListKind) (int64, error)
	DeleteList(ctx context.Context, listID int64) error

	// AddMember yields ErrDuplicateMembership for an existing pair and
	// ErrUnknownUser when member has no user row.
	AddMember(ctx context.Context, listID int64, member string) error
	// RemoveMember reports whether a row was deleted.
	RemoveMember(ctx context.Context, listID int64, member string) (bool, error)
	Members(ctx context.Context, listID int64) ([]user.ListMembership, error)
	IsMember(ctx context.Context, listID int64, member string) (bool, error)
	DeleteMembersOfList(ctx context.Context, listID int64) error
	// DeleteMemberships removes member from every list it appears in.
	DeleteMemberships(ctx context.Context, member string) error
}

type ChatRepository interface {
	Create(ctx context.Context, c *chat.Chat) error
	GetByID(ctx context.Context, chatID int64) (chat.Chat, error)
	// LockByID is GetByID holding a row lock until the transaction ends.
	LockByID(ctx context.Context, chatID int64) (chat.Chat, error)
	UpdateType(ctx context.Context, chatID int64, t chat.Type) error
	UpdateInitSender(ctx context.Context, chatID int64, login string) error
	// MarkCompleted sets the chat's completed flag; it is never cleared.
	MarkCompleted(ctx context.Context, chatID int64) error
	Delete(ctx context.Context, chatID int64) error

	AddMember(ctx context.Context, chatID int64, member string) error
	RemoveMember(ctx context.Context, chatID int64, member string) (bool, error)
	// Members returns memberships in join order.
	Members(ctx context.Context, chatID int64) ([]chat.Membership, error)
	IsMember(ctx context.Context, chatID int64, member string) (bool, error)
	CountMembers(ctx context.Context, chatID int64) (int, error)
	DeleteMembers(ctx context.Context, chatID int64) error
	DeleteMembershipsOf(ctx context.Context, member string) error

	ChatsOf(ctx context.Context, member string) ([]chat.Chat, error)
	InitiatedBy(ctx context.Context, login string) ([]chat.Chat, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	// GetByID looks the message up within chatID only.
	GetByID(ctx context.Context, chatID, msgID int64) (message.Message, error)
	UpdateText(ctx context.Context, msgID int64, text string) error
	Delete(ctx context.Context, msgID int64) error

	// Page returns up to limit messages strictly after the cursor (from the start when nil),
	// ascending by (timestamp, msg_id).
	Page(ctx context.Context, chatID int64, after *message.Cursor, limit int) ([]message.Message, error)
	// PageBefore returns up to limit messages strictly before the cursor (from the end when nil),
	// ascending by (timestamp, msg_id).
	PageBefore(ctx context.Context, chatID int64, before *message.Cursor, limit int) ([]message.Message, error)
	// Latest returns the newest message of the chat, or ErrNotFound when empty.
	Latest(ctx context.Context, chatID int64) (message.Message, error)
	Count(ctx context.Context, chatID int64) (int, error)
	DeleteByChat(ctx context.Context, chatID int64) error
	DeleteBySender(ctx context.Context, login string) error
}

// Store groups the repositories over one data-access handle.
type Store interface {
	Users() UserRepository
	Lists() ListRepository
	Chats() ChatRepository
	Messages() MessageRepository

	// WithTx runs fn against a Store bound to one transaction. fn's error rolls
	// everything back. Calls on a Store already inside a transaction join it.
	WithTx(ctx context.Context, fn func(Store) error) error
}
