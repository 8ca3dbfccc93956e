package repository

import (
	"context"
)

type sqlStore struct {
	db       DBTX
	users    UserRepository
	lists    ListRepository
	chats    ChatRepository
	messages MessageRepository
}

// NewStore returns a Store issuing statements through db, normally the *sql.DB
// behind database.Connect.
func NewStore(db DBTX) Store {
	return &sqlStore{
		db:       db,
		users:    NewUserRepository(db),
		lists:    NewListRepository(db),
		chats:    NewChatRepository(db),
		messages: NewMessageRepository(db),
	}
}

func (s *sqlStore) Users() UserRepository       { return s.users }
func (s *sqlStore) Lists() ListRepository       { return s.lists }
func (s *sqlStore) Chats() ChatRepository       { return s.chats }
func (s *sqlStore) Messages() MessageRepository { return s.messages }

func (s *sqlStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return WithTx(ctx, s.db, func(tx DBTX) error {
		if tx == s.db {
			return fn(s)
		}
		return fn(NewStore(tx))
	})
}
