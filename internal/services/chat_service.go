package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/message"
	"messenger/internal/repository"
	messenger_errors "messenger/pkg/errors"
)

type ChatService struct {
	store repository.Store
	now   func() time.Time
}

func NewChatService(store repository.Store) *ChatService {
	return &ChatService{store: store, now: dbNow}
}

type StartChatInput struct {
	InitSender string
	Members    []string
	Text       string
}

// CreateChat creates a private chat whose only member is initSender. The chat
// stays incomplete, and is pruned when initSender logs out, until another
// member and a first message are added. Neither session layer calls it; they
// use StartChat, which builds on the same creation step.
func (s *ChatService) CreateChat(ctx context.Context, initSender string) (chat.Chat, error) {
	var c chat.Chat
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		c, err = createChat(ctx, tx, initSender)
		return err
	})
	if err != nil {
		return chat.Chat{}, err
	}
	return c, nil
}

// StartChat creates a chat with every member and its first message in one
// transaction. Duplicate members and initSender itself are ignored in Members.
func (s *ChatService) StartChat(ctx context.Context, in StartChatInput) (chat.Chat, message.Message, error) {
	if err := validateText(in.Text); err != nil {
		return chat.Chat{}, message.Message{}, err
	}
	others := make([]string, 0, len(in.Members))
	for _, m := range in.Members {
		if m == "" {
			return chat.Chat{}, message.Message{}, messenger_errors.ErrInvalidInput
		}
		if m != in.InitSender && !slices.Contains(others, m) {
			others = append(others, m)
		}
	}
	if len(others) == 0 {
		return chat.Chat{}, message.Message{}, messenger_errors.ErrInvalidInput
	}

	var (
		c     chat.Chat
		first message.Message
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		found, err := tx.Users().ExistingLogins(ctx, others)
		if err != nil {
			return err
		}
		for _, m := range others {
			if !found[m] {
				return messenger_errors.ErrUnknownUser
			}
		}

		c, err = createChat(ctx, tx, in.InitSender)
		if err != nil {
			return err
		}
		for _, m := range others {
			if err := tx.Chats().AddMember(ctx, c.ChatID, m); err != nil {
				return err
			}
		}
		if err := promote(ctx, tx, c, len(others)+1); err != nil {
			return err
		}

		first, err = postMessage(ctx, tx, c.ChatID, in.InitSender, in.Text, s.now())
		if err != nil {
			return err
		}
		c, err = tx.Chats().GetByID(ctx, c.ChatID)
		return err
	})
	if err != nil {
		return chat.Chat{}, message.Message{}, err
	}
	return c, first, nil
}

// PruneIncomplete deletes the chats initSender started that never held a second
// member and a message at the same time. Chats that did are kept even after
// members leave or messages are deleted. It returns how many were removed.
func (s *ChatService) PruneIncomplete(ctx context.Context, initSender string) (int, error) {
	removed := 0
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		removed = 0
		chats, err := tx.Chats().InitiatedBy(ctx, initSender)
		if err != nil {
			return err
		}
		for _, c := range chats {
			if c.Completed {
				continue
			}
			if err := deleteChatCascade(ctx, tx, c.ChatID); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (s *ChatService) AddMember(ctx context.Context, actor string, chatID int64, login string) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		c, err := tx.Chats().LockByID(ctx, chatID)
		if err != nil {
			return err
		}
		if actor != c.InitSender {
			return messenger_errors.ErrForbidden
		}
		exists, err := tx.Users().Exists(ctx, login)
		if err != nil {
			return err
		}
		if !exists {
			return messenger_errors.ErrUnknownUser
		}
		if err := tx.Chats().AddMember(ctx, chatID, login); err != nil {
			return err
		}

		count, err := tx.Chats().CountMembers(ctx, chatID)
		if err != nil {
			return err
		}
		if err := promote(ctx, tx, c, count); err != nil {
			return err
		}
		return markIfComplete(ctx, tx, c)
	})
}

// RemoveMember removes login from the chat. The initiator may remove anyone;
// other members may only remove themselves. When the initiator leaves, the
// earliest-joined remaining member takes over.
func (s *ChatService) RemoveMember(ctx context.Context, actor string, chatID int64, login string) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		c, err := tx.Chats().LockByID(ctx, chatID)
		if err != nil {
			return err
		}
		if actor != c.InitSender && actor != login {
			return messenger_errors.ErrForbidden
		}
		members, err := tx.Chats().Members(ctx, chatID)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(members, func(m chat.Membership) bool { return m.Member == login }) {
			return messenger_errors.ErrNotAMember
		}
		if len(members) == 1 {
			return messenger_errors.ErrLastMemberRemoval
		}
		if _, err := tx.Chats().RemoveMember(ctx, chatID, login); err != nil {
			return err
		}
		if login == c.InitSender {
			return tx.Chats().UpdateInitSender(ctx, chatID, chat.Successor(members, login))
		}
		return nil
	})
}

func (s *ChatService) DeleteChat(ctx context.Context, actor string, chatID int64) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		c, err := tx.Chats().LockByID(ctx, chatID)
		if err != nil {
			return err
		}
		if actor != c.InitSender {
			return messenger_errors.ErrForbidden
		}
		return deleteChatCascade(ctx, tx, chatID)
	})
}

func (s *ChatService) Get(ctx context.Context, chatID int64) (chat.Chat, error) {
	return s.store.Chats().GetByID(ctx, chatID)
}

// Members returns the chat's memberships in join order.
func (s *ChatService) Members(ctx context.Context, chatID int64) ([]chat.Membership, error) {
	if _, err := s.store.Chats().GetByID(ctx, chatID); err != nil {
		return nil, err
	}
	return s.store.Chats().Members(ctx, chatID)
}

func (s *ChatService) ChatsOf(ctx context.Context, login string) ([]chat.Chat, error) {
	return s.store.Chats().ChatsOf(ctx, login)
}

// createChat inserts a private chat with initSender as its first member.
func createChat(ctx context.Context, tx repository.Store, initSender string) (chat.Chat, error) {
	c := chat.Chat{Type: chat.TypePrivate, InitSender: initSender}
	if err := tx.Chats().Create(ctx, &c); err != nil {
		return chat.Chat{}, err
	}
	if err := tx.Chats().AddMember(ctx, c.ChatID, initSender); err != nil {
		return chat.Chat{}, err
	}
	return c, nil
}

// promote moves c to the type its member count requires.
func promote(ctx context.Context, tx repository.Store, c chat.Chat, memberCount int) error {
	next := chat.TypeFor(c.Type, memberCount)
	if next == c.Type {
		return nil
	}
	if !chat.CanTransition(c.Type, next) {
		return fmt.Errorf("chat %d: %s to %s: %w", c.ChatID, c.Type, next, messenger_errors.ErrInvalidInput)
	}
	return tx.Chats().UpdateType(ctx, c.ChatID, next)
}

// markIfComplete sets the completed flag once c holds two members and a message.
func markIfComplete(ctx context.Context, tx repository.Store, c chat.Chat) error {
	if c.Completed {
		return nil
	}
	members, err := tx.Chats().CountMembers(ctx, c.ChatID)
	if err != nil {
		return err
	}
	msgs, err := tx.Messages().Count(ctx, c.ChatID)
	if err != nil {
		return err
	}
	if !chat.Complete(members, msgs) {
		return nil
	}
	return tx.Chats().MarkCompleted(ctx, c.ChatID)
}

// deleteChatCascade removes memberships, then messages, then the chat row.
func deleteChatCascade(ctx context.Context, tx repository.Store, chatID int64) error {
	if err := tx.Chats().DeleteMembers(ctx, chatID); err != nil {
		return err
	}
	if err := tx.Messages().DeleteByChat(ctx, chatID); err != nil {
		return err
	}
	if err := tx.Chats().Delete(ctx, chatID); err != nil && !errors.Is(err, messenger_errors.ErrNotFound) {
		return err
	}
	return nil
}
