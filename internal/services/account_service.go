package services

import (
	"context"
	"unicode/utf8"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/user"
	"messenger/internal/repository"
	messenger_errors "messenger/pkg/errors"
)

const maxStatusLength = 140

type AccountService struct {
	store repository.Store
}

func NewAccountService(store repository.Store) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) Profile(ctx context.Context, login string) (user.User, error) {
	return s.store.Users().GetByLogin(ctx, login)
}

// SetStatus replaces the user's status line; an empty status clears it.
func (s *AccountService) SetStatus(ctx context.Context, login, status string) error {
	if utf8.RuneCountInString(status) > maxStatusLength {
		return messenger_errors.ErrInvalidInput
	}
	return s.store.Users().UpdateStatus(ctx, login, status)
}

// DeleteAccount removes login and everything that references it, children
// before parents, in one transaction. Chats the user started are handed to the
// earliest-joined remaining member when at least two others stay; any chat left
// with fewer than two members is deleted with its messages.
func (s *AccountService) DeleteAccount(ctx context.Context, login string) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByLogin(ctx, login)
		if err != nil {
			return err
		}

		if err := tx.Messages().DeleteBySender(ctx, login); err != nil {
			return err
		}

		initiated, err := tx.Chats().InitiatedBy(ctx, login)
		if err != nil {
			return err
		}
		for _, c := range initiated {
			members, err := tx.Chats().Members(ctx, c.ChatID)
			if err != nil {
				return err
			}
			if len(members)-1 >= 2 {
				if err := tx.Chats().UpdateInitSender(ctx, c.ChatID, chat.Successor(members, login)); err != nil {
					return err
				}
				continue
			}
			if err := deleteChatCascade(ctx, tx, c.ChatID); err != nil {
				return err
			}
		}

		joined, err := tx.Chats().ChatsOf(ctx, login)
		if err != nil {
			return err
		}
		if err := tx.Chats().DeleteMembershipsOf(ctx, login); err != nil {
			return err
		}
		for _, c := range joined {
			n, err := tx.Chats().CountMembers(ctx, c.ChatID)
			if err != nil {
				return err
			}
			if n < 2 {
				if err := deleteChatCascade(ctx, tx, c.ChatID); err != nil {
					return err
				}
			}
		}

		if err := tx.Lists().DeleteMemberships(ctx, login); err != nil {
			return err
		}
		if err := tx.Users().Delete(ctx, login); err != nil {
			return err
		}
		for _, listID := range []int64{u.BlockList, u.ContactList} {
			if err := tx.Lists().DeleteMembersOfList(ctx, listID); err != nil {
				return err
			}
			if err := tx.Lists().DeleteList(ctx, listID); err != nil {
				return err
			}
		}
		return nil
	})
}
