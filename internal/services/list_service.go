package services

import (
	"context"
	"errors"

	"messenger/internal/domain/user"
	"messenger/internal/repository"
	messenger_errors "messenger/pkg/errors"
)

// ListService manages a user's contact and block lists.
type ListService struct {
	store repository.Store
}

func NewListService(store repository.Store) *ListService {
	return &ListService{store: store}
}

func (s *ListService) AddToList(ctx context.Context, kind user.ListKind, owner, target string) error {
	if !kind.Valid() || target == "" {
		return messenger_errors.ErrInvalidInput
	}
	if owner == target {
		return messenger_errors.ErrInvalidInput
	}

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		listID, err := ownerList(ctx, tx, kind, owner)
		if err != nil {
			return err
		}
		exists, err := tx.Users().Exists(ctx, target)
		if err != nil {
			return err
		}
		if !exists {
			return messenger_errors.ErrUnknownUser
		}
		return tx.Lists().AddMember(ctx, listID, target)
	})
}

// RemoveFromList deletes target from the owner's list. Removing an absent
// member succeeds without effect.
func (s *ListService) RemoveFromList(ctx context.Context, kind user.ListKind, owner, target string) error {
	if !kind.Valid() {
		return messenger_errors.ErrInvalidInput
	}
	listID, err := ownerList(ctx, s.store, kind, owner)
	if err != nil {
		return err
	}
	_, err = s.store.Lists().RemoveMember(ctx, listID, target)
	return err
}

// ListMembers returns the member logins in insertion order.
func (s *ListService) ListMembers(ctx context.Context, kind user.ListKind, owner string) ([]string, error) {
	if !kind.Valid() {
		return nil, messenger_errors.ErrInvalidInput
	}
	listID, err := ownerList(ctx, s.store, kind, owner)
	if err != nil {
		return nil, err
	}
	members, err := s.store.Lists().Members(ctx, listID)
	if err != nil {
		return nil, err
	}
	logins := make([]string, 0, len(members))
	for _, m := range members {
		logins = append(logins, m.Member)
	}
	return logins, nil
}

func ownerList(ctx context.Context, store repository.Store, kind user.ListKind, owner string) (int64, error) {
	u, err := store.Users().GetByLogin(ctx, owner)
	if err != nil {
		if errors.Is(err, messenger_errors.ErrNotFound) {
			return 0, messenger_errors.ErrUnknownUser
		}
		return 0, err
	}
	return u.ListID(kind), nil
}
