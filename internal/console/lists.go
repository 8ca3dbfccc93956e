package console

import (
	"context"

	"messenger/internal/domain/user"
)

const (
	listContact = user.ListContact
	listBlock   = user.ListBlock
)

func listTitle(kind user.ListKind) string {
	if kind == user.ListBlock {
		return "blocked list"
	}
	return "contact list"
}

func (s *Session) addToList(ctx context.Context, kind user.ListKind) error {
	target, err := s.prompt("\tEnter login of user to add: ")
	if err != nil {
		return err
	}
	if err := s.svc.Lists.AddToList(ctx, kind, s.user, target); err != nil {
		s.report(ctx, err)
		return nil
	}
	s.printf("%s added to your %s.\n", target, listTitle(kind))
	return nil
}

// browseList prints the list in insertion order and offers to remove an entry.
func (s *Session) browseList(ctx context.Context, kind user.ListKind) error {
	members, err := s.svc.Lists.ListMembers(ctx, kind, s.user)
	if err != nil {
		s.report(ctx, err)
		return nil
	}
	if len(members) == 0 {
		s.printf("Your %s is empty.\n", listTitle(kind))
		return nil
	}
	for i, m := range members {
		s.printf("%d. %s\n", i+1, m)
	}

	target, err := s.prompt("\tEnter a login to remove it (blank to go back): ")
	if err != nil || target == "" {
		return err
	}
	if err := s.svc.Lists.RemoveFromList(ctx, kind, s.user, target); err != nil {
		s.report(ctx, err)
		return nil
	}
	s.printf("%s removed from your %s.\n", target, listTitle(kind))
	return nil
}
