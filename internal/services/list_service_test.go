package services

import (
	"context"
	"slices"
	"testing"

	"messenger/internal/domain/user"
	messenger_errors "messenger/pkg/errors"
)

func TestAddToListKeepsInsertionOrder(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "carol", "bob")
	ctx := context.Background()

	for _, target := range []string{"carol", "bob"} {
		if err := e.lists.AddToList(ctx, user.ListContact, "alice", target); err != nil {
			t.Fatalf("add %s: %v", target, err)
		}
	}
	got, err := e.lists.ListMembers(ctx, user.ListContact, "alice")
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if !slices.Equal(got, []string{"carol", "bob"}) {
		t.Fatalf("unexpected contacts %v", got)
	}

	blocked, err := e.lists.ListMembers(ctx, user.ListBlock, "alice")
	if err != nil || len(blocked) != 0 {
		t.Fatalf("block list should be empty, got %v (err %v)", blocked, err)
	}
}

func TestAddToListErrors(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "bob")
	ctx := context.Background()

	expectErr(t, e.lists.AddToList(ctx, user.ListBlock, "alice", "ghost"), messenger_errors.ErrUnknownUser)
	expectErr(t, e.lists.AddToList(ctx, user.ListBlock, "ghost", "bob"), messenger_errors.ErrUnknownUser)
	expectErr(t, e.lists.AddToList(ctx, user.ListBlock, "alice", "alice"), messenger_errors.ErrInvalidInput)
	expectErr(t, e.lists.AddToList(ctx, user.ListKind("friends"), "alice", "bob"), messenger_errors.ErrInvalidInput)

	if err := e.lists.AddToList(ctx, user.ListBlock, "alice", "bob"); err != nil {
		t.Fatalf("add: %v", err)
	}
	expectErr(t, e.lists.AddToList(ctx, user.ListBlock, "alice", "bob"), messenger_errors.ErrDuplicateMembership)
}

func TestRemoveFromListIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "bob")
	ctx := context.Background()

	if err := e.lists.AddToList(ctx, user.ListContact, "alice", "bob"); err != nil {
		t.Fatalf("add: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := e.lists.RemoveFromList(ctx, user.ListContact, "alice", "bob"); err != nil {
			t.Fatalf("remove #%d: %v", i+1, err)
		}
		got, err := e.lists.ListMembers(ctx, user.ListContact, "alice")
		if err != nil || len(got) != 0 {
			t.Fatalf("after remove #%d expected empty list, got %v (err %v)", i+1, got, err)
		}
	}
}
