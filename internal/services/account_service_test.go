package services

import (
	"context"
	"testing"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/user"
	messenger_errors "messenger/pkg/errors"
)

func TestDeleteAccountCascades(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "bob", "carol", "dave")
	ctx := context.Background()

	alice, err := e.store.Users().GetByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("get alice: %v", err)
	}

	// shared: started by bob, alice writes three messages there
	shared := startChat(t, e, "bob", "alice", "carol")
	for _, text := range []string{"a1", "a2", "a3"} {
		if _, err := e.messages.PostMessage(ctx, shared, "alice", text); err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	if _, err := e.messages.PostMessage(ctx, shared, "carol", "c1"); err != nil {
		t.Fatalf("post: %v", err)
	}

	// duo: started by alice with a single other member
	duo := startChat(t, e, "alice", "dave")
	// trio: started by alice, two others remain after she leaves
	trio := startChat(t, e, "alice", "carol", "dave")

	if err := e.lists.AddToList(ctx, user.ListContact, "bob", "alice"); err != nil {
		t.Fatalf("add contact: %v", err)
	}
	if err := e.lists.AddToList(ctx, user.ListBlock, "alice", "dave"); err != nil {
		t.Fatalf("add block: %v", err)
	}

	if err := e.accounts.DeleteAccount(ctx, "alice"); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	if exists, _ := e.store.Users().Exists(ctx, "alice"); exists {
		t.Fatalf("user row must be gone")
	}

	var texts []string
	for m, err := range e.messages.ListMessages(ctx, shared) {
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if m.SenderLogin == "alice" {
			t.Fatalf("alice's message %q survived", m.Text)
		}
		texts = append(texts, m.Text)
	}
	if len(texts) != 2 || texts[0] != "first" || texts[1] != "c1" {
		t.Fatalf("other senders' messages must be untouched, got %v", texts)
	}
	if got := memberLogins(t, e, shared); len(got) != 2 {
		t.Fatalf("shared chat should keep bob and carol, got %v", got)
	}

	_, err = e.chats.Get(ctx, duo)
	expectErr(t, err, messenger_errors.ErrNotFound)

	c, err := e.chats.Get(ctx, trio)
	if err != nil {
		t.Fatalf("trio should survive: %v", err)
	}
	if c.InitSender != "carol" {
		t.Fatalf("trio should pass to carol, got %s", c.InitSender)
	}

	contacts, err := e.lists.ListMembers(ctx, user.ListContact, "bob")
	if err != nil || len(contacts) != 0 {
		t.Fatalf("alice must be gone from bob's contacts, got %v (err %v)", contacts, err)
	}
	for _, id := range []int64{alice.BlockList, alice.ContactList} {
		members, _ := e.store.Lists().Members(ctx, id)
		if len(members) != 0 {
			t.Fatalf("list %d still has members %v", id, members)
		}
	}
	if _, err := e.auth.Register(ctx, RegisterInput{Login: "alice", Password: "again"}); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestPruneKeepsChatEmptiedByDeletedAccount(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice", "carol", "dave")
	ctx := context.Background()

	trio := startChat(t, e, "alice", "carol", "dave")
	if err := e.accounts.DeleteAccount(ctx, "alice"); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if n, _ := e.store.Messages().Count(ctx, trio); n != 0 {
		t.Fatalf("alice's messages should be gone, %d left", n)
	}

	removed, err := e.chats.PruneIncomplete(ctx, "carol")
	if err != nil || removed != 0 {
		t.Fatalf("expected nothing pruned, got %d %v", removed, err)
	}
	c, err := e.chats.Get(ctx, trio)
	if err != nil {
		t.Fatalf("group must survive carol's logout: %v", err)
	}
	if c.Type != chat.TypeGroup || c.InitSender != "carol" {
		t.Fatalf("unexpected chat %+v", c)
	}
}

func TestDeleteAccountUnknownUser(t *testing.T) {
	e := newTestEnv(t)
	expectErr(t, e.accounts.DeleteAccount(context.Background(), "ghost"), messenger_errors.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice")
	ctx := context.Background()

	if err := e.accounts.SetStatus(ctx, "alice", "busy"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	u, err := e.accounts.Profile(ctx, "alice")
	if err != nil || u.Status.String != "busy" {
		t.Fatalf("unexpected profile %+v (err %v)", u, err)
	}
	if err := e.accounts.SetStatus(ctx, "alice", ""); err != nil {
		t.Fatalf("clear status: %v", err)
	}
	if u, _ := e.accounts.Profile(ctx, "alice"); u.Status.Valid {
		t.Fatalf("status should be cleared")
	}
	expectErr(t, e.accounts.SetStatus(ctx, "ghost", "x"), messenger_errors.ErrNotFound)
}
