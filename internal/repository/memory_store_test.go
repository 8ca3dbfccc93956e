package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/message"
	"messenger/internal/domain/user"
	messenger_errors "messenger/pkg/errors"
)

func seedUser(t *testing.T, s Store, login string) user.User {
	t.Helper()
	ctx := context.Background()
	var u user.User
	err := s.WithTx(ctx, func(tx Store) error {
		block, err := tx.Lists().CreateList(ctx, user.ListBlock)
		if err != nil {
			return err
		}
		contact, err := tx.Lists().CreateList(ctx, user.ListContact)
		if err != nil {
			return err
		}
		u = user.User{Login: login, PasswordHash: "x", BlockList: block, ContactList: contact}
		return tx.Users().Create(ctx, &u)
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", login, err)
	}
	return u
}

func TestMemoryStoreRollsBackFailedTx(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Store) error {
		if _, err := tx.Lists().CreateList(ctx, user.ListBlock); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	id, err := s.Lists().CreateList(ctx, user.ListContact)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected rolled back sequence to hand out 1 again, got %d", id)
	}
}

func TestMemoryStoreNestedTxJoinsOuter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Store) error {
		if err := tx.WithTx(ctx, func(inner Store) error {
			_, err := inner.Lists().CreateList(ctx, user.ListBlock)
			return err
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := s.Lists().DeleteList(ctx, 1); err != nil {
		t.Fatalf("delete of absent list should be a no-op: %v", err)
	}
	if id, _ := s.Lists().CreateList(ctx, user.ListBlock); id != 1 {
		t.Fatalf("inner work should have been rolled back with the outer tx, got id %d", id)
	}
}

func TestMemoryStoreDuplicateLogin(t *testing.T) {
	s := NewMemoryStore()
	seedUser(t, s, "alice")

	ctx := context.Background()
	err := s.WithTx(ctx, func(tx Store) error {
		b, _ := tx.Lists().CreateList(ctx, user.ListBlock)
		c, _ := tx.Lists().CreateList(ctx, user.ListContact)
		return tx.Users().Create(ctx, &user.User{Login: "alice", BlockList: b, ContactList: c})
	})
	if !errors.Is(err, messenger_errors.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestMemoryStoreEnforcesForeignKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	if err := s.Lists().AddMember(ctx, alice.ContactList, "ghost"); !errors.Is(err, messenger_errors.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
	if err := s.Lists().AddMember(ctx, alice.ContactList, "bob"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.Lists().AddMember(ctx, alice.ContactList, "bob"); !errors.Is(err, messenger_errors.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}

	if err := s.Users().Delete(ctx, "bob"); !errors.Is(err, messenger_errors.ErrStatement) {
		t.Fatalf("deleting a referenced user should fail like a FK violation, got %v", err)
	}

	c := chat.Chat{Type: chat.TypePrivate, InitSender: "alice"}
	if err := s.Chats().Create(ctx, &c); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := s.Chats().AddMember(ctx, c.ChatID, "alice"); err != nil {
		t.Fatalf("add chat member: %v", err)
	}
	if err := s.Chats().Delete(ctx, c.ChatID); !errors.Is(err, messenger_errors.ErrStatement) {
		t.Fatalf("deleting a chat with members should fail, got %v", err)
	}
}

func TestMemoryStoreMembersKeepJoinOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, l := range []string{"alice", "carol", "bob"} {
		seedUser(t, s, l)
	}
	c := chat.Chat{Type: chat.TypePrivate, InitSender: "alice"}
	if err := s.Chats().Create(ctx, &c); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	for _, l := range []string{"alice", "carol", "bob"} {
		if err := s.Chats().AddMember(ctx, c.ChatID, l); err != nil {
			t.Fatalf("add %s: %v", l, err)
		}
	}
	members, err := s.Chats().Members(ctx, c.ChatID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	got := []string{members[0].Member, members[1].Member, members[2].Member}
	want := []string{"alice", "carol", "bob"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected join order %v, got %v", want, got)
		}
	}
	if !members[0].JoinedAt.Before(members[1].JoinedAt) {
		t.Fatalf("joined_at should be strictly increasing")
	}
}

func TestMemoryStoreMessagePaging(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, s, "alice")
	c := chat.Chat{Type: chat.TypePrivate, InitSender: "alice"}
	if err := s.Chats().Create(ctx, &c); err != nil {
		t.Fatalf("create chat: %v", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// two messages share a timestamp; msg_id breaks the tie
	stamps := []time.Time{base, base.Add(time.Second), base.Add(time.Second), base.Add(2 * time.Second), base.Add(3 * time.Second)}
	for i, ts := range stamps {
		m := message.Message{ChatID: c.ChatID, SenderLogin: "alice", Text: string(rune('a' + i)), Timestamp: ts}
		if err := s.Messages().Create(ctx, &m); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	first, err := s.Messages().Page(ctx, c.ChatID, nil, 2)
	if err != nil || len(first) != 2 || first[0].Text != "a" || first[1].Text != "b" {
		t.Fatalf("unexpected first page %+v (err %v)", first, err)
	}
	cur := first[1].Cursor()
	second, err := s.Messages().Page(ctx, c.ChatID, &cur, 2)
	if err != nil || len(second) != 2 || second[0].Text != "c" || second[1].Text != "d" {
		t.Fatalf("unexpected second page %+v (err %v)", second, err)
	}

	last, err := s.Messages().PageBefore(ctx, c.ChatID, nil, 2)
	if err != nil || len(last) != 2 || last[0].Text != "d" || last[1].Text != "e" {
		t.Fatalf("unexpected newest page %+v (err %v)", last, err)
	}
	cur = last[0].Cursor()
	earlier, err := s.Messages().PageBefore(ctx, c.ChatID, &cur, 10)
	if err != nil || len(earlier) != 3 || earlier[0].Text != "a" || earlier[2].Text != "c" {
		t.Fatalf("unexpected earlier page %+v (err %v)", earlier, err)
	}

	latest, err := s.Messages().Latest(ctx, c.ChatID)
	if err != nil || latest.Text != "e" {
		t.Fatalf("unexpected latest %+v (err %v)", latest, err)
	}
}

func TestMemoryStoreMessageLookupIsScopedToChat(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, s, "alice")
	a := chat.Chat{Type: chat.TypePrivate, InitSender: "alice"}
	b := chat.Chat{Type: chat.TypePrivate, InitSender: "alice"}
	_ = s.Chats().Create(ctx, &a)
	_ = s.Chats().Create(ctx, &b)

	m := message.Message{ChatID: a.ChatID, SenderLogin: "alice", Text: "hi", Timestamp: time.Now()}
	if err := s.Messages().Create(ctx, &m); err != nil {
		t.Fatalf("create message: %v", err)
	}
	if _, err := s.Messages().GetByID(ctx, b.ChatID, m.MsgID); !errors.Is(err, messenger_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for message in another chat, got %v", err)
	}
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Users().Exists(ctx, "alice"); !messenger_errors.IsInfrastructure(err) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}
