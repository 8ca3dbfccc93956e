package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/message"
	"messenger/internal/domain/user"
	"messenger/pkg/database"
	messenger_errors "messenger/pkg/errors"

	"gorm.io/gorm/logger"
)

var (
	pgOnce sync.Once
	pgDB   *sql.DB
	pgErr  error
)

// testDB returns a migrated database from TEST_POSTGRES_DSN, skipping when unset.
func testDB(tb testing.TB) *sql.DB {
	tb.Helper()
	pgOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			return
		}
		gdb, err := database.Open(dsn, logger.Silent)
		if err != nil {
			pgErr = err
			return
		}
		if err := database.RollbackMigrations(gdb, "../../migrations"); err != nil {
			pgErr = err
			return
		}
		if err := database.ApplyRawMigrations(gdb, "../../migrations"); err != nil {
			pgErr = err
			return
		}
		pgDB, pgErr = database.SQLDB(gdb)
	})
	if pgDB == nil && pgErr == nil {
		tb.Skip("set TEST_POSTGRES_DSN to run repository integration tests")
	}
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

// testTx returns a Store bound to a transaction that is rolled back on cleanup.
func testTx(tb testing.TB) Store {
	tb.Helper()
	db := testDB(tb)
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		tb.Fatalf("begin tx: %v", err)
	}
	tb.Cleanup(func() { _ = tx.Rollback() })
	return NewStore(tx)
}

func TestPostgresStoreUserLifecycle(t *testing.T) {
	s := testTx(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	got, err := s.Users().GetByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.BlockList != alice.BlockList || got.ContactList != alice.ContactList {
		t.Fatalf("lists not persisted: %+v", got)
	}

	err = s.Users().Create(ctx, &user.User{Login: "alice", PasswordHash: "x", BlockList: alice.BlockList, ContactList: alice.ContactList})
	if !errors.Is(err, messenger_errors.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestPostgresStoreListMembership(t *testing.T) {
	s := testTx(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	if err := s.Lists().AddMember(ctx, alice.ContactList, "ghost"); !errors.Is(err, messenger_errors.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestPostgresStoreChatAndMessages(t *testing.T) {
	s := testTx(t)
	ctx := context.Background()
	seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	c := chat.Chat{Type: chat.TypePrivate, InitSender: "alice"}
	if err := s.Chats().Create(ctx, &c); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	for _, l := range []string{"alice", "bob"} {
		if err := s.Chats().AddMember(ctx, c.ChatID, l); err != nil {
			t.Fatalf("add %s: %v", l, err)
		}
	}
	if err := s.Chats().AddMember(ctx, c.ChatID, "bob"); !errors.Is(err, messenger_errors.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}
	if got, err := s.Chats().LockByID(ctx, c.ChatID); err != nil || got.Completed {
		t.Fatalf("lock chat: %+v %v", got, err)
	}
	if err := s.Chats().MarkCompleted(ctx, c.ChatID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if got, err := s.Chats().GetByID(ctx, c.ChatID); err != nil || !got.Completed {
		t.Fatalf("expected completed chat, got %+v %v", got, err)
	}
	if err := s.Chats().MarkCompleted(ctx, 999999); !errors.Is(err, messenger_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ts := time.Now().UTC().Truncate(time.Microsecond)
	for _, text := range []string{"one", "two", "three"} {
		m := message.Message{ChatID: c.ChatID, SenderLogin: "alice", Text: text, Timestamp: ts}
		if err := s.Messages().Create(ctx, &m); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	page, err := s.Messages().Page(ctx, c.ChatID, nil, 2)
	if err != nil || len(page) != 2 || page[0].Text != "one" {
		t.Fatalf("unexpected page %+v (err %v)", page, err)
	}
	cur := page[1].Cursor()
	rest, err := s.Messages().Page(ctx, c.ChatID, &cur, 2)
	if err != nil || len(rest) != 1 || rest[0].Text != "three" {
		t.Fatalf("unexpected rest %+v (err %v)", rest, err)
	}

	if err := s.Chats().Delete(ctx, c.ChatID); !messenger_errors.IsInfrastructure(err) {
		t.Fatalf("expected FK failure deleting referenced chat, got %v", err)
	}
}
