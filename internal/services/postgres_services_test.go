package services

import (
	"context"
	"database/sql"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"messenger/config"
	"messenger/internal/domain/chat"
	"messenger/internal/domain/user"
	"messenger/internal/repository"
	"messenger/pkg/database"
	messenger_errors "messenger/pkg/errors"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// pgSchema keeps these tests away from the repository package's tables when
// both run against the same TEST_POSTGRES_DSN.
const pgSchema = "messenger_services_test"

var (
	pgOnce sync.Once
	pgGorm *gorm.DB
	pgDB   *sql.DB
	pgErr  error
)

func withSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}

func openTestDB() (*gorm.DB, error) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	admin, err := database.Open(dsn, gormlogger.Silent)
	if err != nil {
		return nil, err
	}
	err = admin.Exec("CREATE SCHEMA IF NOT EXISTS " + pgSchema).Error
	_ = database.Close(admin)
	if err != nil {
		return nil, err
	}

	gdb, err := database.Open(withSearchPath(dsn, pgSchema), gormlogger.Silent)
	if err != nil {
		return nil, err
	}
	if err := database.RollbackMigrations(gdb, "../../migrations"); err != nil {
		return nil, err
	}
	if err := database.ApplyRawMigrations(gdb, "../../migrations"); err != nil {
		return nil, err
	}
	return gdb, nil
}

// newPostgresEnv runs the services over the sql-backed store, skipping when
// TEST_POSTGRES_DSN is unset. Tables are emptied after each test.
func newPostgresEnv(t *testing.T) (*testEnv, *sql.DB) {
	t.Helper()
	pgOnce.Do(func() {
		if os.Getenv("TEST_POSTGRES_DSN") == "" {
			return
		}
		pgGorm, pgErr = openTestDB()
		if pgErr == nil {
			pgDB, pgErr = database.SQLDB(pgGorm)
		}
	})
	if pgDB == nil && pgErr == nil {
		t.Skip("set TEST_POSTGRES_DSN to run service integration tests")
	}
	if pgErr != nil {
		t.Fatalf("failed to init test db: %v", pgErr)
	}
	t.Cleanup(func() {
		if err := database.TruncateAllTables(pgGorm); err != nil {
			t.Errorf("truncate: %v", err)
		}
	})

	store := repository.NewStore(pgDB)
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiryMin: 5}
	return &testEnv{
		auth:     NewAuthService(store, nil, cfg),
		lists:    NewListService(store),
		chats:    NewChatService(store),
		messages: NewMessageService(store, 2),
		accounts: NewAccountService(store),
	}, pgDB
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestPostgresRegisterRollsBack(t *testing.T) {
	e, db := newPostgresEnv(t)
	ctx := context.Background()
	e.register(t, "alice")

	if n := countRows(t, db, `SELECT COUNT(*) FROM user_list`); n != 2 {
		t.Fatalf("expected 2 lists after one registration, got %d", n)
	}

	_, err := e.auth.Register(ctx, RegisterInput{Login: "alice", Password: "other"})
	expectErr(t, err, messenger_errors.ErrDuplicateLogin)
	if n := countRows(t, db, `SELECT COUNT(*) FROM user_list`); n != 2 {
		t.Fatalf("failed registration left lists behind: %d", n)
	}

	store := repository.NewStore(db)
	broken := NewAuthService(failingUserStore{store}, nil, &config.Config{JWTSecret: "s"})
	_, err = broken.Register(ctx, RegisterInput{Login: "bob", Password: "secret"})
	if !messenger_errors.IsInfrastructure(err) {
		t.Fatalf("expected injected infrastructure error, got %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM user_list`); n != 2 {
		t.Fatalf("failed registration left lists behind: %d", n)
	}
	if exists, _ := store.Users().Exists(ctx, "bob"); exists {
		t.Fatalf("bob must not exist after failed registration")
	}
}

func TestPostgresDeleteChat(t *testing.T) {
	e, db := newPostgresEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "bob")

	c, _, err := e.chats.StartChat(ctx, StartChatInput{InitSender: "alice", Members: []string{"bob"}, Text: "hi"})
	if err != nil {
		t.Fatalf("start chat: %v", err)
	}
	if _, err := e.messages.PostMessage(ctx, c.ChatID, "bob", "hello"); err != nil {
		t.Fatalf("post: %v", err)
	}

	expectErr(t, e.chats.DeleteChat(ctx, "bob", c.ChatID), messenger_errors.ErrForbidden)
	if err := e.chats.DeleteChat(ctx, "alice", c.ChatID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectErr(t, e.chats.DeleteChat(ctx, "alice", c.ChatID), messenger_errors.ErrNotFound)

	if n := countRows(t, db, `SELECT COUNT(*) FROM message WHERE chat_id = $1`, c.ChatID); n != 0 {
		t.Fatalf("messages should be gone, %d left", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM chat_list WHERE chat_id = $1`, c.ChatID); n != 0 {
		t.Fatalf("memberships should be gone, %d left", n)
	}
}

func TestPostgresDeleteAccount(t *testing.T) {
	e, db := newPostgresEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "bob", "carol", "dave")

	shared := startChat(t, e, "bob", "alice", "carol")
	for _, text := range []string{"a1", "a2", "a3"} {
		if _, err := e.messages.PostMessage(ctx, shared, "alice", text); err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	if _, err := e.messages.PostMessage(ctx, shared, "carol", "c1"); err != nil {
		t.Fatalf("post: %v", err)
	}
	duo := startChat(t, e, "alice", "dave")
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

	if n := countRows(t, db, `SELECT COUNT(*) FROM usr WHERE login = $1`, "alice"); n != 0 {
		t.Fatalf("user row must be gone")
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM message WHERE sender_login = $1`, "alice"); n != 0 {
		t.Fatalf("alice's messages survived: %d", n)
	}
	if got := memberLogins(t, e, shared); !slices.Equal(got, []string{"bob", "carol"}) {
		t.Fatalf("shared chat should keep bob and carol, got %v", got)
	}

	_, err := e.chats.Get(ctx, duo)
	expectErr(t, err, messenger_errors.ErrNotFound)

	c, err := e.chats.Get(ctx, trio)
	if err != nil {
		t.Fatalf("trio should survive: %v", err)
	}
	if c.InitSender != "carol" || c.Type != chat.TypeGroup {
		t.Fatalf("trio should pass to carol, got %+v", c)
	}
	// the trio lost every message but had been completed
	removed, err := e.chats.PruneIncomplete(ctx, "carol")
	if err != nil || removed != 0 {
		t.Fatalf("expected nothing pruned, got %d %v", removed, err)
	}

	contacts, err := e.lists.ListMembers(ctx, user.ListContact, "bob")
	if err != nil || len(contacts) != 0 {
		t.Fatalf("alice must be gone from bob's contacts, got %v (err %v)", contacts, err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM user_list`); n != 6 {
		t.Fatalf("alice's lists should be dropped, %d lists left", n)
	}
	if _, err := e.auth.Register(ctx, RegisterInput{Login: "alice", Password: "again"}); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestPostgresPruneIncomplete(t *testing.T) {
	e, _ := newPostgresEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "bob")

	left := startChat(t, e, "alice", "bob")
	if err := e.chats.RemoveMember(ctx, "bob", left, "bob"); err != nil {
		t.Fatalf("bob leaves: %v", err)
	}
	lonely, err := e.chats.CreateChat(ctx, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := e.chats.PruneIncomplete(ctx, "alice")
	if err != nil || removed != 1 {
		t.Fatalf("expected one pruned chat, got %d %v", removed, err)
	}
	if c, err := e.chats.Get(ctx, left); err != nil || !c.Completed {
		t.Fatalf("completed chat must survive, got %+v %v", c, err)
	}
	_, err = e.chats.Get(ctx, lonely.ChatID)
	expectErr(t, err, messenger_errors.ErrNotFound)
}
