package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"messenger/config"
	"messenger/internal/domain/user"
	"messenger/internal/repository"
	messenger_errors "messenger/pkg/errors"
)

type testEnv struct {
	store    *repository.MemoryStore
	auth     *AuthService
	lists    *ListService
	chats    *ChatService
	messages *MessageService
	accounts *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiryMin: 5}
	return &testEnv{
		store:    store,
		auth:     NewAuthService(store, nil, cfg),
		lists:    NewListService(store),
		chats:    NewChatService(store),
		messages: NewMessageService(store, 2),
		accounts: NewAccountService(store),
	}
}

func (e *testEnv) register(t *testing.T, logins ...string) {
	t.Helper()
	for _, l := range logins {
		if _, err := e.auth.Register(context.Background(), RegisterInput{Login: l, Password: "pw-" + l}); err != nil {
			t.Fatalf("register %s: %v", l, err)
		}
	}
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func memberLogins(t *testing.T, e *testEnv, chatID int64) []string {
	t.Helper()
	members, err := e.chats.Members(context.Background(), chatID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Member)
	}
	return out
}

// steppedClock returns the given instants in order, repeating the last one.
func steppedClock(instants ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := instants[min(i, len(instants)-1)]
		i++
		return t
	}
}

// failingUserStore makes every user insert fail like a dropped connection.
type failingUserStore struct {
	repository.Store
}

func (s failingUserStore) Users() repository.UserRepository {
	return failingUsers{s.Store.Users()}
}

func (s failingUserStore) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(failingUserStore{tx})
	})
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) Create(context.Context, *user.User) error {
	return fmt.Errorf("%w: injected failure", messenger_errors.ErrConnection)
}

type fakeLimiter struct {
	allow    bool
	err      error
	resetErr error
	resets   []string
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) { return f.allow, f.err }

func (f *fakeLimiter) Reset(_ context.Context, login string) error {
	f.resets = append(f.resets, login)
	return f.resetErr
}
