package redis

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testClientConfig(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("bad TEST_REDIS_ADDR %q: %v", addr, err)
	}
	return Config{Host: host, Port: port}
}

func TestLoginLimiterWindow(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, testClientConfig(t), 2*time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewLoginLimiter(client, 2, time.Minute)
	login := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = limiter.Reset(ctx, login) })

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, login)
		if err != nil || !ok {
			t.Fatalf("attempt %d should pass (ok=%v, err=%v)", i+1, ok, err)
		}
	}
	res, err := limiter.Check(ctx, login)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed || res.Remaining != 0 || res.ResetIn <= 0 {
		t.Fatalf("third attempt should be refused, got %+v", res)
	}

	if err := limiter.Reset(ctx, login); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if ok, _ := limiter.Allow(ctx, login); !ok {
		t.Fatalf("reset should reopen the window")
	}
}

func TestConnectFailsFast(t *testing.T) {
	_, err := Connect(context.Background(), Config{Host: "127.0.0.1", Port: "1"}, 200*time.Millisecond)
	if err == nil {
		t.Fatalf("expected an error connecting to a closed port")
	}
}

func TestAuthKey(t *testing.T) {
	if got := authKey("alice"); got != "ratelimit:alice:auth" {
		t.Fatalf("unexpected key %q", got)
	}
}
