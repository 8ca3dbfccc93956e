package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key pattern: ratelimit:{login}:auth, expiring after the window.

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool          // Whether the action is allowed
	Remaining int           // Remaining actions in the window
	ResetIn   time.Duration // Time until the window resets
	Limit     int           // The limit for this action
}

// fixedWindow increments the counter only while under the limit and starts the
// expiry on the first hit of a window.
var fixedWindow = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		local n = redis.call('INCR', key)
		if n == 1 then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - n, ttl}
	end
	return {0, 0, ttl}
`)

// LoginLimiter caps authentication attempts per login within a fixed window.
type LoginLimiter struct {
	client *goredis.Client
	limit  int
	window time.Duration
}

func NewLoginLimiter(client *goredis.Client, limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{client: client, limit: limit, window: window}
}

func authKey(login string) string {
	return fmt.Sprintf("ratelimit:%s:auth", login)
}

// Allow consumes one attempt for login and reports whether it was under the limit.
func (l *LoginLimiter) Allow(ctx context.Context, login string) (bool, error) {
	res, err := l.Check(ctx, login)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

// Check is Allow with the full window state.
func (l *LoginLimiter) Check(ctx context.Context, login string) (*RateLimitResult, error) {
	result, err := fixedWindow.Run(ctx, l.client, []string{authKey(login)}, l.limit, int(l.window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}
	allowed, _ := resultSlice[0].(int64)
	remaining, _ := resultSlice[1].(int64)
	ttl, _ := resultSlice[2].(int64)

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     l.limit,
	}, nil
}

// Reset clears the attempt counter for login.
func (l *LoginLimiter) Reset(ctx context.Context, login string) error {
	return l.client.Del(ctx, authKey(login)).Err()
}
