package otp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window attempt counter. The window starts at the
// first attempt and the counter resets when the key expires.
type Limiter struct {
	client *redis.Client
	scope  string
	limit  int64
	window time.Duration
}

func NewLimiter(client *redis.Client, scope string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		scope:  scope,
		limit:  int64(limit),
		window: window,
	}
}

func (l *Limiter) key(id string) string {
	return "ratelimit:" + l.scope + ":" + strings.ToLower(strings.TrimSpace(id))
}

// incrScript counts an attempt and makes sure the window key carries a
// TTL, including keys left without one by an earlier failure.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 or redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Allow records an attempt for id and reports whether it is within the
// limit.
func (l *Limiter) Allow(ctx context.Context, id string) (bool, error) {
	n, err := incrScript.Run(ctx, l.client, []string{l.key(id)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}
	return n <= l.limit, nil
}

// Reset clears the counter, e.g. after a successful verification.
func (l *Limiter) Reset(ctx context.Context, id string) error {
	return l.client.Del(ctx, l.key(id)).Err()
}
