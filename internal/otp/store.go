// Package otp issues and checks the six-digit email verification codes,
// and rate limits attempts against them. Both live in redis so that codes
// expire on their own.
package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"niveshx-api/internal/auth/credentials"
	"niveshx-api/internal/utils"

	"github.com/redis/go-redis/v9"
)

const CodeLength = 6

var (
	ErrCodeExpired  = errors.New("otp: no live code")
	ErrCodeMismatch = errors.New("otp: code mismatch")
)

type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		prefix: "otp:",
	}
}

func (s *Store) key(email string) string {
	return s.prefix + strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh code for email, replacing any live one.
func (s *Store) Issue(ctx context.Context, email string, ttl time.Duration) (string, error) {
	if email == "" {
		return "", errors.New("otp: missing email")
	}
	if ttl <= 0 {
		return "", errors.New("otp: ttl must be positive")
	}

	code, err := utils.RandomDigits(CodeLength)
	if err != nil {
		return "", err
	}
	hash, err := credentials.HashCode(code)
	if err != nil {
		return "", fmt.Errorf("otp: hash: %w", err)
	}

	if err := s.client.Set(ctx, s.key(email), hash, ttl).Err(); err != nil {
		return "", fmt.Errorf("otp: store: %w", err)
	}
	return code, nil
}

// consumeScript deletes the code only if it is still the one that was
// checked, so exactly one caller can spend it.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Verify checks code against the live code for email and spends it on a
// match. Concurrent callers presenting the same code see at most one
// success; the rest get ErrCodeExpired. A mismatch leaves the code live.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	key := s.key(email)

	hash, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("otp: load: %w", err)
	}

	if !credentials.VerifyCode(hash, code) {
		return ErrCodeMismatch
	}

	n, err := consumeScript.Run(ctx, s.client, []string{key}, hash).Int()
	if err != nil {
		return fmt.Errorf("otp: consume: %w", err)
	}
	if n == 0 {
		return ErrCodeExpired
	}
	return nil
}
