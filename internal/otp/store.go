// Package otp keeps short-lived one-time verification codes in Redis, one per recipient.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"marketplace/internal/models"

	"github.com/redis/go-redis/v9"
)

// Defaults applied when the caller passes zero values.
const (
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 5
	codeDigits         = 6
)

// ErrNoStore is returned when Redis is not configured.
var ErrNoStore = errors.New("otp store requires redis")

// verifyScript checks a code and consumes the entry atomically.
// Returns 1 on match, 0 on mismatch, -1 when no code exists, -2 when attempts ran out.
var verifyScript = redis.NewScript(`
local stored = redis.call('HGET', KEYS[1], 'hash')
if not stored then
	return -1
end
local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
if stored == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
if attempts >= tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1])
	return -2
end
return 0
`)

// Store issues and verifies codes for one scope, e.g. "website".
type Store struct {
	rdb         *redis.Client
	scope       string
	ttl         time.Duration
	maxAttempts int
}

// NewStore returns a store for scope.
func NewStore(rdb *redis.Client, scope string, ttl time.Duration, maxAttempts int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Store{rdb: rdb, scope: scope, ttl: ttl, maxAttempts: maxAttempts}
}

// Key returns the Redis key for a recipient.
func Key(scope, recipient string) string {
	return fmt.Sprintf("otp:%s:%s", scope, strings.ToLower(strings.TrimSpace(recipient)))
}

// TTL is how long an issued code stays valid.
func (s *Store) TTL() time.Duration { return s.ttl }

// Issue creates a fresh code for recipient, replacing any previous one.
func (s *Store) Issue(ctx context.Context, recipient string) (string, error) {
	if s.rdb == nil {
		return "", ErrNoStore
	}
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	key := Key(s.scope, recipient)
	if _, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "hash", hashCode(code), "attempts", 0)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	}); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify consumes the recipient's code. A code can be used once; after
// maxAttempts wrong guesses it is discarded.
func (s *Store) Verify(ctx context.Context, recipient, code string) error {
	if s.rdb == nil {
		return ErrNoStore
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return models.NewValidationError("verification code is required")
	}

	res, err := verifyScript.Run(ctx, s.rdb, []string{Key(s.scope, recipient)}, hashCode(code), s.maxAttempts).Int()
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	switch res {
	case 1:
		return nil
	case -1:
		return models.NewValidationError("verification code expired or not found")
	case -2:
		return models.NewValidationError("too many incorrect attempts, request a new code")
	default:
		return models.NewValidationError("invalid verification code")
	}
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
