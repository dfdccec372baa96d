package otp

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, "website", time.Minute, 3), mr
}

func TestIssueAndVerify(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	code, err := s.Issue(ctx, "Owner@Example.com ")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, mr.Exists("otp:website:owner@example.com"))
	assert.Equal(t, time.Minute, mr.TTL("otp:website:owner@example.com"))

	stored := mr.HGet("otp:website:owner@example.com", "hash")
	assert.NotEqual(t, code, stored, "codes are stored hashed")

	require.NoError(t, s.Verify(ctx, "owner@example.com", code))

	err = s.Verify(ctx, "owner@example.com", code)
	assert.True(t, models.IsCode(err, models.CodeValidation), "codes are single use")
}

func TestVerify_WrongCodeThenLockout(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	code, err := s.Issue(ctx, "a@example.com")
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	err = s.Verify(ctx, "a@example.com", wrong)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verification code")
	_ = s.Verify(ctx, "a@example.com", wrong)

	err = s.Verify(ctx, "a@example.com", wrong)
	assert.Contains(t, err.Error(), "too many incorrect attempts")
	assert.False(t, mr.Exists(Key("website", "a@example.com")))

	err = s.Verify(ctx, "a@example.com", code)
	assert.Contains(t, err.Error(), "expired or not found")
}

func TestVerify_Expired(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	code, err := s.Issue(ctx, "a@example.com")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	err = s.Verify(ctx, "a@example.com", code)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestIssue_ReplacesPreviousCode(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Issue(ctx, "a@example.com")
	require.NoError(t, err)
	second, err := s.Issue(ctx, "a@example.com")
	require.NoError(t, err)

	if first != second {
		assert.Error(t, s.Verify(ctx, "a@example.com", first))
	}
	assert.NoError(t, s.Verify(ctx, "a@example.com", second))
}

func TestStore_RequiresRedis(t *testing.T) {
	s := NewStore(nil, "website", 0, 0)
	assert.Equal(t, DefaultTTL, s.TTL())
	_, err := s.Issue(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrNoStore)
	assert.ErrorIs(t, s.Verify(context.Background(), "a@example.com", "123456"), ErrNoStore)
}

func TestVerify_BlankCode(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Verify(context.Background(), "a@example.com", "  ")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
