package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listVersionKeyPrefix = "list:%s:version"
	listKeyPrefix        = "list:%s:v%d:%s"
	AdminKeyPrefix       = "admin:%d"
)

const (
	AdminTTL = 2 * time.Minute
)

// ErrMiss is returned when a key is absent or the cache is disabled.
var ErrMiss = errors.New("cache miss")

func listVersionKey(entity string) string {
	return fmt.Sprintf(listVersionKeyPrefix, entity)
}

// AdminKey is the cache key for an admin's role snapshot.
func AdminKey(adminID uint) string {
	return fmt.Sprintf(AdminKeyPrefix, adminID)
}

// ListKey builds the key for one public list query of entity. Keys embed the
// entity's list version so InvalidateList drops every cached page at once.
func ListKey(ctx context.Context, entity, query string) (string, error) {
	if client == nil {
		return "", ErrMiss
	}
	version, err := client.Get(ctx, listVersionKey(entity)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf(listKeyPrefix, entity, version, hex.EncodeToString(sum[:8])), nil
}

// GetJSON decodes the cached value at key into dst.
func GetJSON(ctx context.Context, key string, dst any) error {
	if client == nil {
		return ErrMiss
	}
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON stores v at key with ttl. Errors are logged and swallowed.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if client == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := client.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateList bumps the list version for entity, orphaning every cached page.
func InvalidateList(ctx context.Context, entity string) {
	if client == nil {
		return
	}
	if err := client.Incr(ctx, listVersionKey(entity)).Err(); err != nil {
		slog.WarnContext(ctx, "list cache invalidation failed", "entity", entity, "error", err)
	}
}

func InvalidateAdmin(ctx context.Context, adminID uint) {
	Invalidate(ctx, AdminKey(adminID))
}
