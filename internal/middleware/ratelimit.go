// Package middleware provides HTTP middleware shared by all routes.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"marketplace/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrNoRateLimitStore is returned when no Redis client was configured.
var ErrNoRateLimitStore = errors.New("redis client is nil")

var nowFunc = time.Now

// RateLimitKey is the sorted set holding request timestamps for one caller.
func RateLimitKey(resource, id string) string {
	return fmt.Sprintf("rl:%s:%s", resource, id)
}

func rateLimitBypassed() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	switch env {
	case "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit applies a sliding window of `window` length to the caller.
// Returns true if the request is allowed, false if `limit` requests already fall inside the window.
// Rate limiting is disabled when APP_ENV is "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	if rdb == nil {
		return false, ErrNoRateLimitStore
	}

	key := RateLimitKey(resource, id)
	now := nowFunc()
	windowStart := now.Add(-window)

	var card *redis.IntCmd
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10))
		card = pipe.ZCard(ctx, key)
		return nil
	}); err != nil {
		return false, err
	}

	if card.Val() >= int64(limit) {
		return false, nil
	}

	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
		pipe.Expire(ctx, key, window)
		return nil
	}); err != nil {
		return false, err
	}
	return true, nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per sliding `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
// It defaults to FailOpen policy.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
// Admin callers are never limited.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if aid, ok := c.Locals("adminID").(uint); ok && aid != 0 {
			return c.Next()
		}

		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			RateLimitRejections.WithLabelValues(resource).Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many submissions, please try again later"))
		}
		return c.Next()
	}
}
