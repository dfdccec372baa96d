package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCheckRateLimit_Bypass(t *testing.T) {
	for _, env := range []string{"test", "development", "stress"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			allowed, err := CheckRateLimit(context.Background(), nil, "publication_submit", "user:1", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, allowed)
		})
	}
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	allowed, err := CheckRateLimit(context.Background(), nil, "publication_submit", "user:1", 1, time.Minute)
	assert.ErrorIs(t, err, ErrNoRateLimitStore)
	assert.False(t, allowed)
}

func TestCheckRateLimit_SlidingWindow(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb := newTestRedis(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	current := base
	nowFunc = func() time.Time { return current }
	t.Cleanup(func() { nowFunc = time.Now })

	for i := 0; i < 3; i++ {
		current = base.Add(time.Duration(i) * 10 * time.Minute)
		allowed, err := CheckRateLimit(ctx, rdb, "publication_submit", "user:7", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	current = base.Add(30 * time.Minute)
	allowed, err := CheckRateLimit(ctx, rdb, "publication_submit", "user:7", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)

	// The first request leaves the window after an hour, freeing one slot.
	current = base.Add(61 * time.Minute)
	allowed, err = CheckRateLimit(ctx, rdb, "publication_submit", "user:7", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = CheckRateLimit(ctx, rdb, "publication_submit", "user:7", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other callers have their own window.
	allowed, err = CheckRateLimit(ctx, rdb, "publication_submit", "user:8", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Returns 429 once the window is full", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		rdb := newTestRedis(t)

		app := fiber.New()
		app.Post("/publications", RateLimit(rdb, 1, time.Hour, "publication_submit"), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusCreated)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/publications", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/publications", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "3600", resp.Header.Get("Retry-After"))
		_ = resp.Body.Close()
	})

	t.Run("Admins are not limited", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		rdb := newTestRedis(t)

		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("adminID", uint(1))
			return c.Next()
		})
		app.Post("/publications", RateLimit(rdb, 1, time.Hour, "publication_submit"), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusCreated)
		})

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/publications", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusCreated, resp.StatusCode)
			_ = resp.Body.Close()
		}
	})

	t.Run("FailOpen with nil redis in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/test", RateLimit(nil, 1, time.Minute), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("FailClosed with nil redis in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/sensitive", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sensitive", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
