package middleware

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	AdminIDKey   contextKey = "admin_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if aid, ok := ctx.Value(AdminIDKey).(uint); ok {
		r.AddAttrs(slog.Any("admin_id", aid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}

	var handler slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(&ctxHandler{handler})
	slog.SetDefault(Logger)
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// WithIdentity stores the caller ids on ctx so the logger can pick them up.
func WithIdentity(ctx context.Context, userID, adminID uint) context.Context {
	if userID != 0 {
		ctx = context.WithValue(ctx, UserIDKey, userID)
	}
	if adminID != 0 {
		ctx = context.WithValue(ctx, AdminIDKey, adminID)
	}
	return ctx
}

// ContextMiddleware injects request ID, caller ids and trace ID from Fiber locals into the request context.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, RequestIDKey, rid)
		}

		uid, _ := c.Locals("userID").(uint)
		aid, _ := c.Locals("adminID").(uint)
		ctx = WithIdentity(ctx, uid, aid)

		if tid, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, TraceIDKey, tid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// quietPaths are polled constantly and only logged when they fail.
var quietPaths = map[string]bool{
	"/health":       true,
	"/health/live":  true,
	"/health/ready": true,
	"/metrics":      true,
}

// StructuredLogger logs one line per request. 4xx responses log at warn and
// 5xx or handler errors at error.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if quietPaths[c.Path()] && err == nil && status < fiber.StatusInternalServerError {
			return nil
		}

		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		ctx := c.UserContext()
		switch {
		case err != nil:
			fields = append(fields, slog.String("error", err.Error()))
			Logger.ErrorContext(ctx, "request failed", fields...)
		case status >= fiber.StatusInternalServerError:
			Logger.ErrorContext(ctx, "request failed", fields...)
		case status >= fiber.StatusBadRequest:
			Logger.WarnContext(ctx, "request rejected", fields...)
		default:
			Logger.InfoContext(ctx, "request processed", fields...)
		}
		return err
	}
}
