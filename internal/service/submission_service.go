// Package service holds the application logic between HTTP handlers and the moderation engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketplace/internal/cache"
	"marketplace/internal/captcha"
	"marketplace/internal/models"
	"marketplace/internal/moderation"
)

// CreateInput carries the request context of a create call that is not part of the payload.
type CreateInput struct {
	Status       models.Status
	CaptchaToken string
	OTPCode      string
	RemoteIP     string
}

// VerifyFunc runs entity-specific checks on a user submission before it is stored.
type VerifyFunc[T any] func(ctx context.Context, item *T, in CreateInput) error

// UpdateGuardFunc inspects a payload change. before is the stored row, after the
// row with the caller's fields applied; the guard may reject or repair after.
type UpdateGuardFunc[T any] func(actor moderation.Actor, before, after *T) error

// SubmissionService wraps a moderation engine with the create-path gates and
// the public list cache.
type SubmissionService[T any, P moderation.Entity[T]] struct {
	engine   *moderation.Engine[T, P]
	captcha  *captcha.Gate
	verify   VerifyFunc[T]
	guard    UpdateGuardFunc[T]
	cacheTTL time.Duration
}

// SubmissionOption configures a SubmissionService.
type SubmissionOption[T any, P moderation.Entity[T]] func(*SubmissionService[T, P])

// WithCaptcha gates user creates behind captcha when the entity requires it.
func WithCaptcha[T any, P moderation.Entity[T]](gate *captcha.Gate) SubmissionOption[T, P] {
	return func(s *SubmissionService[T, P]) { s.captcha = gate }
}

// WithVerify adds an entity-specific check to user creates.
func WithVerify[T any, P moderation.Entity[T]](fn VerifyFunc[T]) SubmissionOption[T, P] {
	return func(s *SubmissionService[T, P]) { s.verify = fn }
}

// WithUpdateGuard checks every payload update.
func WithUpdateGuard[T any, P moderation.Entity[T]](fn UpdateGuardFunc[T]) SubmissionOption[T, P] {
	return func(s *SubmissionService[T, P]) { s.guard = fn }
}

// WithListCache caches public listings in Redis for ttl.
func WithListCache[T any, P moderation.Entity[T]](ttl time.Duration) SubmissionOption[T, P] {
	return func(s *SubmissionService[T, P]) { s.cacheTTL = ttl }
}

// NewSubmissionService returns a service over engine.
func NewSubmissionService[T any, P moderation.Entity[T]](engine *moderation.Engine[T, P], opts ...SubmissionOption[T, P]) *SubmissionService[T, P] {
	s := &SubmissionService[T, P]{engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the entity policy.
func (s *SubmissionService[T, P]) Policy() moderation.Policy { return s.engine.Policy() }

func (s *SubmissionService[T, P]) Get(ctx context.Context, actor moderation.Actor, id uint) (*T, error) {
	return s.engine.Get(ctx, actor, id)
}

// List returns the caller's view. Non-admin listings are identical for every
// caller and are served from the cache when it is enabled.
func (s *SubmissionService[T, P]) List(ctx context.Context, actor moderation.Actor, q moderation.ListQuery) (moderation.Page[T], error) {
	if actor.IsAdmin() || s.cacheTTL <= 0 {
		return s.engine.List(ctx, actor, q)
	}

	policy := s.engine.Policy()
	if q.Status != "" && !policy.Allows(q.Status) {
		return moderation.Page[T]{}, models.NewValidationError(fmt.Sprintf("invalid status %q", q.Status))
	}
	plural := policy.Plural
	key, err := cache.ListKey(ctx, plural, fmt.Sprintf("limit=%d&offset=%d&search=%s&status=%s", q.Limit, q.Offset, q.Search, q.Status))
	if err == nil {
		var page moderation.Page[T]
		if err := cache.GetJSON(ctx, key, &page); err == nil {
			return page, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			slog.WarnContext(ctx, "list cache read failed", "entity", plural, "error", err)
		}
	}

	page, err := s.engine.List(ctx, actor, q)
	if err != nil {
		return page, err
	}
	if key != "" {
		cache.SetJSON(ctx, key, page, s.cacheTTL)
	}
	return page, nil
}

func (s *SubmissionService[T, P]) ListMine(ctx context.Context, actor moderation.Actor, q moderation.ListQuery) (moderation.Page[T], error) {
	return s.engine.ListMine(ctx, actor, q)
}

// Create stores a submission. User submissions pass the captcha and entity
// checks first; admins skip both.
func (s *SubmissionService[T, P]) Create(ctx context.Context, actor moderation.Actor, item *T, in CreateInput) (*T, error) {
	if !actor.IsAuthenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if !actor.IsAdmin() {
		if err := P(item).Validate(); err != nil {
			return nil, err
		}
		if s.engine.Policy().CaptchaOnCreate {
			if err := s.captcha.Check(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
				return nil, err
			}
		}
		if s.verify != nil {
			if err := s.verify(ctx, item, in); err != nil {
				return nil, err
			}
		}
	}
	return s.engine.Create(ctx, actor, item, in.Status)
}

func (s *SubmissionService[T, P]) Update(ctx context.Context, actor moderation.Actor, id uint, apply func(*T) error) (*T, error) {
	if s.guard == nil {
		return s.engine.Update(ctx, actor, id, apply)
	}
	return s.engine.Update(ctx, actor, id, func(item *T) error {
		before := *item
		if err := apply(item); err != nil {
			return err
		}
		return s.guard(actor, &before, item)
	})
}

func (s *SubmissionService[T, P]) Submit(ctx context.Context, actor moderation.Actor, id uint) (*T, error) {
	return s.engine.Submit(ctx, actor, id)
}

func (s *SubmissionService[T, P]) Delete(ctx context.Context, actor moderation.Actor, id uint) error {
	return s.engine.SoftDelete(ctx, actor, id)
}

func (s *SubmissionService[T, P]) Restore(ctx context.Context, actor moderation.Actor, id uint) (*T, error) {
	return s.engine.Restore(ctx, actor, id)
}

func (s *SubmissionService[T, P]) HardDelete(ctx context.Context, actor moderation.Actor, id uint) error {
	return s.engine.HardDelete(ctx, actor, id)
}

func (s *SubmissionService[T, P]) Approve(ctx context.Context, actor moderation.Actor, id uint, comments *string) (*T, error) {
	return s.engine.Approve(ctx, actor, id, comments)
}

func (s *SubmissionService[T, P]) Reject(ctx context.Context, actor moderation.Actor, id uint, reason string, comments *string) (*T, error) {
	return s.engine.Reject(ctx, actor, id, reason, comments)
}

func (s *SubmissionService[T, P]) BulkApprove(ctx context.Context, actor moderation.Actor, ids []uint, comments *string) (moderation.BulkResult, error) {
	return s.engine.BulkApprove(ctx, actor, ids, comments)
}

func (s *SubmissionService[T, P]) BulkReject(ctx context.Context, actor moderation.Actor, ids []uint, reason string, comments *string) (moderation.BulkResult, error) {
	return s.engine.BulkReject(ctx, actor, ids, reason, comments)
}
