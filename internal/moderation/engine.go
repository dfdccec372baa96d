package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/authz"
	"marketplace/internal/cache"
	"marketplace/internal/models"
	"marketplace/internal/notifications"
	"marketplace/internal/observability"
	"marketplace/internal/repository"
	"marketplace/internal/validation"
)

// Entity constrains P to the pointer type of a moderated model T.
type Entity[T any] interface {
	*T
	models.Moderatable
}

// Dispatcher receives committed decisions.
type Dispatcher interface {
	Dispatch(ctx context.Context, d notifications.Decision)
}

// Engine runs the workflow for one entity type.
type Engine[T any, P Entity[T]] struct {
	policy     Policy
	repo       repository.ModeratedRepository[T]
	dispatcher Dispatcher
	now        func() time.Time
}

// NewEngine returns an engine for policy backed by repo. dispatcher may be nil.
func NewEngine[T any, P Entity[T]](policy Policy, repo repository.ModeratedRepository[T], dispatcher Dispatcher) *Engine[T, P] {
	return &Engine[T, P]{
		policy:     policy,
		repo:       repo,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Policy returns the entity policy.
func (e *Engine[T, P]) Policy() Policy { return e.policy }

// Get returns one row if actor may see it.
func (e *Engine[T, P]) Get(ctx context.Context, actor Actor, id uint) (*T, error) {
	item, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, P(item).ModerationState(), e.policy.Label, id); err != nil {
		return nil, err
	}
	return item, nil
}

// List returns the rows visible to actor.
func (e *Engine[T, P]) List(ctx context.Context, actor Actor, q ListQuery) (Page[T], error) {
	if q.Status != "" && !e.policy.Allows(q.Status) {
		return Page[T]{}, models.NewValidationError(fmt.Sprintf("invalid status %q", q.Status))
	}
	filter, deleted := listFilter(actor, q, e.policy)

	var (
		items []T
		total int64
		err   error
	)
	if deleted {
		items, total, err = e.repo.ListDeleted(ctx, filter)
	} else {
		items, total, err = e.repo.List(ctx, filter)
	}
	if err != nil {
		return Page[T]{}, err
	}
	return newPage(items, total, q), nil
}

// ListMine returns the caller's own active submissions in any status.
func (e *Engine[T, P]) ListMine(ctx context.Context, actor Actor, q ListQuery) (Page[T], error) {
	if actor.UserID == 0 {
		return Page[T]{}, models.NewUnauthorizedError("authentication required")
	}
	userID := actor.UserID
	filter := repository.ListFilter{
		SubmittedBy:   &userID,
		Search:        q.Search,
		SearchColumns: e.policy.SearchColumns,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	if q.Status != "" {
		filter.Statuses = []models.Status{q.Status}
	}
	items, total, err := e.repo.List(ctx, filter)
	if err != nil {
		return Page[T]{}, err
	}
	return newPage(items, total, q), nil
}

// Create stores a new submission. Users always start in the entity's
// restrictive status; admins get the requested status or the entity default.
func (e *Engine[T, P]) Create(ctx context.Context, actor Actor, item *T, requested models.Status) (*T, error) {
	span, ctx := observability.ModerationSpan(ctx, e.policy.Entity, "create", 0)
	defer span.End()
	span.AddAttributes(observability.AttrActor.String(actor.kind()))

	if !actor.IsAuthenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	p := P(item)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.ClearIdentity()
	state := p.ModerationState()
	*state = models.Moderation{IsActive: true}

	if actor.IsAdmin() {
		status := e.policy.AdminDefault
		if requested != "" {
			if !e.policy.Allows(requested) {
				return nil, models.NewValidationError(fmt.Sprintf("invalid status %q", requested))
			}
			if requested == models.StatusRejected {
				return nil, models.NewValidationError("create the submission first, then reject it with a reason")
			}
			status = requested
		}
		adminID := actor.AdminID
		state.Status = status
		state.SubmittedByAdmin = &adminID
		if status == models.StatusApproved {
			now := e.now()
			state.ApprovedAt = &now
			state.ApprovedBy = &adminID
		}
	} else {
		userID := actor.UserID
		state.Status = e.policy.UserStatus
		state.SubmittedBy = &userID
	}

	if err := e.repo.Create(ctx, item); err != nil {
		span.SetError(err)
		return nil, err
	}
	e.changed(ctx)
	return item, nil
}

// Update applies a payload change. apply receives the stored row and overlays
// the caller's fields; moderation fields it touches are discarded.
func (e *Engine[T, P]) Update(ctx context.Context, actor Actor, id uint, apply func(*T) error) (*T, error) {
	var out *T
	err := e.repo.Transaction(ctx, func(tx repository.ModeratedRepository[T]) error {
		item, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		p := P(item)
		snapshot := *p.ModerationState()
		if err := canMutate(actor, &snapshot, e.policy.Label, id); err != nil {
			return err
		}
		if err := apply(item); err != nil {
			if models.ErrorCode(err) != "" {
				return err
			}
			return models.NewValidationError("invalid request body")
		}
		*p.ModerationState() = snapshot
		if err := p.Validate(); err != nil {
			return err
		}
		if err := tx.UpdatePayload(ctx, id, item); err != nil {
			return err
		}
		out, err = tx.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.changed(ctx)
	return out, nil
}

// Submit moves the owner's draft into the review queue.
func (e *Engine[T, P]) Submit(ctx context.Context, actor Actor, id uint) (*T, error) {
	if !e.policy.HasDraft() {
		return nil, models.NewValidationError(fmt.Sprintf("%s submissions have no draft stage", e.policy.Label))
	}
	return e.transition(ctx, "submit", id, func(m *models.Moderation) (map[string]any, error) {
		if err := canMutate(actor, m, e.policy.Label, id); err != nil {
			return nil, err
		}
		if m.Status != models.StatusDraft {
			return nil, models.NewConflictError(fmt.Sprintf("%s is already %s", e.policy.Label, m.Status))
		}
		return map[string]any{"status": models.StatusPending}, nil
	})
}

// Approve publishes a submission and notifies the submitter.
func (e *Engine[T, P]) Approve(ctx context.Context, actor Actor, id uint, comments *string) (*T, error) {
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("admin identity required")
	}
	return e.approve(ctx, actor, id, validation.SanitizeOptional(comments))
}

func (e *Engine[T, P]) approve(ctx context.Context, actor Actor, id uint, comments *string) (*T, error) {
	item, err := e.transition(ctx, "approve", id, func(m *models.Moderation) (map[string]any, error) {
		if m.Status == models.StatusApproved {
			return nil, models.NewConflictError(fmt.Sprintf("%s is already approved", e.policy.Label))
		}
		updates := map[string]any{
			"status":           models.StatusApproved,
			"approved_at":      e.now(),
			"approved_by":      actor.AdminID,
			"rejected_at":      nil,
			"rejected_by":      nil,
			"rejection_reason": nil,
		}
		if comments != nil {
			updates["admin_comments"] = *comments
		}
		return updates, nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, P(item), true, "", comments)
	return item, nil
}

// Reject denies a submission with a reason and notifies the submitter.
func (e *Engine[T, P]) Reject(ctx context.Context, actor Actor, id uint, reason string, comments *string) (*T, error) {
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("admin identity required")
	}
	reason = validation.SanitizeText(reason)
	if reason == "" {
		return nil, models.NewValidationError("rejection_reason is required")
	}
	return e.reject(ctx, actor, id, reason, validation.SanitizeOptional(comments))
}

func (e *Engine[T, P]) reject(ctx context.Context, actor Actor, id uint, reason string, comments *string) (*T, error) {
	item, err := e.transition(ctx, "reject", id, func(m *models.Moderation) (map[string]any, error) {
		if m.Status == models.StatusRejected {
			return nil, models.NewConflictError(fmt.Sprintf("%s is already rejected", e.policy.Label))
		}
		updates := map[string]any{
			"status":           models.StatusRejected,
			"rejected_at":      e.now(),
			"rejected_by":      actor.AdminID,
			"rejection_reason": reason,
			"approved_at":      nil,
			"approved_by":      nil,
		}
		if comments != nil {
			updates["admin_comments"] = *comments
		}
		return updates, nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, P(item), false, reason, comments)
	return item, nil
}

// BulkApprove approves each id independently after checking the entity's role gate.
func (e *Engine[T, P]) BulkApprove(ctx context.Context, actor Actor, ids []uint, comments *string) (BulkResult, error) {
	if err := e.bulkGate(actor, ids); err != nil {
		return BulkResult{}, err
	}
	comments = validation.SanitizeOptional(comments)
	observability.BulkBatchSize.WithLabelValues(e.policy.Entity, "approve").Observe(float64(len(ids)))
	span, ctx := observability.ModerationSpan(ctx, e.policy.Entity, "bulk_approve", 0)
	defer span.End()
	span.AddAttributes(observability.AttrBatch.Int(len(ids)))
	return RunBulk(ctx, ids, func(ctx context.Context, id uint) error {
		_, err := e.approve(ctx, actor, id, comments)
		return err
	}), nil
}

// BulkReject rejects each id independently after checking the role gate and reason.
func (e *Engine[T, P]) BulkReject(ctx context.Context, actor Actor, ids []uint, reason string, comments *string) (BulkResult, error) {
	if err := e.bulkGate(actor, ids); err != nil {
		return BulkResult{}, err
	}
	reason = validation.SanitizeText(reason)
	if reason == "" {
		return BulkResult{}, models.NewValidationError("rejection_reason is required")
	}
	comments = validation.SanitizeOptional(comments)
	observability.BulkBatchSize.WithLabelValues(e.policy.Entity, "reject").Observe(float64(len(ids)))
	span, ctx := observability.ModerationSpan(ctx, e.policy.Entity, "bulk_reject", 0)
	defer span.End()
	span.AddAttributes(observability.AttrBatch.Int(len(ids)))
	return RunBulk(ctx, ids, func(ctx context.Context, id uint) error {
		_, err := e.reject(ctx, actor, id, reason, comments)
		return err
	}), nil
}

func (e *Engine[T, P]) bulkGate(actor Actor, ids []uint) error {
	if !actor.IsAdmin() {
		return models.NewForbiddenError("admin identity required")
	}
	if !authz.Allows(actor.AdminRole, e.policy.BulkMinLevel) {
		return models.NewForbiddenError(fmt.Sprintf("bulk %s moderation requires %s role or higher", e.policy.Entity, e.policy.BulkMinLevel))
	}
	return validateBulkIDs(ids)
}

// SoftDelete hides a row. Owners may only delete before review.
func (e *Engine[T, P]) SoftDelete(ctx context.Context, actor Actor, id uint) error {
	err := e.repo.Transaction(ctx, func(tx repository.ModeratedRepository[T]) error {
		item, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := canMutate(actor, P(item).ModerationState(), e.policy.Label, id); err != nil {
			return err
		}
		return tx.SetActive(ctx, id, false)
	})
	e.record("delete", err)
	if err != nil {
		return err
	}
	e.changed(ctx)
	return nil
}

// Restore reactivates a soft-deleted row.
func (e *Engine[T, P]) Restore(ctx context.Context, actor Actor, id uint) (*T, error) {
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("admin identity required")
	}
	var out *T
	err := e.repo.Transaction(ctx, func(tx repository.ModeratedRepository[T]) error {
		item, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if P(item).ModerationState().IsActive {
			return models.NewConflictError(fmt.Sprintf("%s is not deleted", e.policy.Label))
		}
		if err := tx.SetActive(ctx, id, true); err != nil {
			return err
		}
		out, err = tx.GetByID(ctx, id)
		return err
	})
	e.record("restore", err)
	if err != nil {
		return nil, err
	}
	e.changed(ctx)
	return out, nil
}

// HardDelete removes a row permanently where the entity allows it.
func (e *Engine[T, P]) HardDelete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return models.NewForbiddenError("admin identity required")
	}
	if !e.policy.AllowHardDelete {
		return models.NewForbiddenError(fmt.Sprintf("%s records cannot be permanently deleted", e.policy.Label))
	}
	err := e.repo.HardDelete(ctx, id)
	e.record("hard_delete", err)
	if err != nil {
		return err
	}
	e.changed(ctx)
	return nil
}

// transition loads the row, asks decide for the updates and applies them with a
// compare-and-set on the observed status, all in one transaction.
func (e *Engine[T, P]) transition(ctx context.Context, action string, id uint, decide func(m *models.Moderation) (map[string]any, error)) (*T, error) {
	span, ctx := observability.ModerationSpan(ctx, e.policy.Entity, action, id)
	defer span.End()

	var out *T
	err := e.repo.Transaction(ctx, func(tx repository.ModeratedRepository[T]) error {
		item, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		state := P(item).ModerationState()
		updates, err := decide(state)
		if err != nil {
			return err
		}
		ok, err := tx.Transition(ctx, id, state.Status, updates)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewConflictError(fmt.Sprintf("%s was modified concurrently, reload and retry", e.policy.Label))
		}
		out, err = tx.GetByID(ctx, id)
		return err
	})
	e.record(action, err)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	e.changed(ctx)
	return out, nil
}

func (e *Engine[T, P]) notify(ctx context.Context, p P, approved bool, reason string, comments *string) {
	if e.dispatcher == nil {
		return
	}
	state := p.ModerationState()
	if state.SubmittedBy == nil {
		return
	}
	d := notifications.Decision{
		Entity:      e.policy.Entity,
		EntityLabel: e.policy.Label,
		ItemID:      p.GetID(),
		ItemName:    p.DisplayName(),
		SubmitterID: *state.SubmittedBy,
		Approved:    approved,
		Reason:      reason,
	}
	if comments != nil {
		d.Comments = *comments
	}
	e.dispatcher.Dispatch(ctx, d)
}

func (e *Engine[T, P]) record(action string, err error) {
	outcome := observability.OutcomeSuccess
	switch {
	case err == nil:
	case models.IsCode(err, models.CodeConflict):
		outcome = observability.OutcomeConflict
	case models.IsCode(err, models.CodeInternal):
		outcome = observability.OutcomeError
	default:
		outcome = observability.OutcomeRejected
	}
	observability.ModerationTransitions.WithLabelValues(e.policy.Entity, action, outcome).Inc()
}

func (e *Engine[T, P]) changed(ctx context.Context) {
	cache.InvalidateList(ctx, e.policy.Plural)
}

func newPage[T any](items []T, total int64, q ListQuery) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}
}

// NormalizeStatus parses a user-supplied status string.
func NormalizeStatus(s string) models.Status {
	return models.Status(strings.ToLower(strings.TrimSpace(s)))
}
