package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/models"

	"gorm.io/gorm"
)

// ListFilter narrows a listing of moderated rows.
type ListFilter struct {
	Statuses      []models.Status
	SubmittedBy   *uint
	Search        string
	SearchColumns []string
	Limit         int
	Offset        int
}

// ModeratedRepository persists one moderated entity type.
type ModeratedRepository[T any] interface {
	GetByID(ctx context.Context, id uint) (*T, error)
	List(ctx context.Context, filter ListFilter) ([]T, int64, error)
	ListDeleted(ctx context.Context, filter ListFilter) ([]T, int64, error)
	Create(ctx context.Context, item *T) error
	UpdatePayload(ctx context.Context, id uint, item *T) error
	Transition(ctx context.Context, id uint, from models.Status, updates map[string]any) (bool, error)
	SetActive(ctx context.Context, id uint, active bool) error
	HardDelete(ctx context.Context, id uint) error
	Transaction(ctx context.Context, fn func(repo ModeratedRepository[T]) error) error
}

type moderatedRepository[T any] struct {
	db       *gorm.DB
	resource string
}

// NewModeratedRepository returns a GORM-backed repository for T.
// resource names the entity in NotFound errors.
func NewModeratedRepository[T any](db *gorm.DB, resource string) ModeratedRepository[T] {
	return &moderatedRepository[T]{db: db, resource: resource}
}

func (r *moderatedRepository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(r.resource, id)
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *moderatedRepository[T]) List(ctx context.Context, filter ListFilter) ([]T, int64, error) {
	return r.list(ctx, filter, true)
}

// ListDeleted is the dedicated soft-deleted listing shown to admins.
func (r *moderatedRepository[T]) ListDeleted(ctx context.Context, filter ListFilter) ([]T, int64, error) {
	return r.list(ctx, filter, false)
}

func (r *moderatedRepository[T]) list(ctx context.Context, filter ListFilter, active bool) ([]T, int64, error) {
	query := r.db.WithContext(ctx).Model(new(T)).Where("is_active = ?", active)
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.SubmittedBy != nil {
		query = query.Where("submitted_by = ?", *filter.SubmittedBy)
	}
	if term := strings.TrimSpace(filter.Search); term != "" && len(filter.SearchColumns) > 0 {
		like := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, 0, len(filter.SearchColumns))
		args := make([]any, 0, len(filter.SearchColumns))
		for _, col := range filter.SearchColumns {
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE ?", col))
			args = append(args, like)
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var items []T
	if err := query.Order("created_at DESC, id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&items).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

func (r *moderatedRepository[T]) Create(ctx context.Context, item *T) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UpdatePayload writes every payload column of item onto row id.
// Moderation columns are never touched.
func (r *moderatedRepository[T]) UpdatePayload(ctx context.Context, id uint, item *T) error {
	omit := append([]string{"id", "created_at"}, models.ModerationColumns...)
	err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).
		Select("*").Omit(omit...).
		Updates(item).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Transition applies updates only while the row still has status from.
// It reports false when another writer moved the row first.
func (r *moderatedRepository[T]) Transition(ctx context.Context, id uint, from models.Status, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *moderatedRepository[T]) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError(r.resource, id)
	}
	return nil
}

// HardDelete removes the row permanently.
func (r *moderatedRepository[T]) HardDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError(r.resource, id)
	}
	return nil
}

// Transaction runs fn against a repository bound to a single database transaction.
func (r *moderatedRepository[T]) Transaction(ctx context.Context, fn func(repo ModeratedRepository[T]) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&moderatedRepository[T]{db: tx, resource: r.resource})
	})
}
