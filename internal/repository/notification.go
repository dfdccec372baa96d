package repository

import (
	"context"

	"marketplace/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var items []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
