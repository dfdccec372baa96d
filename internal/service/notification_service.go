package service

import (
	"context"

	"marketplace/internal/models"
	"marketplace/internal/repository"
)

// NotificationPage is one page of a user's in-app notifications.
type NotificationPage struct {
	Items  []models.Notification `json:"items"`
	Total  int64                 `json:"total"`
	Unread int64                 `json:"unread"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// NotificationService reads and acknowledges in-app notifications.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) (*NotificationPage, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &NotificationPage{Items: items, Total: total, Unread: unread, Limit: limit, Offset: offset}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
