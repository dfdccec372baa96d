package service

import (
	"context"
	"testing"

	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := repository.NewNotificationRepository(db)
	svc := NewNotificationService(repo)

	for _, typ := range []string{"career_approved", "career_rejected", models.NotificationTypeSystem} {
		require.NoError(t, repo.Create(ctx, &models.Notification{UserID: 4, Type: typ, Title: typ}))
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: 5, Type: "theme_approved", Title: "other"}))

	page, err := svc.List(ctx, 4, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(3), page.Unread)

	require.NoError(t, svc.MarkRead(ctx, 4, page.Items[0].ID))
	err = svc.MarkRead(ctx, 5, page.Items[1].ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "users cannot touch other users' notifications")

	n, err := svc.MarkAllRead(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err = svc.List(ctx, 5, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Unread)

	empty, err := svc.List(ctx, 99, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
}
