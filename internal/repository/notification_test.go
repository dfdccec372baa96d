package repository

import (
	"context"
	"testing"

	"marketplace/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_MarkRead(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	tests := []struct {
		name     string
		affected int64
		wantCode string
	}{
		{name: "Owned notification", affected: 1},
		{name: "Someone else's notification", affected: 0, wantCode: models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE id = \$2 AND user_id = \$3`).
				WithArgs(true, 10, 5).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			err := repo.MarkRead(ctx, 10, 5)
			if tt.wantCode != "" {
				assert.True(t, models.IsCode(err, tt.wantCode))
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE user_id = \$2 AND is_read = \$3`).
		WithArgs(true, 5, false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.MarkAllRead(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
