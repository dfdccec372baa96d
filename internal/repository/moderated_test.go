package repository

import (
	"context"
	"regexp"
	"testing"

	"marketplace/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestModeratedRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewModeratedRepository[models.Career](db, "Career")
	ctx := context.Background()

	tests := []struct {
		name         string
		id           uint
		mockBehavior func()
		wantTitle    string
		wantCode     string
	}{
		{
			name: "Success",
			id:   1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "title", "company", "status", "is_active"}).
					AddRow(1, "Staff Writer", "Daily Ledger", "pending", true)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "careers" WHERE "careers"."id" = $1 ORDER BY "careers"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			wantTitle: "Staff Writer",
		},
		{
			name: "Not Found",
			id:   99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "careers" WHERE "careers"."id" = $1 ORDER BY "careers"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			wantCode: models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			career, err := repo.GetByID(ctx, tt.id)

			if tt.wantCode != "" {
				assert.True(t, models.IsCode(err, tt.wantCode))
			} else if assert.NoError(t, err) {
				assert.Equal(t, tt.wantTitle, career.Title)
				assert.Equal(t, models.StatusPending, career.Status)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestModeratedRepository_TransitionGuardsObservedStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewModeratedRepository[models.Publication](db, "Publication")
	ctx := context.Background()

	updates := map[string]any{"status": models.StatusApproved}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "publications" SET .* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.Transition(ctx, 4, models.StatusPending, updates)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "publications" SET .* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err = repo.Transition(ctx, 4, models.StatusPending, updates)
	require.NoError(t, err)
	assert.False(t, ok, "a concurrent writer already moved the row")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModeratedRepository_SetActiveMissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewModeratedRepository[models.Theme](db, "Theme")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "themes" SET "is_active"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(false, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetActive(context.Background(), 7, false)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModeratedRepository_HardDelete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewModeratedRepository[models.Publication](db, "Publication")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "publications" WHERE "publications"."id" = $1`)).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.HardDelete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
