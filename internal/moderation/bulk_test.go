package moderation

import (
	"context"
	"errors"
	"testing"

	"marketplace/internal/authz"
	"marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBulk_ContinuesPastFailures(t *testing.T) {
	t.Parallel()
	var called []uint
	res := RunBulk(context.Background(), []uint{1, 2, 0, 3, 2}, func(_ context.Context, id uint) error {
		called = append(called, id)
		if id == 2 {
			return models.NewNotFoundError("Career", id)
		}
		return nil
	})

	assert.Equal(t, []uint{1, 2, 3}, called)
	assert.Equal(t, []uint{1, 3}, res.Succeeded)
	assert.Equal(t, 2, res.SucceededCount)
	assert.Equal(t, 3, res.FailedCount)
	require.Len(t, res.Failed, 3)
	assert.Equal(t, BulkFailure{Index: 1, ID: 2, Error: "not found", Code: models.CodeNotFound}, res.Failed[0])
	assert.Equal(t, "invalid id", res.Failed[1].Error)
	assert.Equal(t, "duplicate id", res.Failed[2].Error)
	assert.Equal(t, 4, res.Failed[2].Index)
}

func TestRunBulk_HidesInternalErrors(t *testing.T) {
	t.Parallel()
	res := RunBulk(context.Background(), []uint{1, 2}, func(_ context.Context, id uint) error {
		if id == 1 {
			return errors.New("pq: connection reset")
		}
		return models.NewInternalError(errors.New("disk full"))
	})
	require.Len(t, res.Failed, 2)
	for _, f := range res.Failed {
		assert.Equal(t, "internal error", f.Error)
	}
}

func TestRunBulk_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	res := RunBulk(ctx, []uint{1, 2, 3}, func(_ context.Context, _ uint) error {
		calls++
		cancel()
		return nil
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, []uint{1}, res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "request cancelled", res.Failed[0].Error)
}

func TestRunBulk_EmptyResultIsNotNil(t *testing.T) {
	t.Parallel()
	res := RunBulk(context.Background(), []uint{5}, func(context.Context, uint) error { return nil })
	assert.NotNil(t, res.Failed)
	assert.Empty(t, res.Failed)
}

func TestEngine_BulkApproveWithMissingID(t *testing.T) {
	e, db, d := newCareerEngine(t)
	ctx := context.Background()
	first := createCareer(t, e, owner, "First")
	third := createCareer(t, e, owner, "Third")

	res, err := e.BulkApprove(ctx, superAdmin, []uint{first.ID, 999, third.ID}, nil)
	require.NoError(t, err)

	assert.Equal(t, []uint{first.ID, third.ID}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, uint(999), res.Failed[0].ID)
	assert.Equal(t, "not found", res.Failed[0].Error)

	for _, id := range []uint{first.ID, third.ID} {
		row := reload[models.Career](t, db, id)
		assert.Equal(t, models.StatusApproved, row.Status)
	}
	assert.Len(t, d.decisions, 2)
}

func TestEngine_BulkRejectReportsConflicts(t *testing.T) {
	e, _, _ := newCareerEngine(t)
	ctx := context.Background()
	a := createCareer(t, e, owner, "A")
	b := createCareer(t, e, owner, "B")
	_, err := e.Reject(ctx, superAdmin, b.ID, "dup", nil)
	require.NoError(t, err)

	res, err := e.BulkReject(ctx, superAdmin, []uint{a.ID, b.ID}, "Incomplete listing", nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, models.CodeConflict, res.Failed[0].Code)
}

func TestEngine_BulkGate(t *testing.T) {
	ctx := context.Background()

	t.Run("editor cannot bulk reject publications", func(t *testing.T) {
		e, db, d := newPublicationEngine(t)
		var ids []uint
		for _, name := range []string{"One", "Two"} {
			p, err := e.Create(ctx, owner, &models.Publication{Name: name, WebsiteURL: "https://example.com"}, "")
			require.NoError(t, err)
			_, err = e.Submit(ctx, owner, p.ID)
			require.NoError(t, err)
			ids = append(ids, p.ID)
		}

		_, err := e.BulkReject(ctx, editor, ids, "Spam", nil)
		require.Error(t, err)
		assert.True(t, models.IsCode(err, models.CodeForbidden))
		assert.Contains(t, err.Error(), "content_manager")

		for _, id := range ids {
			row := reload[models.Publication](t, db, id)
			assert.Equal(t, models.StatusPending, row.Status)
			assert.Nil(t, row.RejectedBy)
		}
		assert.Empty(t, d.decisions)
	})

	t.Run("content manager passes the publication gate", func(t *testing.T) {
		e, _, _ := newPublicationEngine(t)
		p, err := e.Create(ctx, owner, &models.Publication{Name: "One", WebsiteURL: "https://example.com"}, "")
		require.NoError(t, err)

		cm := Actor{AdminID: 3, AdminRole: authz.RoleContentManager}
		res, err := e.BulkReject(ctx, cm, []uint{p.ID}, "Spam", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.SucceededCount)
	})

	t.Run("users and empty batches are rejected", func(t *testing.T) {
		e, _, _ := newCareerEngine(t)
		_, err := e.BulkApprove(ctx, owner, []uint{1}, nil)
		assert.True(t, models.IsCode(err, models.CodeForbidden))

		_, err = e.BulkApprove(ctx, superAdmin, nil, nil)
		assert.True(t, models.IsCode(err, models.CodeValidation))

		_, err = e.BulkApprove(ctx, superAdmin, make([]uint, MaxBulkIDs+1), nil)
		assert.True(t, models.IsCode(err, models.CodeValidation))

		_, err = e.BulkReject(ctx, superAdmin, []uint{1}, " ", nil)
		assert.True(t, models.IsCode(err, models.CodeValidation))
	})

	t.Run("any admin may bulk moderate careers", func(t *testing.T) {
		e, _, _ := newCareerEngine(t)
		c := createCareer(t, e, owner, "Writer")
		other := Actor{AdminID: 9, AdminRole: authz.RoleOther}
		res, err := e.BulkApprove(ctx, other, []uint{c.ID}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.SucceededCount)
	})
}
