package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"marketplace/internal/authz"
	"marketplace/internal/config"
	"marketplace/internal/models"
	"marketplace/internal/moderation"
	"marketplace/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publicationBody(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"website_url": "https://" + name + ".example.com",
		"price_cents": 25000,
		"region":      "US",
	}
}

func TestPublicationApprovalOverHTTP(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	userID, userToken := env.userToken(t)
	adminID, adminToken := env.adminToken(t, authz.RoleContentManager)

	var created models.Publication
	status := env.do(t, http.MethodPost, "/api/publications", userToken, publicationBody("dailywire"), &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.StatusDraft, created.Status)
	require.NotNil(t, created.SubmittedBy)
	assert.Equal(t, userID, *created.SubmittedBy)

	var approved models.Publication
	status = env.do(t, http.MethodPost, fmt.Sprintf("/api/publications/%d/approve", created.ID), adminToken,
		map[string]any{"admin_comments": "looks good"}, &approved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, adminID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.AdminComments)
	assert.Equal(t, "looks good", *approved.AdminComments)

	// The SMTP relay is unreachable, so the submitter also gets the fallback notice.
	var rows []models.Notification
	require.NoError(t, env.db.Where("user_id = ?", userID).Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "publication_approved", rows[0].Type)
	assert.Equal(t, "system", rows[1].Type)
	assert.Equal(t, notifications.EmailDeliveryIssueTitle, rows[1].Title)

	// Approving again is an illegal transition.
	var body errorBody
	status = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/publications/%d/approve", created.ID), adminToken, nil, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeConflict, body.Code)
}

func TestEditorCannotBulkRejectPublications(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, userToken := env.userToken(t)
	_, editorToken := env.adminToken(t, authz.RoleEditor)

	var ids []uint
	for i := range 3 {
		var p models.Publication
		require.Equal(t, http.StatusCreated,
			env.do(t, http.MethodPost, "/api/publications", userToken, publicationBody(fmt.Sprintf("outlet%d", i)), &p))
		ids = append(ids, p.ID)
	}

	for _, path := range []string{"/api/admin/publications/bulk-reject", "/api/publications/bulk-reject"} {
		var body errorBody
		status := env.do(t, http.MethodPut, path, editorToken,
			map[string]any{"ids": ids, "rejection_reason": "spam"}, &body)
		assert.Equal(t, http.StatusForbidden, status, path)
		assert.Contains(t, body.Error, "content_manager")
	}

	var rows []models.Publication
	require.NoError(t, env.db.Find(&rows, ids).Error)
	for _, p := range rows {
		assert.Equal(t, models.StatusDraft, p.Status)
		assert.Nil(t, p.RejectedAt)
		assert.Nil(t, p.RejectionReason)
	}
}

func TestBulkRejectReportsPerItemOutcome(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, userToken := env.userToken(t)
	_, adminToken := env.adminToken(t, authz.RoleModerator)

	var career models.Career
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/careers", userToken,
		map[string]any{"title": "Reporter", "company": "Gazette"}, &career))

	var result moderation.BulkResult
	status := env.do(t, http.MethodPut, "/api/admin/careers/bulk-reject", adminToken,
		map[string]any{"ids": []uint{career.ID, 9999, career.ID}, "rejection_reason": "incomplete listing"}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, result.SucceededCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, []uint{career.ID}, result.Succeeded)
	assert.Equal(t, uint(9999), result.Failed[0].ID)
	assert.Equal(t, 2, result.Failed[1].Index)

	var stored models.Career
	require.NoError(t, env.db.First(&stored, career.ID).Error)
	assert.Equal(t, models.StatusRejected, stored.Status)
	require.NotNil(t, stored.RejectionReason)
	assert.Equal(t, "incomplete listing", *stored.RejectionReason)
}

func TestRejectRequiresReason(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, userToken := env.userToken(t)
	_, adminToken := env.adminToken(t, authz.RoleModerator)

	var theme models.Theme
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/themes", userToken, themeBody(), &theme))

	var body errorBody
	status := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/themes/%d/reject", theme.ID), adminToken,
		map[string]any{"rejection_reason": "<script></script>  "}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)

	var stored models.Theme
	require.NoError(t, env.db.First(&stored, theme.ID).Error)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Nil(t, stored.RejectionReason)
}

func themeBody() map[string]any {
	return map[string]any{"title": "Tech Roundup", "category": "technology"}
}

func TestUserCannotModerate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, userToken := env.userToken(t)

	var career models.Career
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/careers", userToken,
		map[string]any{"title": "Editor", "company": "Herald"}, &career))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, fmt.Sprintf("/api/careers/%d/approve", career.ID)},
		{http.MethodPost, fmt.Sprintf("/api/admin/careers/%d/approve", career.ID)},
		{http.MethodPut, "/api/careers/bulk-approve"},
		{http.MethodGet, "/api/admin/careers"},
	}
	for _, tt := range tests {
		status := env.do(t, tt.method, tt.path, userToken, map[string]any{"ids": []uint{career.ID}}, nil)
		assert.Equal(t, http.StatusForbidden, status, tt.path)
	}

	status := env.do(t, http.MethodPost, fmt.Sprintf("/api/careers/%d/approve", career.ID), "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestVisibilityOverHTTP(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t)
	_, otherToken := env.userToken(t)
	_, adminToken := env.adminToken(t, authz.RoleModerator)

	var pending models.Reporter
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/reporters", ownerToken,
		map[string]any{"name": "Ada Lane", "outlet": "Courier", "email": "ada@courier.example"}, &pending))
	assert.Equal(t, models.StatusPending, pending.Status)

	var listed moderation.Page[models.Reporter]
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/reporters", "", nil, &listed))
	assert.Zero(t, listed.Total)

	path := fmt.Sprintf("/api/reporters/%d", pending.ID)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, ownerToken, nil, nil))
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, otherToken, nil, nil))
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, adminToken, nil, nil))

	var mine moderation.Page[models.Reporter]
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/reporters/my", ownerToken, nil, &mine))
	assert.EqualValues(t, 1, mine.Total)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/approve", adminToken, nil, nil))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/reporters?limit=500", "", nil, &listed))
	assert.EqualValues(t, 1, listed.Total)
	assert.Equal(t, maxPaginationLimit, listed.Limit)

	// An invalid token on a public listing is treated as anonymous.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/reporters", "not-a-token", nil, &listed))
	assert.EqualValues(t, 1, listed.Total)

	// Approved rows are frozen for their owner.
	var body errorBody
	status := env.do(t, http.MethodPut, path, ownerToken, map[string]any{"name": "Ada L."}, &body)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body.Error, "cannot update approved/rejected submissions")
}

func TestSoftDeleteAndRestoreOverHTTP(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t)
	_, adminToken := env.adminToken(t, authz.RoleModerator)

	var career models.Career
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/careers", ownerToken,
		map[string]any{"title": "Copy Editor", "company": "Tribune"}, &career))
	path := fmt.Sprintf("/api/careers/%d", career.ID)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, path, ownerToken, nil, nil))

	var active, deleted moderation.Page[models.Career]
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/admin/careers", adminToken, nil, &active))
	assert.Zero(t, active.Total)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/admin/careers?show_deleted=true", adminToken, nil, &deleted))
	assert.EqualValues(t, 1, deleted.Total)

	var restored models.Career
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost,
		fmt.Sprintf("/api/admin/careers/%d/restore", career.ID), adminToken, nil, &restored))
	assert.True(t, restored.IsActive)
}

func TestPublicationDraftSubmitAndHardDelete(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t)
	_, adminToken := env.adminToken(t, authz.RoleSuperAdmin)

	var p models.Publication
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/publications", ownerToken, publicationBody("ledger"), &p))

	var submitted models.Publication
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost,
		fmt.Sprintf("/api/publications/%d/submit", p.ID), ownerToken, nil, &submitted))
	assert.Equal(t, models.StatusPending, submitted.Status)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/admin/publications/%d/permanent", p.ID), adminToken, nil, nil))
	var count int64
	require.NoError(t, env.db.Model(&models.Publication{}).Where("id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdminCreateUsesRequestedStatus(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	adminID, adminToken := env.adminToken(t, authz.RoleEditor)

	body := publicationBody("bulkupload")
	body["status"] = "pending"
	var p models.Publication
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/admin/publications", adminToken, body, &p))
	assert.Equal(t, models.StatusPending, p.Status)
	require.NotNil(t, p.SubmittedByAdmin)
	assert.Equal(t, adminID, *p.SubmittedByAdmin)

	var def models.Publication
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/admin/publications", adminToken, publicationBody("defaults"), &def))
	assert.Equal(t, models.StatusApproved, def.Status)

	body["status"] = "rejected"
	var errBody errorBody
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/admin/publications", adminToken, body, &errBody))
}

func TestCreateSanitizesMarkup(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, token := env.userToken(t)

	var c models.Career
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/careers", token,
		map[string]any{"title": "<b>Night</b> Editor<script>alert(1)</script>", "company": "Post"}, &c))
	assert.Equal(t, "Night Editor", c.Title)
}

func TestSubmissionRateLimit(t *testing.T) {
	// APP_ENV gates the limiter process-wide, so this test cannot run in parallel.
	t.Setenv("APP_ENV", "production")
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.SubmissionRateLimit = 2
	})
	_, token := env.userToken(t)
	_, adminToken := env.adminToken(t, authz.RoleEditor)

	for i := range 2 {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/powerlists", token,
			powerlistBody(fmt.Sprintf("Nominee %d", i)), nil))
	}
	var body errorBody
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/api/powerlists", token,
		powerlistBody("Nominee 3"), &body))
	assert.Equal(t, models.CodeRateLimited, body.Code)

	// Careers are not limited and admins never are.
	for range 3 {
		assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/careers", token,
			map[string]any{"title": "Stringer", "company": "Wire"}, nil))
		assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/powerlists", adminToken,
			powerlistBody("Admin pick"), nil))
	}
}

func powerlistBody(nominee string) map[string]any {
	return map[string]any{"nominee_name": nominee, "category": "media", "year": 2026}
}

func TestCreateIgnoresClientIdentityAndTimestamps(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, userToken := env.userToken(t)
	_, otherToken := env.userToken(t)

	var first models.Publication
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/publications", userToken, publicationBody("harbor"), &first))

	body := publicationBody("lantern")
	body["id"] = 777
	body["created_at"] = "2000-01-01T00:00:00Z"
	body["updated_at"] = "2000-01-01T00:00:00Z"

	var created models.Publication
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/publications", otherToken, body, &created))
	assert.NotEqual(t, uint(777), created.ID)
	assert.Greater(t, created.ID, first.ID)
	assert.True(t, created.CreatedAt.After(time.Now().Add(-time.Hour)), "created_at was %s", created.CreatedAt)
	assert.True(t, created.UpdatedAt.After(time.Now().Add(-time.Hour)))

	// Naming an existing row's id creates a new row instead of failing.
	body = publicationBody("beacon")
	body["id"] = first.ID
	var again models.Publication
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/publications", otherToken, body, &again))
	assert.NotEqual(t, first.ID, again.ID)

	var stored models.Publication
	require.NoError(t, env.db.First(&stored, first.ID).Error)
	assert.Equal(t, "harbor", stored.Name)
}
