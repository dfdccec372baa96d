package repository

import (
	"context"
	"testing"

	"marketplace/internal/authz"
	"marketplace/internal/cache"
	"marketplace/internal/models"
	"marketplace/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRepository_UpdateRoleDropsCachedAdmin(t *testing.T) {
	mr := miniredis.RunT(t)
	prev := cache.GetClient()
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(prev) })

	db := testutil.NewSQLiteDB(t)
	repo := NewAdminRepository(db)
	ctx := context.Background()

	admin := &models.Admin{Name: "Desk", Email: "desk@marketplace.local", Password: "hash", Role: authz.RoleEditor, IsActive: true}
	require.NoError(t, repo.Create(ctx, admin))

	cached, err := repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleEditor, cached.Role)
	assert.True(t, mr.Exists(cache.AdminKey(admin.ID)))

	require.NoError(t, repo.UpdateRole(ctx, admin.ID, authz.RoleModerator, false))
	assert.False(t, mr.Exists(cache.AdminKey(admin.ID)))

	fresh, err := repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleModerator, fresh.Role)
	assert.False(t, fresh.IsActive)
}
