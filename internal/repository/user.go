// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/cache"
	"marketplace/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", email)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("email is already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// AdminRepository defines persistence operations for back-office admins.
type AdminRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	UpdateRole(ctx context.Context, id uint, role string, active bool) error
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository returns a new AdminRepository implementation.
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

// GetByID reads through the Redis cache. The cached copy has no password hash.
func (r *adminRepository) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	key := cache.AdminKey(id)
	if err := cache.GetJSON(ctx, key, &admin); err == nil {
		return &admin, nil
	}

	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Admin", id)
		}
		return nil, models.NewInternalError(err)
	}
	cache.SetJSON(ctx, key, admin, cache.AdminTTL)
	return &admin, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Admin", email)
		}
		return nil, models.NewInternalError(err)
	}
	return &admin, nil
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("email is already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *adminRepository) UpdateRole(ctx context.Context, id uint, role string, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).
		Updates(map[string]any{"role": role, "is_active": active})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Admin", id)
	}
	cache.InvalidateAdmin(ctx, id)
	return nil
}
