// Package bootstrap wires process-level dependencies shared by the server and the operator commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"marketplace/internal/authz"
	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultDevAdminEmail = "root@marketplace.local"

// InitRuntime connects to the database and Redis and bootstraps the
// development admin. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	return db, rdb, nil
}

// InitOperatorCache connects the operator commands to the servers' Redis.
// Role and status changes must drop the admin copies the servers cache for
// cache.AdminTTL, so a configured but unreachable Redis is an error.
func InitOperatorCache(cfg *config.Config) error {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil
	}
	if cache.InitRedis(cfg.RedisURL) == nil {
		return fmt.Errorf("redis at %s is unreachable; servers would keep cached admin roles for up to %s", cfg.RedisURL, cache.AdminTTL)
	}
	return nil
}

// EnsureDevAdmin creates an active super admin in development when
// DEV_BOOTSTRAP_ADMIN is set. An existing account is promoted and re-enabled.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" {
		email = defaultDevAdminEmail
	}
	if cfg.DevAdminPassword == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	admins := repository.NewAdminRepository(db)
	existing, err := admins.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == authz.RoleSuperAdmin && existing.IsActive {
			return nil
		}
		if err := admins.UpdateRole(ctx, existing.ID, authz.RoleSuperAdmin, true); err != nil {
			return err
		}
		slog.Info("development admin promoted", "email", email)
		return nil
	case models.ErrorCode(err) != models.CodeNotFound:
		return err
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), admins, nil, cfg.JWTSecret)
	if _, err := auth.CreateAdmin(ctx, "Development Admin", email, cfg.DevAdminPassword, authz.RoleSuperAdmin); err != nil {
		return err
	}
	slog.Info("development admin created", "email", email)
	return nil
}
