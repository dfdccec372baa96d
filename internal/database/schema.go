package database

import (
	"context"
	"fmt"
	"log/slog"

	"marketplace/internal/config"
	"marketplace/internal/middleware"

	"gorm.io/gorm"
)

// SchemaStatus describes what ApplySchema will do for a configuration.
type SchemaStatus struct {
	Environment        string
	WillRunAutoMigrate bool
	Models             int
}

// schemaPolicy reports whether AutoMigrate runs. Production schemas are
// managed out of band.
func schemaPolicy(cfg *config.Config) bool {
	return cfg == nil || !cfg.IsProduction()
}

func runAutoMigrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(PersistentModels()...)
}

// ApplySchema runs GORM AutoMigrate outside production.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if !schemaPolicy(cfg) {
		middleware.Logger.Info("Skipping AutoMigrate in production")
		return nil
	}

	env := ""
	if cfg != nil {
		env = cfg.Env
	}
	middleware.Logger.Info("Running GORM AutoMigrate", slog.String("env", env))
	if err := runAutoMigrate(ctx, db); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Migrate runs AutoMigrate unconditionally. Production deploys call it from cmd/migrate.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := runAutoMigrate(ctx, db); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the schema policy for cfg without touching the database.
func GetSchemaStatus(cfg *config.Config) SchemaStatus {
	status := SchemaStatus{
		WillRunAutoMigrate: schemaPolicy(cfg),
		Models:             len(PersistentModels()),
	}
	if cfg != nil {
		status.Environment = cfg.Env
	}
	return status
}
