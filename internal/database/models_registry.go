package database

import "marketplace/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Admin{},
		&models.Notification{},
		&models.Career{},
		&models.Publication{},
		&models.Reporter{},
		&models.Theme{},
		&models.Powerlist{},
		&models.Website{},
	}
}
