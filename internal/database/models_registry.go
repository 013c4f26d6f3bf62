package database

import "fashfolio/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Outfit{},
		&models.OutfitLike{},
		&models.Comment{},
		&models.Collection{},
		&models.Product{},
	}
}
