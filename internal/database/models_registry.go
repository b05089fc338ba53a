package database

import "inkwell/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Notification{},
		&models.Author{},
		&models.Book{},
	}
}
