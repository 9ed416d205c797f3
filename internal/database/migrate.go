package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// Migrate creates or updates the tables owned by the service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Suggestion{}, &models.SuggestionStatusHistory{}, &models.ActivityLog{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
