package database

import (
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.MenuItem{},
		&models.Ingredient{},
		&models.Order{},
		&Sequence{},
	)
	if err != nil {
		utils.ErrorLogger.Errorf("AutoMigrate failed: %v", err)
		return err
	}
	utils.InfoLogger.Info("AutoMigrate completed.")
	return nil
}
