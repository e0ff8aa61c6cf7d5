package database

import (
	"ledger-app/models"

	"gorm.io/gorm"
)

// SeedSettings inserts the default shop settings when they are missing.
// Negative stock is off by default; flipping it is an explicit policy call.
func SeedSettings(db *gorm.DB) error {
	defaults := []models.ShopSetting{
		{Key: models.SettingAllowNegativeStock, Value: "false"},
		{Key: models.SettingLowStockAlertMail, Value: "true"},
	}

	for _, setting := range defaults {
		var existing models.ShopSetting
		if err := db.Where("key = ?", setting.Key).Take(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&setting).Error; err != nil {
			return err
		}
	}
	return nil
}
