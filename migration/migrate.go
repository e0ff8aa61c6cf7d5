package migration

import (
	"ledger-app/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.Batch{},
		&models.Serial{},
		&models.StockAdjustment{},
		&models.StockMovement{},
		&models.SyncOrigin{},
		&models.ShopSetting{},
		&models.FileLog{},
	)
}
