package seed

import (
	"ledger-app/models"

	"gorm.io/gorm"
)

// SeedDemoCatalog inserts a small demo catalog, one product per tracking
// type. Intended for development databases only.
func SeedDemoCatalog(db *gorm.DB) {
	products := []models.Product{
		{
			ItemCode:          "SOAP-01",
			ItemName:          "Bath Soap 100g",
			Barcode:           "8901001000011",
			TrackingType:      models.TrackingNone,
			Mrp:               45,
			Mop:               40,
			Cost:              30,
			Uom:               "PCS",
			IsActive:          true,
			LowStockThreshold: 20,
		},
		{
			ItemCode:          "PARA-500",
			ItemName:          "Paracetamol 500mg Strip",
			Barcode:           "8901001000028",
			TrackingType:      models.TrackingBatch,
			Mrp:               25,
			Mop:               22,
			Cost:              15,
			Uom:               "STRIP",
			IsActive:          true,
			LowStockThreshold: 50,
		},
		{
			ItemCode:          "PHONE-A1",
			ItemName:          "Feature Phone A1",
			Barcode:           "8901001000035",
			TrackingType:      models.TrackingSerial,
			Mrp:               1499,
			Mop:               1399,
			Cost:              1100,
			Uom:               "PCS",
			IsActive:          true,
			LowStockThreshold: 5,
		},
	}

	for _, p := range products {
		var existing models.Product
		if err := db.Where("item_code = ?", p.ItemCode).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				db.Create(&p)
			}
		}
	}
}
