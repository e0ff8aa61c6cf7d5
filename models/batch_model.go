package models

import "gorm.io/gorm"

// Batch is one received lot of a product. Quantity is authoritative when the
// product's tracking type is "batch"; for serial-tracked products it is kept
// equal to the count of serials minted under it.
type Batch struct {
	gorm.Model
	ProductID   uint    `json:"product_id" gorm:"index;not null"`
	BatchNumber string  `json:"batch_number" gorm:"index"`
	BatchUID    string  `json:"batch_uid" gorm:"uniqueIndex"`
	Quantity    int     `json:"quantity" gorm:"default:0"`
	MfgDate     string  `json:"mfg_date"`
	ExpDate     string  `json:"exp_date"`
	Mrp         float64 `json:"mrp" gorm:"default:0"`
	Mop         float64 `json:"mop" gorm:"default:0"`
	Cost        float64 `json:"cost" gorm:"default:0"`
	Supplier    string  `json:"supplier"`
	IsActive    bool    `json:"is_active" gorm:"default:true"`
	CreatedBy   int
	UpdatedBy   int
	DeletedBy   int
}
