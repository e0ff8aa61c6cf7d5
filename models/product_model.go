package models

import "gorm.io/gorm"

// TrackingType selects which sub-ledger is authoritative for a product.
type TrackingType string

const (
	TrackingNone   TrackingType = "none"
	TrackingBatch  TrackingType = "batch"
	TrackingSerial TrackingType = "serial"
)

func (t TrackingType) Valid() bool {
	switch t {
	case TrackingNone, TrackingBatch, TrackingSerial:
		return true
	}
	return false
}

type Product struct {
	gorm.Model
	ItemCode          string       `json:"item_code" gorm:"uniqueIndex"`
	ItemName          string       `json:"item_name"`
	Barcode           string       `json:"barcode" gorm:"index"`
	TrackingType      TrackingType `json:"tracking_type" gorm:"default:'none'"`
	Quantity          int          `json:"quantity" gorm:"default:0"`
	Mrp               float64      `json:"mrp" gorm:"default:0"`
	Mop               float64      `json:"mop" gorm:"default:0"`
	Cost              float64      `json:"cost" gorm:"default:0"`
	Uom               string       `json:"uom"`
	Category          string       `json:"category"`
	IsActive          bool         `json:"is_active" gorm:"default:true"`
	LowStockThreshold int          `json:"low_stock_threshold" gorm:"default:0"`
	Remarks           string       `json:"remarks"`
	CreatedBy         int
	UpdatedBy         int
	DeletedBy         int
}
