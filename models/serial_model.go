package models

import "gorm.io/gorm"

const (
	SerialAvailable = "available"
	SerialSold      = "sold"
	SerialReserved  = "reserved"
	SerialLost      = "lost"
)

// Serial is a single physical unit. It is never deleted; its status is the
// record of its life. Code is the scannable composite label, derived from
// the owning batch uid plus the serial number at mint time.
type Serial struct {
	gorm.Model
	ProductID    uint   `json:"product_id" gorm:"index;not null"`
	BatchID      uint   `json:"batch_id" gorm:"index;not null"`
	SerialNumber string `json:"serial_number" gorm:"uniqueIndex;not null"`
	Code         string `json:"code" gorm:"uniqueIndex;not null"`
	Status       string `json:"status" gorm:"default:'available'"`
	CreatedBy    int
	UpdatedBy    int
	DeletedBy    int
}

// SerialCode derives the composite scan code for a serial under a batch.
func SerialCode(batchUID, serialNumber string) string {
	return batchUID + "-" + serialNumber
}
