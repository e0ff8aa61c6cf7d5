package models

import "gorm.io/gorm"

// Adjustment reason categories. Free-text detail goes in Reason.
const (
	AdjustDamaged = "damaged"
	AdjustExpired = "expired"
	AdjustLost    = "lost"
	AdjustFound   = "found"
	AdjustRecount = "recount"
	AdjustOther   = "other"
)

func ValidAdjustCategory(c string) bool {
	switch c {
	case AdjustDamaged, AdjustExpired, AdjustLost, AdjustFound, AdjustRecount, AdjustOther:
		return true
	}
	return false
}

// StockAdjustment is an append-only journal entry. Rows are never updated or
// deleted; a correction to a correction is a new entry.
type StockAdjustment struct {
	gorm.Model
	RefNo        string `json:"ref_no" gorm:"uniqueIndex"`
	ProductID    uint   `json:"product_id" gorm:"index;not null"`
	BatchID      *uint  `json:"batch_id" gorm:"index"`
	SerialID     *uint  `json:"serial_id" gorm:"index"`
	Category     string `json:"category"`
	OldQuantity  int    `json:"old_quantity"`
	NewQuantity  int    `json:"new_quantity"`
	Delta        int    `json:"delta"`
	Reason       string `json:"reason"`
	Unattributed bool   `json:"unattributed" gorm:"default:false"`
	CreatedBy    int    `json:"created_by"`
}
