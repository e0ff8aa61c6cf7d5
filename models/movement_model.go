package models

import "gorm.io/gorm"

// Movement transaction types.
const (
	TransSale       = "sale"
	TransPurchase   = "purchase"
	TransAdjustment = "adjustment"
	TransReconcile  = "reconcile"
	TransSyncPush   = "sync_push"
)

// StockMovement records every quantity mutation that goes through the ledger,
// one signed row per mutation. Summing movements for a product reproduces its
// current quantity (the reconciliation round-trip).
type StockMovement struct {
	gorm.Model
	ProductID uint   `json:"product_id" gorm:"index;not null"`
	BatchID   *uint  `json:"batch_id" gorm:"index"`
	SerialID  *uint  `json:"serial_id" gorm:"index"`
	Trans     string `json:"trans" gorm:"index"`
	RefNo     string `json:"ref_no" gorm:"index"`
	Qty       int    `json:"qty"`
	CreatedBy int    `json:"created_by"`
}
