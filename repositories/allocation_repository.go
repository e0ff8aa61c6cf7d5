package repositories

import (
	"errors"
	"fmt"
	"strings"

	"ledger-app/controllers/idgen"
	"ledger-app/models"

	"gorm.io/gorm"
)

// AllocationRepository receives new stock and attaches it to ledger
// structures: a new or topped-up batch, plus one serial row per unit for
// serial-tracked products.
type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

type AllocationInput struct {
	ProductID   uint     `json:"product_id" validate:"required"`
	Qty         int      `json:"qty" validate:"required,min=1"`
	BatchNumber string   `json:"batch_number"`
	MfgDate     string   `json:"mfg_date"`
	ExpDate     string   `json:"exp_date"`
	Mrp         float64  `json:"mrp"`
	Mop         float64  `json:"mop"`
	Cost        float64  `json:"cost"`
	Supplier    string   `json:"supplier"`
	Serials     []string `json:"serials"`
	RefNo       string   `json:"ref_no"`
	Actor       int      `json:"-"`
}

// Allocate books received quantity into the ledger. Idempotent on
// product + batch number: receiving the same batch label again tops up the
// existing batch instead of creating a sibling. For serial-tracked products
// every unit needs a distinct, globally unused serial number.
func (r *AllocationRepository) Allocate(in AllocationInput) (*models.Batch, error) {
	if in.Qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", in.Qty)
	}

	var batch *models.Batch
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", in.ProductID).Take(&product).Error; err != nil {
			return err
		}

		ledger := NewLedgerRepository(tx)

		switch product.TrackingType {
		case models.TrackingNone:
			if err := tx.Model(&models.Product{}).Where("id = ?", in.ProductID).
				Updates(map[string]interface{}{
					"quantity":   gorm.Expr("quantity + ?", in.Qty),
					"updated_by": in.Actor,
				}).Error; err != nil {
				return err
			}
			return ledger.insertMovement(tx, Mutation{
				ProductID: in.ProductID,
				Trans:     models.TransPurchase,
				RefNo:     in.RefNo,
				Actor:     in.Actor,
			}, in.Qty)

		case models.TrackingBatch:
			b, err := r.findOrCreateBatch(tx, &product, in)
			if err != nil {
				return err
			}
			batch = b
			if err := tx.Model(&models.Batch{}).Where("id = ?", b.ID).
				Updates(map[string]interface{}{
					"quantity":   gorm.Expr("quantity + ?", in.Qty),
					"is_active":  true,
					"updated_by": in.Actor,
				}).Error; err != nil {
				return err
			}
			b.Quantity += in.Qty
			if err := tx.Model(&models.Product{}).Where("id = ?", in.ProductID).
				Updates(map[string]interface{}{
					"quantity":   gorm.Expr("quantity + ?", in.Qty),
					"updated_by": in.Actor,
				}).Error; err != nil {
				return err
			}
			return ledger.insertMovement(tx, Mutation{
				ProductID: in.ProductID,
				BatchID:   &b.ID,
				Trans:     models.TransPurchase,
				RefNo:     in.RefNo,
				Actor:     in.Actor,
			}, in.Qty)

		case models.TrackingSerial:
			if len(in.Serials) != in.Qty {
				return fmt.Errorf("%w: got %d serials for qty %d", ErrSerialCountMismatch, len(in.Serials), in.Qty)
			}
			if dupe := firstDuplicate(in.Serials); dupe != "" {
				return fmt.Errorf("%w: %s (repeated in request)", ErrDuplicateSerial, dupe)
			}
			var existing models.Serial
			err := tx.Where("serial_number IN ?", in.Serials).Take(&existing).Error
			if err == nil {
				return fmt.Errorf("%w: %s", ErrDuplicateSerial, existing.SerialNumber)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			b, err := r.findOrCreateBatch(tx, &product, in)
			if err != nil {
				return err
			}
			batch = b

			for _, sn := range in.Serials {
				serial := models.Serial{
					ProductID:    in.ProductID,
					BatchID:      b.ID,
					SerialNumber: sn,
					Code:         models.SerialCode(b.BatchUID, sn),
					Status:       models.SerialAvailable,
					CreatedBy:    in.Actor,
				}
				if err := createSerialRow(tx, &serial); err != nil {
					return err
				}
			}

			// Batch quantity mirrors the serial count; the two must never diverge.
			if err := tx.Model(&models.Batch{}).Where("id = ?", b.ID).
				Updates(map[string]interface{}{
					"quantity":   gorm.Expr("quantity + ?", in.Qty),
					"is_active":  true,
					"updated_by": in.Actor,
				}).Error; err != nil {
				return err
			}
			b.Quantity += in.Qty
			if err := ledger.recountSerialAggregate(tx, in.ProductID, in.Actor); err != nil {
				return err
			}
			return ledger.insertMovement(tx, Mutation{
				ProductID: in.ProductID,
				BatchID:   &b.ID,
				Trans:     models.TransPurchase,
				RefNo:     in.RefNo,
				Actor:     in.Actor,
			}, in.Qty)

		default:
			return fmt.Errorf("unknown tracking type %q", product.TrackingType)
		}
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *AllocationRepository) findOrCreateBatch(tx *gorm.DB, product *models.Product, in AllocationInput) (*models.Batch, error) {
	batchNumber := strings.TrimSpace(in.BatchNumber)
	if batchNumber == "" {
		return nil, fmt.Errorf("batch number required for %s-tracked product %d", product.TrackingType, product.ID)
	}

	var batch models.Batch
	err := tx.Where("product_id = ? AND batch_number = ?", product.ID, batchNumber).Take(&batch).Error
	if err == nil {
		return &batch, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	mrp, mop, cost := in.Mrp, in.Mop, in.Cost
	if mrp == 0 {
		mrp = product.Mrp
	}
	if mop == 0 {
		mop = product.Mop
	}
	if cost == 0 {
		cost = product.Cost
	}

	batch = models.Batch{
		ProductID:   product.ID,
		BatchNumber: batchNumber,
		BatchUID:    idgen.BatchUID(),
		MfgDate:     in.MfgDate,
		ExpDate:     in.ExpDate,
		Mrp:         mrp,
		Mop:         mop,
		Cost:        cost,
		Supplier:    in.Supplier,
		IsActive:    true,
		CreatedBy:   in.Actor,
	}
	if err := tx.Create(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// createSerialRow inserts a freshly minted serial. A concurrent writer can
// slip the same serial number past the pre-check, so a unique-index
// rejection here still surfaces as ErrDuplicateSerial, never a raw driver
// error.
func createSerialRow(tx *gorm.DB, serial *models.Serial) error {
	if err := tx.Create(serial).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateSerial, serial.SerialNumber)
		}
		return err
	}
	return nil
}

func firstDuplicate(values []string) string {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v
		}
		seen[v] = true
	}
	return ""
}
