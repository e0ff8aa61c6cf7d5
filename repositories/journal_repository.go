package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"ledger-app/models"

	"gorm.io/gorm"
)

// JournalRepository records reason-coded corrections outside the sale and
// purchase flow. The journal insert and the paired ledger mutation share one
// transaction: never one without the other.
type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

type AdjustmentInput struct {
	ProductID uint   `json:"product_id"`
	Delta     int    `json:"delta"`
	Category  string `json:"category"`
	Reason    string `json:"reason"`
	BatchID   *uint  `json:"batch_id"`
	SerialID  *uint  `json:"serial_id"`
	Actor     int    `json:"-"`
}

// RecordAdjustment applies a manual correction and journals it.
//
// A negative delta with neither batch nor serial on a batch- or
// serial-tracked product is an unattributed loss: it decrements the
// aggregate only, is flagged on the entry, and never cascades to the
// sub-ledgers. A positive delta on such a product must name the batch the
// stock returns to; found stock without provenance is rejected.
func (r *JournalRepository) RecordAdjustment(in AdjustmentInput) (*models.StockAdjustment, error) {
	if in.Delta == 0 {
		return nil, fmt.Errorf("adjustment delta must be non-zero")
	}
	if !models.ValidAdjustCategory(in.Category) {
		return nil, fmt.Errorf("unknown adjustment category %q", in.Category)
	}

	// The ref sequence is read-then-format, so two concurrent adjustments
	// can mint the same ref. The unique index catches the loser; rerunning
	// the transaction recomputes the sequence against the winner's row.
	for attempt := 0; attempt < 3; attempt++ {
		entry, err := r.recordAdjustment(in)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return entry, err
	}
	return nil, fmt.Errorf("%w: adjustment ref contention", ErrTransactionAborted)
}

func (r *JournalRepository) recordAdjustment(in AdjustmentInput) (*models.StockAdjustment, error) {
	var entry *models.StockAdjustment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", in.ProductID).Take(&product).Error; err != nil {
			return err
		}
		oldQty := product.Quantity

		refNo, err := r.nextRefNo(tx)
		if err != nil {
			return err
		}

		ledger := NewLedgerRepository(tx)
		unattributed := false

		switch {
		case in.SerialID != nil:
			if product.TrackingType != models.TrackingSerial {
				return fmt.Errorf("product %d is not serial-tracked", in.ProductID)
			}
			if in.Delta != -1 {
				// a serial is one unit and lost is terminal
				return ErrInvalidSerialState
			}
			var serial models.Serial
			if err := tx.Where("id = ? AND product_id = ?", *in.SerialID, in.ProductID).Take(&serial).Error; err != nil {
				return err
			}
			if err := ledger.flipSerial(tx, serial.ID, models.SerialAvailable, models.SerialLost, in.Actor); err != nil {
				return err
			}
			if err := ledger.insertMovement(tx, Mutation{
				ProductID: in.ProductID,
				BatchID:   &serial.BatchID,
				SerialID:  in.SerialID,
				Trans:     models.TransAdjustment,
				RefNo:     refNo,
				Actor:     in.Actor,
			}, -1); err != nil {
				return err
			}

		case in.BatchID != nil:
			if product.TrackingType != models.TrackingBatch {
				return fmt.Errorf("product %d is not batch-tracked", in.ProductID)
			}
			mutation := Mutation{
				ProductID: in.ProductID,
				BatchID:   in.BatchID,
				Trans:     models.TransAdjustment,
				RefNo:     refNo,
				Actor:     in.Actor,
			}
			if in.Delta < 0 {
				mutation.Qty = -in.Delta
				if err := ledger.Decrement(mutation); err != nil {
					return err
				}
			} else {
				mutation.Qty = in.Delta
				if err := ledger.Increment(mutation); err != nil {
					return err
				}
			}

		default:
			if product.TrackingType == models.TrackingNone {
				mutation := Mutation{
					ProductID: in.ProductID,
					Trans:     models.TransAdjustment,
					RefNo:     refNo,
					Actor:     in.Actor,
				}
				if in.Delta < 0 {
					mutation.Qty = -in.Delta
					if err := ledger.Decrement(mutation); err != nil {
						return err
					}
				} else {
					mutation.Qty = in.Delta
					if err := ledger.Increment(mutation); err != nil {
						return err
					}
				}
				break
			}

			if in.Delta > 0 {
				return fmt.Errorf("found stock on a %s-tracked product must name a batch", product.TrackingType)
			}

			// Unattributed loss: aggregate only, flagged, sub-ledgers untouched.
			unattributed = true
			q := tx.Model(&models.Product{}).Where("id = ?", in.ProductID)
			if !models.SettingBool(tx, models.SettingAllowNegativeStock) {
				q = q.Where("quantity >= ?", -in.Delta)
			}
			res := q.Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", in.Delta),
				"updated_by": in.Actor,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientStock
			}
			if err := ledger.insertMovement(tx, Mutation{
				ProductID: in.ProductID,
				Trans:     models.TransAdjustment,
				RefNo:     refNo,
				Actor:     in.Actor,
			}, in.Delta); err != nil {
				return err
			}
		}

		var after models.Product
		if err := tx.Where("id = ?", in.ProductID).Take(&after).Error; err != nil {
			return err
		}

		entry = &models.StockAdjustment{
			RefNo:        refNo,
			ProductID:    in.ProductID,
			BatchID:      in.BatchID,
			SerialID:     in.SerialID,
			Category:     in.Category,
			OldQuantity:  oldQty,
			NewQuantity:  after.Quantity,
			Delta:        in.Delta,
			Reason:       in.Reason,
			Unattributed: unattributed,
			CreatedBy:    in.Actor,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByProduct returns journal entries for a product, newest first.
func (r *JournalRepository) ListByProduct(productID uint, limit int) ([]models.StockAdjustment, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.StockAdjustment
	err := r.db.Where("product_id = ?", productID).Order("id desc").Limit(limit).Find(&entries).Error
	return entries, err
}

// nextRefNo generates the next adjustment reference, ADJ + date + sequence.
func (r *JournalRepository) nextRefNo(tx *gorm.DB) (string, error) {
	var last models.StockAdjustment
	if err := tx.Last(&last).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	currentDate := time.Now().Format("20060102")
	if last.RefNo == "" || len(last.RefNo) < 15 || last.RefNo[3:11] != currentDate {
		return fmt.Sprintf("ADJ%s%04d", currentDate, 1), nil
	}

	lastSeq, _ := strconv.Atoi(last.RefNo[len(last.RefNo)-4:])
	return fmt.Sprintf("ADJ%s%04d", currentDate, lastSeq+1), nil
}
