package repositories

import (
	"errors"
	"fmt"

	"ledger-app/models"

	"gorm.io/gorm"
)

// LedgerRepository is the single source of truth for quantities. Every
// mutation runs inside one transaction and performs its availability check
// and write as a single conditional UPDATE, so two concurrent sales can
// never both take the last unit.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Mutation describes one quantity change against a product sub-ledger.
// Qty is always positive; Decrement/Increment supply the sign.
type Mutation struct {
	ProductID uint
	Qty       int
	BatchID   *uint
	SerialID  *uint
	Trans     string
	RefNo     string
	Actor     int
}

type ReconcileResult struct {
	ProductID    uint `json:"product_id"`
	Stored       int  `json:"stored_quantity"`
	Derived      int  `json:"derived_quantity"`
	Unattributed int  `json:"unattributed_delta"`
	Corrected    bool `json:"corrected"`
}

// StockView is the tagged read model for a product's stock: which sub-ledger
// is authoritative depends on Mode, and only that sub-ledger is populated.
type StockView struct {
	Product models.Product      `json:"product"`
	Mode    models.TrackingType `json:"mode"`
	Batches []models.Batch      `json:"batches,omitempty"`
	Serials []models.Serial     `json:"serials,omitempty"`
	Derived int                 `json:"derived_quantity"`
}

// Decrement removes stock from the correct sub-ledger. Fails with
// ErrInsufficientStock unless negative stock is allowed by the shop setting.
// For serial-tracked products Qty must be 1; a named serial that is not
// available (or reserved) fails with ErrInvalidSerialState, while an unnamed
// decrement picks the oldest available serial.
func (r *LedgerRepository) Decrement(m Mutation) error {
	if m.Qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", m.Qty)
	}
	if m.Trans == "" {
		m.Trans = models.TransSale
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", m.ProductID).Take(&product).Error; err != nil {
			return err
		}

		negOK := models.SettingBool(tx, models.SettingAllowNegativeStock)

		switch product.TrackingType {
		case models.TrackingSerial:
			if m.Qty != 1 {
				return ErrInvalidSerialState
			}
			serialID, err := r.sellSerial(tx, &m)
			if err != nil {
				return err
			}
			m.SerialID = &serialID
			if err := r.recountSerialAggregate(tx, m.ProductID, m.Actor); err != nil {
				return err
			}

		case models.TrackingBatch:
			if m.BatchID == nil {
				return fmt.Errorf("batch id required for batch-tracked product %d", m.ProductID)
			}
			q := tx.Model(&models.Batch{}).Where("id = ? AND product_id = ?", *m.BatchID, m.ProductID)
			if !negOK {
				q = q.Where("quantity >= ?", m.Qty)
			}
			res := q.Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity - ?", m.Qty),
				"updated_by": m.Actor,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var batch models.Batch
				if err := tx.Where("id = ? AND product_id = ?", *m.BatchID, m.ProductID).Take(&batch).Error; err != nil {
					return err
				}
				return ErrInsufficientStock
			}
			// A drained batch is deactivated, never deleted, to preserve traceability.
			tx.Model(&models.Batch{}).Where("id = ? AND quantity <= 0", *m.BatchID).Update("is_active", false)

			if err := tx.Model(&models.Product{}).Where("id = ?", m.ProductID).
				Update("quantity", gorm.Expr("quantity - ?", m.Qty)).Error; err != nil {
				return err
			}

		default:
			// an untracked product has no sub-ledger to attribute to
			if m.BatchID != nil || m.SerialID != nil {
				return fmt.Errorf("product %d is not batch- or serial-tracked", m.ProductID)
			}
			q := tx.Model(&models.Product{}).Where("id = ?", m.ProductID)
			if !negOK {
				q = q.Where("quantity >= ?", m.Qty)
			}
			res := q.Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity - ?", m.Qty),
				"updated_by": m.Actor,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientStock
			}
		}

		return r.insertMovement(tx, m, -m.Qty)
	})
}

// Increment is the inverse of Decrement, used for returns and corrections.
// A serial return flips sold back to available.
func (r *LedgerRepository) Increment(m Mutation) error {
	if m.Qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", m.Qty)
	}
	if m.Trans == "" {
		m.Trans = models.TransPurchase
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", m.ProductID).Take(&product).Error; err != nil {
			return err
		}

		switch product.TrackingType {
		case models.TrackingSerial:
			if m.Qty != 1 || m.SerialID == nil {
				return ErrInvalidSerialState
			}
			res := tx.Model(&models.Serial{}).
				Where("id = ? AND product_id = ? AND status = ?", *m.SerialID, m.ProductID, models.SerialSold).
				Updates(map[string]interface{}{"status": models.SerialAvailable, "updated_by": m.Actor})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInvalidSerialState
			}
			if err := r.recountSerialAggregate(tx, m.ProductID, m.Actor); err != nil {
				return err
			}

		case models.TrackingBatch:
			if m.BatchID == nil {
				return fmt.Errorf("batch id required for batch-tracked product %d", m.ProductID)
			}
			res := tx.Model(&models.Batch{}).Where("id = ? AND product_id = ?", *m.BatchID, m.ProductID).
				Updates(map[string]interface{}{
					"quantity":   gorm.Expr("quantity + ?", m.Qty),
					"is_active":  true,
					"updated_by": m.Actor,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", m.ProductID).
				Update("quantity", gorm.Expr("quantity + ?", m.Qty)).Error; err != nil {
				return err
			}

		default:
			if m.BatchID != nil || m.SerialID != nil {
				return fmt.Errorf("product %d is not batch- or serial-tracked", m.ProductID)
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", m.ProductID).
				Update("quantity", gorm.Expr("quantity + ?", m.Qty)).Error; err != nil {
				return err
			}
		}

		return r.insertMovement(tx, m, m.Qty)
	})
}

// ReserveSerial holds an available serial for order fulfillment. A hold is
// not a quantity movement; it only removes the unit from the available count.
func (r *LedgerRepository) ReserveSerial(serialID uint, actor int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return r.flipSerial(tx, serialID, models.SerialAvailable, models.SerialReserved, actor)
	})
}

// ReleaseSerial returns a reserved serial to the available pool.
func (r *LedgerRepository) ReleaseSerial(serialID uint, actor int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return r.flipSerial(tx, serialID, models.SerialReserved, models.SerialAvailable, actor)
	})
}

// Reconcile recomputes the denormalized product quantity from its sub-ledger
// and corrects drift. Journaled unattributed losses exist only in the
// aggregate, so their sum is folded into the derived figure; reconcile must
// never "repair" a loss the journal vouches for. Any correction is recorded
// as a movement so the audit trail stays complete.
func (r *LedgerRepository) Reconcile(productID uint, actor int) (*ReconcileResult, error) {
	result := &ReconcileResult{ProductID: productID}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", productID).Take(&product).Error; err != nil {
			return err
		}
		result.Stored = product.Quantity

		if product.TrackingType == models.TrackingNone {
			result.Derived = product.Quantity
			return nil
		}

		derived, err := r.derivedQuantity(tx, &product)
		if err != nil {
			return err
		}
		unattr, err := r.unattributedDelta(tx, productID)
		if err != nil {
			return err
		}
		result.Unattributed = unattr
		result.Derived = derived + unattr

		if result.Derived == product.Quantity {
			return nil
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", productID).
			Updates(map[string]interface{}{"quantity": result.Derived, "updated_by": actor}).Error; err != nil {
			return err
		}
		result.Corrected = true

		return r.insertMovement(tx, Mutation{
			ProductID: productID,
			Trans:     models.TransReconcile,
			Actor:     actor,
		}, result.Derived-product.Quantity)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetStock returns the tagged stock view for a product: only the
// authoritative sub-ledger for its tracking type is populated.
func (r *LedgerRepository) GetStock(productID uint) (*StockView, error) {
	var product models.Product
	if err := r.db.Where("id = ?", productID).Take(&product).Error; err != nil {
		return nil, err
	}

	view := &StockView{Product: product, Mode: product.TrackingType, Derived: product.Quantity}

	switch product.TrackingType {
	case models.TrackingBatch:
		if err := r.db.Where("product_id = ?", productID).Order("id").Find(&view.Batches).Error; err != nil {
			return nil, err
		}
		view.Derived = 0
		for _, b := range view.Batches {
			if b.IsActive {
				view.Derived += b.Quantity
			}
		}
	case models.TrackingSerial:
		if err := r.db.Where("product_id = ?", productID).Order("id").Find(&view.Serials).Error; err != nil {
			return nil, err
		}
		view.Derived = 0
		for _, s := range view.Serials {
			if s.Status == models.SerialAvailable {
				view.Derived++
			}
		}
	}

	return view, nil
}

// ListMovements returns the movement history for a product, newest first.
func (r *LedgerRepository) ListMovements(productID uint, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var movements []models.StockMovement
	err := r.db.Where("product_id = ?", productID).Order("id desc").Limit(limit).Find(&movements).Error
	return movements, err
}

// sellSerial flips one serial to sold. A named serial must be available or
// reserved; an unnamed decrement walks the oldest available serials until a
// conditional update wins, so a concurrent loser fails instead of overselling.
func (r *LedgerRepository) sellSerial(tx *gorm.DB, m *Mutation) (uint, error) {
	if m.SerialID != nil {
		res := tx.Model(&models.Serial{}).
			Where("id = ? AND product_id = ? AND status IN ?", *m.SerialID, m.ProductID,
				[]string{models.SerialAvailable, models.SerialReserved}).
			Updates(map[string]interface{}{"status": models.SerialSold, "updated_by": m.Actor})
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, ErrInvalidSerialState
		}
		return *m.SerialID, nil
	}

	for attempt := 0; attempt < 3; attempt++ {
		var serial models.Serial
		err := tx.Where("product_id = ? AND status = ?", m.ProductID, models.SerialAvailable).
			Order("id").Take(&serial).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrInsufficientStock
		}
		if err != nil {
			return 0, err
		}

		res := tx.Model(&models.Serial{}).
			Where("id = ? AND status = ?", serial.ID, models.SerialAvailable).
			Updates(map[string]interface{}{"status": models.SerialSold, "updated_by": m.Actor})
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 1 {
			return serial.ID, nil
		}
		// lost the race for this row, try the next candidate
	}
	return 0, ErrInsufficientStock
}

func (r *LedgerRepository) flipSerial(tx *gorm.DB, serialID uint, from, to string, actor int) error {
	res := tx.Model(&models.Serial{}).Where("id = ? AND status = ?", serialID, from).
		Updates(map[string]interface{}{"status": to, "updated_by": actor})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidSerialState
	}

	var serial models.Serial
	if err := tx.Where("id = ?", serialID).Take(&serial).Error; err != nil {
		return err
	}
	return r.recountSerialAggregate(tx, serial.ProductID, actor)
}

// recountSerialAggregate keeps product.quantity equal to the count of
// available serials plus the journaled unattributed losses, which the
// serial rows cannot see.
func (r *LedgerRepository) recountSerialAggregate(tx *gorm.DB, productID uint, actor int) error {
	var available int64
	if err := tx.Model(&models.Serial{}).
		Where("product_id = ? AND status = ?", productID, models.SerialAvailable).
		Count(&available).Error; err != nil {
		return err
	}
	unattr, err := r.unattributedDelta(tx, productID)
	if err != nil {
		return err
	}
	return tx.Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]interface{}{"quantity": int(available) + unattr, "updated_by": actor}).Error
}

// unattributedDelta sums the journaled unattributed losses for a product.
func (r *LedgerRepository) unattributedDelta(tx *gorm.DB, productID uint) (int, error) {
	var sum *int
	if err := tx.Model(&models.StockAdjustment{}).
		Where("product_id = ? AND unattributed = ?", productID, true).
		Select("sum(delta)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *LedgerRepository) derivedQuantity(tx *gorm.DB, product *models.Product) (int, error) {
	switch product.TrackingType {
	case models.TrackingBatch:
		var sum *int
		if err := tx.Model(&models.Batch{}).
			Where("product_id = ? AND is_active = ?", product.ID, true).
			Select("sum(quantity)").Scan(&sum).Error; err != nil {
			return 0, err
		}
		if sum == nil {
			return 0, nil
		}
		return *sum, nil
	case models.TrackingSerial:
		var count int64
		if err := tx.Model(&models.Serial{}).
			Where("product_id = ? AND status = ?", product.ID, models.SerialAvailable).
			Count(&count).Error; err != nil {
			return 0, err
		}
		return int(count), nil
	default:
		return product.Quantity, nil
	}
}

func (r *LedgerRepository) insertMovement(tx *gorm.DB, m Mutation, signedQty int) error {
	movement := models.StockMovement{
		ProductID: m.ProductID,
		BatchID:   m.BatchID,
		SerialID:  m.SerialID,
		Trans:     m.Trans,
		RefNo:     m.RefNo,
		Qty:       signedQty,
		CreatedBy: m.Actor,
	}
	return tx.Create(&movement).Error
}
