package repositories

import (
	"errors"
	"fmt"

	"ledger-app/models"

	"gorm.io/gorm"
)

// ResolverRepository maps a scanned or typed code to exactly one entity.
// Resolution order is most specific first: serial composite code, then batch
// uid, then product barcode or item code.
type ResolverRepository struct {
	db *gorm.DB
}

func NewResolverRepository(db *gorm.DB) *ResolverRepository {
	return &ResolverRepository{db: db}
}

const (
	ResolvedSerial  = "serial"
	ResolvedBatch   = "batch"
	ResolvedProduct = "product"
)

type ResolvedCode struct {
	Type    string         `json:"type"`
	Product models.Product `json:"product"`
	Batch   *models.Batch  `json:"batch,omitempty"`
	Serial  *models.Serial `json:"serial,omitempty"`
}

// Resolve returns the entity a code identifies, or ErrCodeNotFound.
func (r *ResolverRepository) Resolve(code string) (*ResolvedCode, error) {
	if code == "" {
		return nil, ErrCodeNotFound
	}

	var serial models.Serial
	err := r.db.Where("code = ?", code).Take(&serial).Error
	if err == nil {
		result := &ResolvedCode{Type: ResolvedSerial, Serial: &serial}
		var batch models.Batch
		if err := r.db.Where("id = ?", serial.BatchID).Take(&batch).Error; err != nil {
			return nil, err
		}
		result.Batch = &batch
		if err := r.db.Where("id = ?", serial.ProductID).Take(&result.Product).Error; err != nil {
			return nil, err
		}
		return result, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var batch models.Batch
	err = r.db.Where("batch_uid = ?", code).Take(&batch).Error
	if err == nil {
		result := &ResolvedCode{Type: ResolvedBatch, Batch: &batch}
		if err := r.db.Where("id = ?", batch.ProductID).Take(&result.Product).Error; err != nil {
			return nil, err
		}
		return result, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var product models.Product
	err = r.db.Where("barcode = ? OR item_code = ?", code, code).Take(&product).Error
	if err == nil {
		return &ResolvedCode{Type: ResolvedProduct, Product: product}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return nil, ErrCodeNotFound
}

// CheckNamespaces scans for codes registered in more than one tier. The
// tiers are disjoint by construction (batch uids and serial codes carry
// minted prefixes), so any overlap is a configuration defect, reported at
// startup rather than silently preferred at scan time.
func (r *ResolverRepository) CheckNamespaces() error {
	collisions := []struct {
		query string
		label string
	}{
		{
			query: `SELECT b.batch_uid FROM batches b
				JOIN products p ON p.barcode = b.batch_uid OR p.item_code = b.batch_uid
				WHERE b.deleted_at IS NULL AND p.deleted_at IS NULL`,
			label: "batch uid registered as product code",
		},
		{
			query: `SELECT s.code FROM serials s
				JOIN products p ON p.barcode = s.code OR p.item_code = s.code
				WHERE s.deleted_at IS NULL AND p.deleted_at IS NULL`,
			label: "serial code registered as product code",
		},
		{
			query: `SELECT s.code FROM serials s
				JOIN batches b ON b.batch_uid = s.code
				WHERE s.deleted_at IS NULL AND b.deleted_at IS NULL`,
			label: "serial code registered as batch uid",
		},
	}

	for _, c := range collisions {
		var codes []string
		if err := r.db.Raw(c.query).Scan(&codes).Error; err != nil {
			return err
		}
		if len(codes) > 0 {
			return fmt.Errorf("%w: %s (%s)", ErrNamespaceCollision, codes[0], c.label)
		}
	}
	return nil
}
