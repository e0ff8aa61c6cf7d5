package repositories

import (
	"strings"
	"testing"

	"ledger-app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePlainProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "SOAP-01", models.TrackingNone, 3)

	batch, err := repo.Allocate(AllocationInput{ProductID: product.ID, Qty: 12, RefNo: "GRN-1", Actor: 1})
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Equal(t, 15, productQty(t, db, product.ID))

	var movement models.StockMovement
	require.NoError(t, db.Where("product_id = ?", product.ID).Take(&movement).Error)
	assert.Equal(t, 12, movement.Qty)
	assert.Equal(t, models.TransPurchase, movement.Trans)
}

func TestAllocateBatchMintsUID(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)

	batch, err := repo.Allocate(AllocationInput{
		ProductID:   product.ID,
		Qty:         50,
		BatchNumber: "LOT-2026-08",
		ExpDate:     "2027-08-01",
		Supplier:    "Acme Pharma",
		Cost:        42,
		Actor:       1,
	})
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.True(t, strings.HasPrefix(batch.BatchUID, "BT"))
	assert.Equal(t, 50, batch.Quantity)
	assert.Equal(t, 42.0, batch.Cost)
	assert.Equal(t, 50, productQty(t, db, product.ID))
}

func TestAllocateBatchTopsUpExisting(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)

	first, err := repo.Allocate(AllocationInput{ProductID: product.ID, Qty: 30, BatchNumber: "LOT-A", Actor: 1})
	require.NoError(t, err)
	second, err := repo.Allocate(AllocationInput{ProductID: product.ID, Qty: 20, BatchNumber: "LOT-A", Actor: 1})
	require.NoError(t, err)

	// same label lands in the same lot, no sibling row
	assert.Equal(t, first.ID, second.ID)
	var count int64
	require.NoError(t, db.Model(&models.Batch{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var batch models.Batch
	require.NoError(t, db.Where("id = ?", first.ID).Take(&batch).Error)
	assert.Equal(t, 50, batch.Quantity)
	assert.Equal(t, 50, productQty(t, db, product.ID))
	assert.Equal(t, 50, movementSum(t, db, product.ID))
}

func TestAllocateBatchRequiresNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)

	_, err := repo.Allocate(AllocationInput{ProductID: product.ID, Qty: 10, Actor: 1})
	require.Error(t, err)
	assert.Equal(t, 0, productQty(t, db, product.ID))
}

func TestAllocateBatchPriceDefaults(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)

	batch, err := repo.Allocate(AllocationInput{ProductID: product.ID, Qty: 5, BatchNumber: "LOT-A", Actor: 1})
	require.NoError(t, err)

	// unspecified prices snapshot the product's current ones
	assert.Equal(t, product.Mrp, batch.Mrp)
	assert.Equal(t, product.Mop, batch.Mop)
	assert.Equal(t, product.Cost, batch.Cost)
}

func TestAllocateSerialsMintsUnits(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)

	batch, err := repo.Allocate(AllocationInput{
		ProductID:   product.ID,
		Qty:         3,
		BatchNumber: "LOT-S1",
		Serials:     []string{"SN-001", "SN-002", "SN-003"},
		Actor:       1,
	})
	require.NoError(t, err)
	require.NotNil(t, batch)

	var serials []models.Serial
	require.NoError(t, db.Where("product_id = ?", product.ID).Order("id").Find(&serials).Error)
	require.Len(t, serials, 3)
	for _, s := range serials {
		assert.Equal(t, models.SerialAvailable, s.Status)
		assert.Equal(t, models.SerialCode(batch.BatchUID, s.SerialNumber), s.Code)
	}

	// lot quantity mirrors the serial count and the aggregate follows
	assert.Equal(t, 3, batch.Quantity)
	assert.Equal(t, 3, productQty(t, db, product.ID))
}

func TestAllocateSerialCountMismatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)

	_, err := repo.Allocate(AllocationInput{
		ProductID:   product.ID,
		Qty:         3,
		BatchNumber: "LOT-S1",
		Serials:     []string{"SN-001", "SN-002"},
		Actor:       1,
	})
	require.ErrorIs(t, err, ErrSerialCountMismatch)
}

func TestAllocateDuplicateSerialInRequest(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)

	_, err := repo.Allocate(AllocationInput{
		ProductID:   product.ID,
		Qty:         2,
		BatchNumber: "LOT-S1",
		Serials:     []string{"SN-001", "SN-001"},
		Actor:       1,
	})
	require.ErrorIs(t, err, ErrDuplicateSerial)
}

func TestAllocateDuplicateSerialGlobal(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)

	_, err := repo.Allocate(AllocationInput{
		ProductID:   product.ID,
		Qty:         1,
		BatchNumber: "LOT-S1",
		Serials:     []string{"SN-001"},
		Actor:       1,
	})
	require.NoError(t, err)

	_, err = repo.Allocate(AllocationInput{
		ProductID:   product.ID,
		Qty:         2,
		BatchNumber: "LOT-S2",
		Serials:     []string{"SN-100", "SN-001"},
		Actor:       1,
	})
	require.ErrorIs(t, err, ErrDuplicateSerial)

	// the whole receipt rolled back, SN-100 was not minted
	var count int64
	require.NoError(t, db.Model(&models.Serial{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 1, productQty(t, db, product.ID))
}

func TestMintDuplicateSerialMapsToSentinel(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)
	batch := createBatch(t, db, product.ID, "LOT-A", 0)
	createSerial(t, db, batch, "SN-001")

	// a writer that slips past the pre-check still gets the sentinel when
	// the unique index rejects the insert, not a raw driver error
	err := createSerialRow(db, &models.Serial{
		ProductID:    product.ID,
		BatchID:      batch.ID,
		SerialNumber: "SN-001",
		Code:         models.SerialCode(batch.BatchUID, "SN-001"),
		Status:       models.SerialAvailable,
	})
	require.ErrorIs(t, err, ErrDuplicateSerial)
}

func TestAllocateRejectsNonPositiveQty(t *testing.T) {
	db := newTestDB(t)
	repo := NewAllocationRepository(db)
	product := createProduct(t, db, "SOAP-01", models.TrackingNone, 0)

	_, err := repo.Allocate(AllocationInput{ProductID: product.ID, Qty: 0, Actor: 1})
	require.Error(t, err)
	_, err = repo.Allocate(AllocationInput{ProductID: product.ID, Qty: -4, Actor: 1})
	require.Error(t, err)
}
