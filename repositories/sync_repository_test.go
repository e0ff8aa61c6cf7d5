package repositories

import (
	"testing"
	"time"

	"ledger-app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullFirstSyncSnapshot(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)

	live := createProduct(t, db, "SOAP-01", models.TrackingNone, 5)
	inactive := createProduct(t, db, "SOAP-02", models.TrackingNone, 0)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	batched := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)
	batch := createBatch(t, db, batched.ID, "LOT-A", 10)
	drained := createBatch(t, db, batched.ID, "LOT-B", 0)
	require.NoError(t, db.Model(&models.Batch{}).Where("id = ?", drained.ID).Update("is_active", false).Error)

	serialed := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)
	sb := createBatch(t, db, serialed.ID, "LOT-S", 1)
	available := createSerial(t, db, sb, "SN-001")
	sold := createSerial(t, db, sb, "SN-002")
	require.NoError(t, db.Model(&models.Serial{}).Where("id = ?", sold.ID).Update("status", models.SerialSold).Error)

	time.Sleep(5 * time.Millisecond)

	result, err := repo.Pull(0, true)
	require.NoError(t, err)
	assert.Greater(t, result.Timestamp, int64(0))

	// snapshot carries live rows only, all in created
	productIDs := make([]string, 0)
	for _, p := range result.Changes.Products.Created {
		productIDs = append(productIDs, p.ID)
	}
	assert.Contains(t, productIDs, formatID(live.ID))
	assert.Contains(t, productIDs, formatID(batched.ID))
	assert.Contains(t, productIDs, formatID(serialed.ID))
	assert.NotContains(t, productIDs, formatID(inactive.ID))

	require.Len(t, result.Changes.ProductBatches.Created, 2)
	batchIDs := []string{result.Changes.ProductBatches.Created[0].ID, result.Changes.ProductBatches.Created[1].ID}
	assert.Contains(t, batchIDs, formatID(batch.ID))
	assert.NotContains(t, batchIDs, formatID(drained.ID))

	require.Len(t, result.Changes.ProductSerials.Created, 1)
	assert.Equal(t, formatID(available.ID), result.Changes.ProductSerials.Created[0].ID)

	assert.Empty(t, result.Changes.Products.Updated)
	assert.Empty(t, result.Changes.Products.Deleted)
}

func TestPullIncremental(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)

	product := createProduct(t, db, "SOAP-01", models.TrackingNone, 5)
	stale := createProduct(t, db, "SOAP-02", models.TrackingNone, 3)
	batched := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)
	batch := createBatch(t, db, batched.ID, "LOT-A", 10)

	time.Sleep(5 * time.Millisecond)
	first, err := repo.Pull(0, false)
	require.NoError(t, err)
	cursor := first.Timestamp

	// nothing changed since the cursor, the window is empty
	time.Sleep(5 * time.Millisecond)
	empty, err := repo.Pull(cursor, false)
	require.NoError(t, err)
	assert.Empty(t, empty.Changes.Products.Created)
	assert.Empty(t, empty.Changes.Products.Updated)
	assert.Empty(t, empty.Changes.Products.Deleted)
	assert.Empty(t, empty.Changes.ProductBatches.Updated)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("quantity", 4).Error)
	require.NoError(t, db.Delete(&models.Batch{}, batch.ID).Error)
	fresh := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)

	second, err := repo.Pull(cursor, false)
	require.NoError(t, err)

	require.Len(t, second.Changes.Products.Updated, 1)
	assert.Equal(t, formatID(product.ID), second.Changes.Products.Updated[0].ID)
	assert.Equal(t, 4, second.Changes.Products.Updated[0].Quantity)

	require.Len(t, second.Changes.Products.Created, 1)
	assert.Equal(t, formatID(fresh.ID), second.Changes.Products.Created[0].ID)

	// the soft delete surfaces as a tombstone, not an update
	require.Len(t, second.Changes.ProductBatches.Deleted, 1)
	assert.Equal(t, formatID(batch.ID), second.Changes.ProductBatches.Deleted[0])
	assert.Empty(t, second.Changes.ProductBatches.Updated)

	// the untouched product stays out of the window
	for _, p := range second.Changes.Products.Updated {
		assert.NotEqual(t, formatID(stale.ID), p.ID)
	}
}

func TestPullIsReadOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)

	createProduct(t, db, "SOAP-01", models.TrackingNone, 5)
	batched := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)
	createBatch(t, db, batched.ID, "LOT-A", 10)

	time.Sleep(5 * time.Millisecond)

	// the same cursor yields the same change set every time
	first, err := repo.Pull(0, false)
	require.NoError(t, err)
	second, err := repo.Pull(0, false)
	require.NoError(t, err)
	assert.Equal(t, first.Changes, second.Changes)
}

func TestPushCreatesHierarchy(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)

	ack, err := repo.Push(PushChanges{
		Products: []PushProduct{{
			ID:           "local-p1",
			ItemCode:     "PHONE-A1",
			ItemName:     "Phone A1",
			TrackingType: "serial",
		}},
		ProductBatches: []PushBatch{{
			ID:          "local-b1",
			ProductID:   "local-p1",
			BatchNumber: "LOT-S1",
			Supplier:    "Acme",
		}},
		ProductSerials: []PushSerial{{
			ID:           "local-s1",
			ProductID:    "local-p1",
			BatchID:      "local-b1",
			SerialNumber: "SN-001",
		}},
	}, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, "ok", ack.Status)
	assert.NotZero(t, ack.Receipt)
	require.Len(t, ack.IDMap, 3)

	var product models.Product
	require.NoError(t, db.Where("item_code = ?", "PHONE-A1").Take(&product).Error)
	assert.Equal(t, formatID(product.ID), ack.IDMap["local-p1"])
	assert.Equal(t, models.TrackingSerial, product.TrackingType)
	assert.Equal(t, 7, product.CreatedBy)

	var batch models.Batch
	require.NoError(t, db.Where("product_id = ?", product.ID).Take(&batch).Error)
	assert.Equal(t, formatID(batch.ID), ack.IDMap["local-b1"])
	assert.NotEmpty(t, batch.BatchUID)

	// the serial relinked to its in-payload parents and got a server code
	var serial models.Serial
	require.NoError(t, db.Where("serial_number = ?", "SN-001").Take(&serial).Error)
	assert.Equal(t, product.ID, serial.ProductID)
	assert.Equal(t, batch.ID, serial.BatchID)
	assert.Equal(t, models.SerialCode(batch.BatchUID, "SN-001"), serial.Code)
}

func TestPushMovementReplaysThroughLedger(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)
	product := createProduct(t, db, "SOAP-01", models.TrackingNone, 10)

	ack, err := repo.Push(PushChanges{
		StockMovements: []PushMovement{{
			ID:        "local-m1",
			ProductID: formatID(product.ID),
			Trans:     models.TransSale,
			RefNo:     "POS-77",
			Qty:       -4,
		}},
	}, 0, 7)
	require.NoError(t, err)
	require.Contains(t, ack.IDMap, "local-m1")

	assert.Equal(t, 6, productQty(t, db, product.ID))

	var movement models.StockMovement
	require.NoError(t, db.Where("product_id = ? AND ref_no = ?", product.ID, "POS-77").Take(&movement).Error)
	assert.Equal(t, -4, movement.Qty)
	assert.Equal(t, models.TransSale, movement.Trans)
	assert.Equal(t, formatID(movement.ID), ack.IDMap["local-m1"])
}

func TestPushRetryIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)
	product := createProduct(t, db, "SOAP-01", models.TrackingNone, 10)

	payload := PushChanges{
		Products: []PushProduct{{ID: "local-p1", ItemCode: "SOAP-02", ItemName: "Soap 2"}},
		StockMovements: []PushMovement{{
			ID:        "local-m1",
			ProductID: formatID(product.ID),
			Trans:     models.TransSale,
			RefNo:     "POS-1",
			Qty:       -2,
		}},
	}

	first, err := repo.Push(payload, 0, 7)
	require.NoError(t, err)

	// a wholesale retry after a lost ack re-acks without re-applying
	second, err := repo.Push(payload, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, first.IDMap, second.IDMap)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Where("item_code = ?", "SOAP-02").Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 8, productQty(t, db, product.ID))
	assert.Equal(t, 1, movementCount(t, db, product.ID))
}

func TestPushIsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)
	product := createProduct(t, db, "SOAP-01", models.TrackingNone, 3)

	_, err := repo.Push(PushChanges{
		Products: []PushProduct{{ID: "local-p1", ItemCode: "SOAP-02", ItemName: "Soap 2"}},
		StockMovements: []PushMovement{{
			ID:        "local-m1",
			ProductID: formatID(product.ID),
			Trans:     models.TransSale,
			RefNo:     "POS-1",
			Qty:       -5,
		}},
	}, 0, 7)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// the earlier valid record rolled back with the bad one
	var count int64
	require.NoError(t, db.Model(&models.Product{}).Where("item_code = ?", "SOAP-02").Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.SyncOrigin{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 3, productQty(t, db, product.ID))
}

func TestPushRejectsDuplicateSerial(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)
	batch := createBatch(t, db, product.ID, "LOT-A", 0)
	createSerial(t, db, batch, "SN-001")

	_, err := repo.Push(PushChanges{
		ProductSerials: []PushSerial{{
			ID:           "local-s1",
			ProductID:    formatID(product.ID),
			BatchID:      formatID(batch.ID),
			SerialNumber: "SN-001",
		}},
	}, 0, 7)
	require.ErrorIs(t, err, ErrDuplicateSerial)
}

func TestPushResolvesNumericServerRefs(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)
	product := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)

	ack, err := repo.Push(PushChanges{
		ProductBatches: []PushBatch{{
			ID:          "local-b1",
			ProductID:   formatID(product.ID),
			BatchNumber: "LOT-A",
		}},
	}, 0, 7)
	require.NoError(t, err)

	var batch models.Batch
	require.NoError(t, db.Where("product_id = ?", product.ID).Take(&batch).Error)
	assert.Equal(t, formatID(batch.ID), ack.IDMap["local-b1"])
}

func TestPushRejectsUnresolvableRef(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)

	_, err := repo.Push(PushChanges{
		ProductBatches: []PushBatch{{
			ID:          "local-b1",
			ProductID:   "ghost-ref",
			BatchNumber: "LOT-A",
		}},
	}, 0, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolvable")
}

func TestPushRejectsMissingClientID(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)

	_, err := repo.Push(PushChanges{
		Products: []PushProduct{{ItemCode: "SOAP-01"}},
	}, 0, 7)
	require.Error(t, err)
}
