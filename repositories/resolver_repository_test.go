package repositories

import (
	"testing"

	"ledger-app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSerialCode(t *testing.T) {
	db := newTestDB(t)
	repo := NewResolverRepository(db)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)
	batch := createBatch(t, db, product.ID, "LOT-A", 0)
	serial := createSerial(t, db, batch, "SN-001")

	resolved, err := repo.Resolve(serial.Code)
	require.NoError(t, err)
	assert.Equal(t, ResolvedSerial, resolved.Type)
	require.NotNil(t, resolved.Serial)
	require.NotNil(t, resolved.Batch)
	assert.Equal(t, serial.ID, resolved.Serial.ID)
	assert.Equal(t, batch.ID, resolved.Batch.ID)
	assert.Equal(t, product.ID, resolved.Product.ID)
}

func TestResolveBatchUID(t *testing.T) {
	db := newTestDB(t)
	repo := NewResolverRepository(db)
	product := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)
	batch := createBatch(t, db, product.ID, "LOT-A", 10)

	resolved, err := repo.Resolve(batch.BatchUID)
	require.NoError(t, err)
	assert.Equal(t, ResolvedBatch, resolved.Type)
	require.NotNil(t, resolved.Batch)
	assert.Nil(t, resolved.Serial)
	assert.Equal(t, batch.ID, resolved.Batch.ID)
	assert.Equal(t, product.ID, resolved.Product.ID)
}

func TestResolveProductCodes(t *testing.T) {
	db := newTestDB(t)
	repo := NewResolverRepository(db)
	product := createProduct(t, db, "SOAP-01", models.TrackingNone, 5)

	// both the barcode and the item code reach the same product
	for _, code := range []string{product.Barcode, product.ItemCode} {
		resolved, err := repo.Resolve(code)
		require.NoError(t, err)
		assert.Equal(t, ResolvedProduct, resolved.Type)
		assert.Equal(t, product.ID, resolved.Product.ID)
		assert.Nil(t, resolved.Batch)
		assert.Nil(t, resolved.Serial)
	}
}

func TestResolveNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewResolverRepository(db)
	createProduct(t, db, "SOAP-01", models.TrackingNone, 5)

	_, err := repo.Resolve("NO-SUCH-CODE")
	require.ErrorIs(t, err, ErrCodeNotFound)

	_, err = repo.Resolve("")
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCheckNamespacesClean(t *testing.T) {
	db := newTestDB(t)
	repo := NewResolverRepository(db)
	product := createProduct(t, db, "PHONE-A1", models.TrackingSerial, 0)
	batch := createBatch(t, db, product.ID, "LOT-A", 0)
	createSerial(t, db, batch, "SN-001")

	require.NoError(t, repo.CheckNamespaces())
}

func TestCheckNamespacesReportsCollision(t *testing.T) {
	db := newTestDB(t)
	repo := NewResolverRepository(db)
	product := createProduct(t, db, "PARA-500", models.TrackingBatch, 0)
	batch := createBatch(t, db, product.ID, "LOT-A", 10)

	// a product whose barcode shadows a batch uid is a configuration defect
	collider := createProduct(t, db, "SOAP-01", models.TrackingNone, 0)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", collider.ID).
		Update("barcode", batch.BatchUID).Error)

	err := repo.CheckNamespaces()
	require.ErrorIs(t, err, ErrNamespaceCollision)
}
