package repositories

import (
	"fmt"
	"testing"
	"time"

	"ledger-app/controllers/idgen"
	"ledger-app/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. The named DSN keeps
// every pooled connection on the same database for the test's lifetime.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Batch{},
		&models.Serial{},
		&models.StockMovement{},
		&models.StockAdjustment{},
		&models.SyncOrigin{},
		&models.ShopSetting{},
	))
	return db
}

func createProduct(t *testing.T, db *gorm.DB, code string, tracking models.TrackingType, qty int) *models.Product {
	t.Helper()
	product := &models.Product{
		ItemCode:     code,
		ItemName:     "Test " + code,
		Barcode:      "BC-" + code,
		TrackingType: tracking,
		Quantity:     qty,
		Mrp:          100,
		Mop:          90,
		Cost:         60,
		IsActive:     true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// createBatch seeds a lot and bumps the product aggregate to match.
func createBatch(t *testing.T, db *gorm.DB, productID uint, number string, qty int) *models.Batch {
	t.Helper()
	batch := &models.Batch{
		ProductID:   productID,
		BatchNumber: number,
		BatchUID:    idgen.BatchUID(),
		Quantity:    qty,
		Mrp:         100,
		Cost:        60,
		IsActive:    true,
	}
	require.NoError(t, db.Create(batch).Error)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", productID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error)
	return batch
}

func createSerial(t *testing.T, db *gorm.DB, batch *models.Batch, sn string) *models.Serial {
	t.Helper()
	serial := &models.Serial{
		ProductID:    batch.ProductID,
		BatchID:      batch.ID,
		SerialNumber: sn,
		Code:         models.SerialCode(batch.BatchUID, sn),
		Status:       models.SerialAvailable,
	}
	require.NoError(t, db.Create(serial).Error)
	return serial
}

func setSetting(t *testing.T, db *gorm.DB, key, value string) {
	t.Helper()
	require.NoError(t, db.Create(&models.ShopSetting{Key: key, Value: value}).Error)
}

func productQty(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.Where("id = ?", id).Take(&product).Error)
	return product.Quantity
}

func movementSum(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var sum *int
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("product_id = ?", productID).Select("sum(qty)").Scan(&sum).Error)
	if sum == nil {
		return 0
	}
	return *sum
}

func movementCount(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("product_id = ?", productID).Count(&count).Error)
	return int(count)
}
