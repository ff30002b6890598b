package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockGormDB opens gorm on a sqlmock connection speaking the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens a migrated in-memory database on a single connection
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.ProductModel{},
		&models.MarketplaceJobModel{},
		&models.BatchJobModel{},
		&models.VintedProductModel{},
		&models.VintedOrderModel{},
		&models.VintedOrderItemModel{},
		&models.VintedConversationModel{},
		&models.VintedMessageModel{},
		&models.VintedMappingModel{},
		&models.VintedAttributeModel{},
		&models.EbayProductModel{},
		&models.EbayOrderModel{},
		&models.EbayInquiryModel{},
		&models.EbayBusinessPolicyModel{},
		&models.EbayCredentialModel{},
	))
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX uq_marketplace_jobs_active_product
		ON marketplace_jobs(user_id, marketplace, action, product_id)
		WHERE status IN ('PENDING', 'RUNNING') AND product_id IS NOT NULL AND batch_id IS NULL`).Error)
	return db
}
