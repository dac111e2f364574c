package postgres

import (
	"log"

	"github.com/LavaJover/shvark-price-service/internal/config"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.PriceConfig) *gorm.DB {
	dsn := cfg.PriceDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.RetailerModel{},
		&models.MerchantRetailerRelationshipModel{},
		&models.ProductModel{},
		&models.MerchantModel{},
		&models.SourceModel{},
		&models.AffiliateModel{},
		&models.IngestionRunModel{},
		&models.PriceObservationModel{},
		&models.CorrectionModel{},
		&models.VisiblePriceRowModel{},
		&models.RecomputeJobModel{},
		&models.RecomputeOutboxModel{},
		&models.ScheduledTaskModel{},
		&models.CorrectionEventModel{},
	)

	return db
}
