package models

import (
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
)

type RetailerModel struct {
	ID            string                               `gorm:"primaryKey"`
	Name          string
	Eligibility   domain.RetailerEligibility           `gorm:"index:idx_eligibility"`
	Relationships []MerchantRetailerRelationshipModel  `gorm:"foreignKey:RetailerID;references:ID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MerchantRetailerRelationshipModel struct {
	ID            string                    `gorm:"primaryKey;type:uuid"`
	MerchantID    string                    `gorm:"index:idx_rel_merchant"`
	RetailerID    string                    `gorm:"index:idx_rel_retailer"`
	Status        domain.RelationshipStatus
	ListingStatus domain.ListingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Справочные сущности для валидации областей коррекций.
// Наполняются внешними системами, здесь только чтение.
type ProductModel struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

type MerchantModel struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

type SourceModel struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

type AffiliateModel struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

type IngestionRunModel struct {
	ID        string `gorm:"primaryKey"`
	RunType   string
	StartedAt time.Time
	Ignored   bool `gorm:"index:idx_run_ignored"`
}
