package models

import "time"

// VisiblePriceRowModel — производная таблица видимых цен. ID равен id
// наблюдения: повторная вставка той же строки отсекается по primary key.
// Пишет сюда только движок пересчета.
type VisiblePriceRowModel struct {
	ID                string    `gorm:"primaryKey;type:uuid"`
	ProductID         string    `gorm:"index:idx_vp_product"`
	RetailerID        string    `gorm:"index:idx_vp_retailer"`
	MerchantID        string
	SourceID          string    `gorm:"index:idx_vp_source"`
	AffiliateID       string
	RawPrice          float64
	AppliedMultiplier float64
	VisiblePrice      float64
	Currency          string
	InStock           bool
	ObservedAt        time.Time
	RunType           string
	RunID             string
	RecomputedAt      time.Time
	RecomputeJobID    string `gorm:"type:uuid"`
}
