package models

import "time"

// PriceObservationModel — append-only лента сырых наблюдений. Пишет ее
// пайплайн инжеста; этот сервис только читает.
type PriceObservationModel struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	ProductID   string    `gorm:"index:idx_obs_product"`
	RetailerID  string    `gorm:"index:idx_obs_retailer"`
	MerchantID  string
	SourceID    string    `gorm:"index:idx_obs_source"`
	AffiliateID string
	ObservedAt  time.Time `gorm:"index:idx_obs_observed_at"`
	Price       float64
	Currency    string
	InStock     bool
	RunType     string
	RunID       string    `gorm:"index:idx_obs_run"`
}
