package domain

import "time"

// PriceObservation — сырое наблюдение цены из пайплайна инжеста.
// Таблица append-only и принадлежит внешней системе: здесь только чтение.
type PriceObservation struct {
	ID          string
	ProductID   string
	RetailerID  string
	MerchantID  string
	SourceID    string
	AffiliateID string
	ObservedAt  time.Time
	Price       float64
	Currency    string
	InStock     bool
	RunType     string
	RunID       string
}

type IngestionRun struct {
	ID        string
	RunType   string
	StartedAt time.Time
	Ignored   bool
}
