package domain

import "time"

// VisiblePriceRow — строка производной таблицы видимых цен. ID совпадает с id
// исходного наблюдения, что делает батчевую вставку идемпотентной.
// Таблица переписывается движком пересчета целиком по области, никогда
// не патчится поштучно; все остальные компоненты читают ее как есть.
type VisiblePriceRow struct {
	ID                string
	ProductID         string
	RetailerID        string
	MerchantID        string
	SourceID          string
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
	RecomputeJobID    string
}

type VisiblePriceFilter struct {
	ProductID  string
	RetailerID string
	Currency   string
}

type VisiblePriceRepository interface {
	ListVisiblePrices(filter VisiblePriceFilter, limit int32) ([]*VisiblePriceRow, error)
}
