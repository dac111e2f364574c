package recompute

import (
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"gorm.io/gorm"
)

// Композируемые GORM-scope'ы, из которых собирается выборка кандидатов.
// VisibleRetailers — реляционная форма предиката видимости; ее эквивалентность
// построчному domain.Visible проверяется тестом на переборе комбинаций.

// VisibleRetailers: eligibility = ELIGIBLE и (нет ни одной ACTIVE-связи,
// либо есть хотя бы одна ACTIVE+LISTED). Ожидает JOIN retailer_models.
func VisibleRetailers(db *gorm.DB) *gorm.DB {
	return db.
		Where("retailer_models.eligibility = ?", domain.EligibilityEligible).
		Where(`(NOT EXISTS (
			SELECT 1 FROM merchant_retailer_relationship_models rel
			WHERE rel.retailer_id = retailer_models.id AND rel.status = ?
		) OR EXISTS (
			SELECT 1 FROM merchant_retailer_relationship_models rel
			WHERE rel.retailer_id = retailer_models.id AND rel.status = ? AND rel.listing_status = ?
		))`, domain.RelationshipActive, domain.RelationshipActive, domain.ListingListed)
}

// WithinLookback отсекает наблюдения старше окна ретроспективы
func WithinLookback(cutoff time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("price_observation_models.observed_at > ?", cutoff)
	}
}

// RunNotIgnored исключает наблюдения из прогонов инжеста, помеченных ignored
func RunNotIgnored(db *gorm.DB) *gorm.DB {
	return db.Where(`NOT EXISTS (
		SELECT 1 FROM ingestion_run_models run
		WHERE run.id = price_observation_models.run_id AND run.ignored = ?
	)`, true)
}

// ObservationScopeFilter — фильтр области пересчета по колонке сырой таблицы
func ObservationScopeFilter(scope domain.RecomputeScope, scopeID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch scope {
		case domain.RecomputeScopeProduct:
			return db.Where("price_observation_models.product_id = ?", scopeID)
		case domain.RecomputeScopeRetailer:
			return db.Where("price_observation_models.retailer_id = ?", scopeID)
		case domain.RecomputeScopeSource:
			return db.Where("price_observation_models.source_id = ?", scopeID)
		}
		// FULL — без фильтра
		return db
	}
}

// DerivedScopeFilter — тот же фильтр для производной таблицы
func DerivedScopeFilter(scope domain.RecomputeScope, scopeID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch scope {
		case domain.RecomputeScopeProduct:
			return db.Where("product_id = ?", scopeID)
		case domain.RecomputeScopeRetailer:
			return db.Where("retailer_id = ?", scopeID)
		case domain.RecomputeScopeSource:
			return db.Where("source_id = ?", scopeID)
		}
		return db
	}
}
