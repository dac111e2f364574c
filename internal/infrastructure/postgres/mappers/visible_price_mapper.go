package mappers

import (
	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
)

func ToDomainVisiblePriceRow(model *models.VisiblePriceRowModel) *domain.VisiblePriceRow {
	return &domain.VisiblePriceRow{
		ID: model.ID,
		ProductID: model.ProductID,
		RetailerID: model.RetailerID,
		MerchantID: model.MerchantID,
		SourceID: model.SourceID,
		AffiliateID: model.AffiliateID,
		RawPrice: model.RawPrice,
		AppliedMultiplier: model.AppliedMultiplier,
		VisiblePrice: model.VisiblePrice,
		Currency: model.Currency,
		InStock: model.InStock,
		ObservedAt: model.ObservedAt,
		RunType: model.RunType,
		RunID: model.RunID,
		RecomputedAt: model.RecomputedAt,
		RecomputeJobID: model.RecomputeJobID,
	}
}
