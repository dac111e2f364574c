package mappers

import (
	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
)

func ToDomainObservation(model *models.PriceObservationModel) *domain.PriceObservation {
	return &domain.PriceObservation{
		ID: model.ID,
		ProductID: model.ProductID,
		RetailerID: model.RetailerID,
		MerchantID: model.MerchantID,
		SourceID: model.SourceID,
		AffiliateID: model.AffiliateID,
		ObservedAt: model.ObservedAt,
		Price: model.Price,
		Currency: model.Currency,
		InStock: model.InStock,
		RunType: model.RunType,
		RunID: model.RunID,
	}
}

func ToDomainRetailer(model *models.RetailerModel) *domain.Retailer {
	relationships := make([]domain.MerchantRetailerRelationship, len(model.Relationships))
	for i, rel := range model.Relationships {
		relationships[i] = domain.MerchantRetailerRelationship{
			ID: rel.ID,
			MerchantID: rel.MerchantID,
			RetailerID: rel.RetailerID,
			Status: rel.Status,
			ListingStatus: rel.ListingStatus,
		}
	}

	return &domain.Retailer{
		ID: model.ID,
		Name: model.Name,
		Eligibility: model.Eligibility,
		Relationships: relationships,
	}
}
