package repository

import (
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultRetailerRepository struct {
	DB *gorm.DB
}

func NewDefaultRetailerRepository(db *gorm.DB) *DefaultRetailerRepository {
	return &DefaultRetailerRepository{DB: db}
}

func (r *DefaultRetailerRepository) GetRetailerByID(retailerID string) (*domain.Retailer, error) {
	var model models.RetailerModel
	if err := r.DB.Preload("Relationships").First(&model, "id = ?", retailerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "retailer", ID: retailerID}
		}
		return nil, err
	}

	return mappers.ToDomainRetailer(&model), nil
}

// ScopeExists проверяет, что сущность области коррекции существует
func (r *DefaultRetailerRepository) ScopeExists(scopeType domain.CorrectionScopeType, scopeID string) (bool, error) {
	var model interface{}
	switch scopeType {
	case domain.ScopeProduct:
		model = &models.ProductModel{}
	case domain.ScopeRetailer:
		model = &models.RetailerModel{}
	case domain.ScopeMerchant:
		model = &models.MerchantModel{}
	case domain.ScopeSource:
		model = &models.SourceModel{}
	case domain.ScopeAffiliate:
		model = &models.AffiliateModel{}
	case domain.ScopeFeedRun:
		model = &models.IngestionRunModel{}
	default:
		return false, fmt.Errorf("unknown scope type: %s", scopeType)
	}

	var count int64
	if err := r.DB.Model(model).Where("id = ?", scopeID).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
