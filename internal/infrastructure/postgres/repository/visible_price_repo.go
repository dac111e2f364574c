package repository

import (
	"fmt"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

// Читающая сторона производной таблицы. Запись принадлежит движку пересчета.
type DefaultVisiblePriceRepository struct {
	DB *gorm.DB
}

func NewDefaultVisiblePriceRepository(db *gorm.DB) *DefaultVisiblePriceRepository {
	return &DefaultVisiblePriceRepository{DB: db}
}

func (r *DefaultVisiblePriceRepository) ListVisiblePrices(filter domain.VisiblePriceFilter, limit int32) ([]*domain.VisiblePriceRow, error) {
	query := r.DB.Model(&models.VisiblePriceRowModel{}).
		Where("product_id = ?", filter.ProductID)

	if filter.RetailerID != "" {
		query = query.Where("retailer_id = ?", filter.RetailerID)
	}
	if filter.Currency != "" {
		query = query.Where("currency = ?", filter.Currency)
	}

	var rowModels []models.VisiblePriceRowModel
	if err := query.
		Order("observed_at DESC").
		Limit(int(limit)).
		Find(&rowModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find visible prices: %w", err)
	}

	rows := make([]*domain.VisiblePriceRow, len(rowModels))
	for i, model := range rowModels {
		rows[i] = mappers.ToDomainVisiblePriceRow(&model)
	}

	return rows, nil
}
