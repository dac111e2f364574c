package repository

import (
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultOutboxRepository struct {
	DB *gorm.DB
}

func NewDefaultOutboxRepository(db *gorm.DB) *DefaultOutboxRepository {
	return &DefaultOutboxRepository{DB: db}
}

func (r *DefaultOutboxRepository) PendingEntries(limit int) ([]*domain.OutboxEntry, error) {
	var entryModels []models.RecomputeOutboxModel
	if err := r.DB.
		Where("status = ?", domain.OutboxPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*domain.OutboxEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = &domain.OutboxEntry{
			ID: model.ID,
			JobID: model.JobID,
			Payload: model.Payload,
			Status: model.Status,
			Attempts: model.Attempts,
			LastError: model.LastError,
			CreatedAt: model.CreatedAt,
			DispatchedAt: model.DispatchedAt,
		}
	}

	return entries, nil
}

func (r *DefaultOutboxRepository) MarkDispatched(entryID string) error {
	now := time.Now()
	return r.DB.Model(&models.RecomputeOutboxModel{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"status":        domain.OutboxDispatched,
			"dispatched_at": now,
		}).Error
}

// MarkDispatchFailed оставляет запись в PENDING: relay заберет ее снова
func (r *DefaultOutboxRepository) MarkDispatchFailed(entryID string, errMsg string) error {
	return r.DB.Model(&models.RecomputeOutboxModel{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": errMsg,
		}).Error
}
