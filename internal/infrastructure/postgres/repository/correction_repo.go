package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultCorrectionRepository struct {
	DB *gorm.DB
}

func NewDefaultCorrectionRepository(db *gorm.DB) *DefaultCorrectionRepository {
	return &DefaultCorrectionRepository{DB: db}
}

// CreateCorrection пишет коррекцию, PENDING-джобу пересчета и outbox-строку
// в одной транзакции. Проверка пересечения выполняется внутри транзакции,
// чтобы два конкурентных create не записали пересекающиеся интервалы.
func (r *DefaultCorrectionRepository) CreateCorrection(correction *domain.Correction, intent *domain.RecomputeJob) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		conflict, err := findConflicting(tx, correction.ScopeType, correction.ScopeID, correction.StartTs, correction.EndTs)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &domain.OverlapConflictError{
				ConflictingID: conflict.ID,
				ScopeType: correction.ScopeType,
				ScopeID: correction.ScopeID,
			}
		}

		if err := tx.Create(mappers.ToGORMCorrection(correction)).Error; err != nil {
			return fmt.Errorf("failed to create correction: %w", err)
		}

		return createIntent(tx, intent)
	})
}

func (r *DefaultCorrectionRepository) GetCorrectionByID(correctionID string) (*domain.Correction, error) {
	var model models.CorrectionModel
	if err := r.DB.First(&model, "id = ?", correctionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCorrectionNotFound
		}
		return nil, err
	}

	return mappers.ToDomainCorrection(&model), nil
}

func (r *DefaultCorrectionRepository) FindConflicting(scopeType domain.CorrectionScopeType, scopeID string, start, end time.Time) (*domain.Correction, error) {
	return findConflicting(r.DB, scopeType, scopeID, start, end)
}

// пересечение полуинтервалов: start_ts < end AND start < end_ts
func findConflicting(db *gorm.DB, scopeType domain.CorrectionScopeType, scopeID string, start, end time.Time) (*domain.Correction, error) {
	var model models.CorrectionModel
	err := db.
		Where("scope_type = ? AND scope_id = ?", scopeType, scopeID).
		Where("revoked_at IS NULL").
		Where("start_ts < ? AND ? < end_ts", end, start).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return mappers.ToDomainCorrection(&model), nil
}

func (r *DefaultCorrectionRepository) ListCorrections(filter domain.CorrectionFilter, page, limit int32) ([]*domain.Correction, int64, error) {
	query := r.DB.Model(&models.CorrectionModel{})

	if filter.ScopeType != "" {
		query = query.Where("scope_type = ?", filter.ScopeType)
	}
	if filter.ScopeID != "" {
		query = query.Where("scope_id = ?", filter.ScopeID)
	}
	if !filter.IncludeRevoked {
		query = query.Where("revoked_at IS NULL")
	}
	if !filter.ActiveAt.IsZero() {
		query = query.Where("start_ts <= ? AND ? < end_ts", filter.ActiveAt, filter.ActiveAt)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count corrections: %w", err)
	}

	offset := (page - 1) * limit
	var correctionModels []models.CorrectionModel
	if err := query.
		Order("created_at DESC").
		Offset(int(offset)).
		Limit(int(limit)).
		Find(&correctionModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find corrections: %w", err)
	}

	corrections := make([]*domain.Correction, len(correctionModels))
	for i, model := range correctionModels {
		corrections[i] = mappers.ToDomainCorrection(&model)
	}

	return corrections, total, nil
}

// GetCorrectionsByScope возвращает полную историю области, включая отозванные
func (r *DefaultCorrectionRepository) GetCorrectionsByScope(scopeType domain.CorrectionScopeType, scopeID string) ([]*domain.Correction, error) {
	var correctionModels []models.CorrectionModel
	if err := r.DB.
		Where("scope_type = ? AND scope_id = ?", scopeType, scopeID).
		Order("start_ts ASC").
		Find(&correctionModels).Error; err != nil {
		return nil, err
	}

	corrections := make([]*domain.Correction, len(correctionModels))
	for i, model := range correctionModels {
		corrections[i] = mappers.ToDomainCorrection(&model)
	}

	return corrections, nil
}

func (r *DefaultCorrectionRepository) RevokeCorrection(correctionID, revokedBy, reason string, revokedAt time.Time, intent *domain.RecomputeJob) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var model models.CorrectionModel
		if err := tx.First(&model, "id = ?", correctionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCorrectionNotFound
			}
			return err
		}
		if model.RevokedAt != nil {
			return domain.ErrAlreadyRevoked
		}

		updates := map[string]interface{}{
			"revoked_at":    revokedAt,
			"revoked_by":    revokedBy,
			"revoke_reason": reason,
			"updated_at":    time.Now(),
		}
		if err := tx.Model(&models.CorrectionModel{}).Where("id = ?", correctionID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to revoke correction: %w", err)
		}

		return createIntent(tx, intent)
	})
}

func (r *DefaultCorrectionRepository) ListActiveInWindow(from, to time.Time) ([]*domain.Correction, error) {
	var correctionModels []models.CorrectionModel
	if err := r.DB.
		Where("revoked_at IS NULL").
		Where("start_ts < ? AND ? < end_ts", to, from).
		Find(&correctionModels).Error; err != nil {
		return nil, err
	}

	corrections := make([]*domain.Correction, len(correctionModels))
	for i, model := range correctionModels {
		corrections[i] = mappers.ToDomainCorrection(&model)
	}

	return corrections, nil
}

// createIntent пишет джобу и outbox-строку с ее событием в текущей транзакции
func createIntent(tx *gorm.DB, intent *domain.RecomputeJob) error {
	if intent == nil {
		return nil
	}

	if err := tx.Create(mappers.ToGORMRecomputeJob(intent)).Error; err != nil {
		return fmt.Errorf("failed to create recompute job: %w", err)
	}

	payload, err := json.Marshal(kafka.RecomputeJobEvent{
		JobID: intent.ID,
		Scope: string(intent.Scope),
		ScopeID: intent.ScopeID,
		Reason: string(intent.Reason),
		CorrelationID: intent.CorrelationID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	outbox := models.RecomputeOutboxModel{
		ID: uuid.New().String(),
		JobID: intent.ID,
		Payload: payload,
		Status: domain.OutboxPending,
		CreatedAt: time.Now(),
	}
	if err := tx.Create(&outbox).Error; err != nil {
		return fmt.Errorf("failed to create outbox entry: %w", err)
	}

	return nil
}
