package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultRecomputeJobRepository struct {
	DB *gorm.DB
}

func NewDefaultRecomputeJobRepository(db *gorm.DB) *DefaultRecomputeJobRepository {
	return &DefaultRecomputeJobRepository{DB: db}
}

func (r *DefaultRecomputeJobRepository) CreateJob(job *domain.RecomputeJob) error {
	if err := r.DB.Create(mappers.ToGORMRecomputeJob(job)).Error; err != nil {
		return fmt.Errorf("failed to create recompute job: %w", err)
	}
	return nil
}

func (r *DefaultRecomputeJobRepository) GetJobByID(jobID string) (*domain.RecomputeJob, error) {
	var model models.RecomputeJobModel
	if err := r.DB.First(&model, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}

	return mappers.ToDomainRecomputeJob(&model), nil
}

func (r *DefaultRecomputeJobRepository) ListJobs(filter domain.RecomputeJobFilter, page, limit int32) ([]*domain.RecomputeJob, int64, error) {
	query := r.DB.Model(&models.RecomputeJobModel{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Scope != "" {
		query = query.Where("scope = ?", filter.Scope)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	offset := (page - 1) * limit
	var jobModels []models.RecomputeJobModel
	if err := query.
		Order("created_at DESC").
		Offset(int(offset)).
		Limit(int(limit)).
		Find(&jobModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find jobs: %w", err)
	}

	jobs := make([]*domain.RecomputeJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = mappers.ToDomainRecomputeJob(&model)
	}

	return jobs, total, nil
}

// MarkRunning забирает PENDING-джобу в работу: статус RUNNING, attempts+1,
// новый lease. Если джоба уже не PENDING (забрал другой воркер или
// завершилась), возвращает ErrJobNotFound — вызывающий просто пропускает ее.
func (r *DefaultRecomputeJobRepository) MarkRunning(jobID string, leaseExpiresAt time.Time) (*domain.RecomputeJob, error) {
	now := time.Now()
	res := r.DB.Model(&models.RecomputeJobModel{}).
		Where("id = ? AND status = ?", jobID, domain.JobStatusPending).
		Updates(map[string]interface{}{
			"status":           domain.JobStatusRunning,
			"attempts":         gorm.Expr("attempts + 1"),
			"lease_expires_at": leaseExpiresAt,
			"started_at":       now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrJobNotFound
	}

	return r.GetJobByID(jobID)
}

func (r *DefaultRecomputeJobRepository) RenewLease(jobID string, leaseExpiresAt time.Time) error {
	return r.DB.Model(&models.RecomputeJobModel{}).
		Where("id = ? AND status = ?", jobID, domain.JobStatusRunning).
		Update("lease_expires_at", leaseExpiresAt).Error
}

func (r *DefaultRecomputeJobRepository) MarkCompleted(jobID string, result *domain.RecomputeResult) error {
	now := time.Now()
	return r.DB.Model(&models.RecomputeJobModel{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":           domain.JobStatusCompleted,
			"processed":        result.Processed,
			"inserted":         result.Inserted,
			"deleted":          result.Deleted,
			"duration_ms":      result.Elapsed.Milliseconds(),
			"lease_expires_at": nil,
			"finished_at":      now,
		}).Error
}

func (r *DefaultRecomputeJobRepository) MarkFailed(jobID string, errMsg string) error {
	now := time.Now()
	return r.DB.Model(&models.RecomputeJobModel{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":           domain.JobStatusFailed,
			"error":            errMsg,
			"lease_expires_at": nil,
			"finished_at":      now,
		}).Error
}

func (r *DefaultRecomputeJobRepository) Requeue(jobID string, errMsg string) error {
	return r.DB.Model(&models.RecomputeJobModel{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":           domain.JobStatusPending,
			"error":            errMsg,
			"lease_expires_at": nil,
		}).Error
}

func (r *DefaultRecomputeJobRepository) FindExpiredLeases(now time.Time) ([]*domain.RecomputeJob, error) {
	var jobModels []models.RecomputeJobModel
	if err := r.DB.
		Where("status = ?", domain.JobStatusRunning).
		Where("lease_expires_at IS NOT NULL AND lease_expires_at < ?", now).
		Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]*domain.RecomputeJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = mappers.ToDomainRecomputeJob(&model)
	}

	return jobs, nil
}
