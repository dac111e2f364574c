package mappers

import (
	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
)

func ToDomainRecomputeJob(model *models.RecomputeJobModel) *domain.RecomputeJob {
	return &domain.RecomputeJob{
		ID: model.ID,
		Scope: model.Scope,
		ScopeID: model.ScopeID,
		Reason: model.Reason,
		Actor: model.Actor,
		CorrelationID: model.CorrelationID,
		Status: model.Status,
		Attempts: model.Attempts,
		MaxAttempts: model.MaxAttempts,
		LeaseExpiresAt: model.LeaseExpiresAt,
		Processed: model.Processed,
		Inserted: model.Inserted,
		Deleted: model.Deleted,
		DurationMs: model.DurationMs,
		Error: model.Error,
		CreatedAt: model.CreatedAt,
		StartedAt: model.StartedAt,
		FinishedAt: model.FinishedAt,
	}
}

func ToGORMRecomputeJob(job *domain.RecomputeJob) *models.RecomputeJobModel {
	return &models.RecomputeJobModel{
		ID: job.ID,
		Scope: job.Scope,
		ScopeID: job.ScopeID,
		Reason: job.Reason,
		Actor: job.Actor,
		CorrelationID: job.CorrelationID,
		Status: job.Status,
		Attempts: job.Attempts,
		MaxAttempts: job.MaxAttempts,
		LeaseExpiresAt: job.LeaseExpiresAt,
		Processed: job.Processed,
		Inserted: job.Inserted,
		Deleted: job.Deleted,
		DurationMs: job.DurationMs,
		Error: job.Error,
		CreatedAt: job.CreatedAt,
		StartedAt: job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
}
