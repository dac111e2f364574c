package mappers

import (
	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
)

func ToDomainCorrection(model *models.CorrectionModel) *domain.Correction {
	return &domain.Correction{
		ID: model.ID,
		ScopeType: model.ScopeType,
		ScopeID: model.ScopeID,
		StartTs: model.StartTs,
		EndTs: model.EndTs,
		Action: model.Action,
		Value: model.Value,
		Reason: model.Reason,
		CreatedBy: model.CreatedBy,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: model.RevokedAt,
		RevokedBy: model.RevokedBy,
		RevokeReason: model.RevokeReason,
	}
}

func ToGORMCorrection(correction *domain.Correction) *models.CorrectionModel {
	return &models.CorrectionModel{
		ID: correction.ID,
		ScopeType: correction.ScopeType,
		ScopeID: correction.ScopeID,
		StartTs: correction.StartTs,
		EndTs: correction.EndTs,
		Action: correction.Action,
		Value: correction.Value,
		Reason: correction.Reason,
		CreatedBy: correction.CreatedBy,
		CreatedAt: correction.CreatedAt,
		UpdatedAt: correction.UpdatedAt,
		RevokedAt: correction.RevokedAt,
		RevokedBy: correction.RevokedBy,
		RevokeReason: correction.RevokeReason,
	}
}
