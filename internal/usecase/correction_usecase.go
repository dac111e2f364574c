package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
	correctiondto "github.com/LavaJover/shvark-price-service/internal/usecase/dto/correction"
)

type CorrectionUsecase interface {
	CreateCorrection(ctx context.Context, input *correctiondto.CreateCorrectionInput) (*domain.Correction, error)
	RevokeCorrection(ctx context.Context, input *correctiondto.RevokeCorrectionInput) (*domain.Correction, error)
	GetCorrectionByID(correctionID string) (*domain.Correction, error)
	ListCorrections(input *correctiondto.ListCorrectionsInput) ([]*domain.Correction, int64, error)
	SearchScope(scopeType, scopeID string) ([]*domain.Correction, error)
}

type DefaultCorrectionUsecase struct {
	CorrectionRepo domain.CorrectionRepository
	RetailerRepo   domain.RetailerRepository
	EventLogger    logger.CorrectionEventLogger
	Metrics        *metrics.RecomputeMetrics
	MaxAttempts    int32
	Logger         *slog.Logger
}

func NewDefaultCorrectionUsecase(
	correctionRepo domain.CorrectionRepository,
	retailerRepo domain.RetailerRepository,
	eventLogger logger.CorrectionEventLogger,
	recomputeMetrics *metrics.RecomputeMetrics,
	maxAttempts int32,
	log *slog.Logger,
) *DefaultCorrectionUsecase {
	return &DefaultCorrectionUsecase{
		CorrectionRepo: correctionRepo,
		RetailerRepo: retailerRepo,
		EventLogger: eventLogger,
		Metrics: recomputeMetrics,
		MaxAttempts: maxAttempts,
		Logger: log,
	}
}

// CreateCorrection валидирует ввод, пишет коррекцию вместе с намерением
// пересчета (transactional outbox) и возвращает созданную коррекцию.
// Доставкой события в очередь занимается relay: сбой публикации никогда
// не откатывает запись коррекции.
func (uc *DefaultCorrectionUsecase) CreateCorrection(ctx context.Context, input *correctiondto.CreateCorrectionInput) (*domain.Correction, error) {
	if err := uc.validateCreateInput(input); err != nil {
		return nil, err
	}

	scopeType := domain.CorrectionScopeType(input.ScopeType)
	exists, err := uc.RetailerRepo.ScopeExists(scopeType, input.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate scope: %w", err)
	}
	if !exists {
		return nil, &domain.NotFoundError{Entity: string(scopeType), ID: input.ScopeID}
	}

	now := time.Now()
	correction := &domain.Correction{
		ID: uuid.New().String(),
		ScopeType: scopeType,
		ScopeID: input.ScopeID,
		StartTs: input.StartTs,
		EndTs: input.EndTs,
		Action: domain.CorrectionAction(input.Action),
		Value: input.Value,
		Reason: input.Reason,
		CreatedBy: input.Actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	intent := correctionIntent(correction, domain.ReasonCorrectionCreated, input.Actor, uc.MaxAttempts)
	if err := uc.CorrectionRepo.CreateCorrection(correction, intent); err != nil {
		return nil, err
	}

	uc.Metrics.RecordCorrection(string(correction.ScopeType), string(correction.Action))
	if err := uc.EventLogger.LogCorrectionCreated(ctx, correction); err != nil {
		uc.Logger.Error("Failed to write correction audit event", "correction_id", correction.ID, "error", err)
	}

	uc.Logger.Info("Correction created",
		"correction_id", correction.ID,
		"scope_type", correction.ScopeType,
		"scope_id", correction.ScopeID,
		"action", correction.Action,
		"correlation_id", intent.CorrelationID,
	)

	return correction, nil
}

func (uc *DefaultCorrectionUsecase) RevokeCorrection(ctx context.Context, input *correctiondto.RevokeCorrectionInput) (*domain.Correction, error) {
	if input.Actor == "" {
		return nil, &domain.ValidationError{Field: "actor", Message: "actor is required"}
	}

	correction, err := uc.CorrectionRepo.GetCorrectionByID(input.CorrectionID)
	if err != nil {
		return nil, err
	}
	if correction.Revoked() {
		return nil, domain.ErrAlreadyRevoked
	}

	revokedAt := time.Now()
	intent := correctionIntent(correction, domain.ReasonCorrectionRevoked, input.Actor, uc.MaxAttempts)
	if err := uc.CorrectionRepo.RevokeCorrection(input.CorrectionID, input.Actor, input.Reason, revokedAt, intent); err != nil {
		return nil, err
	}

	correction.RevokedAt = &revokedAt
	correction.RevokedBy = input.Actor
	correction.RevokeReason = input.Reason

	if err := uc.EventLogger.LogCorrectionRevoked(ctx, correction, input.Actor, input.Reason); err != nil {
		uc.Logger.Error("Failed to write correction audit event", "correction_id", correction.ID, "error", err)
	}

	uc.Logger.Info("Correction revoked",
		"correction_id", correction.ID,
		"scope_type", correction.ScopeType,
		"scope_id", correction.ScopeID,
		"correlation_id", intent.CorrelationID,
	)

	return correction, nil
}

func (uc *DefaultCorrectionUsecase) GetCorrectionByID(correctionID string) (*domain.Correction, error) {
	return uc.CorrectionRepo.GetCorrectionByID(correctionID)
}

func (uc *DefaultCorrectionUsecase) ListCorrections(input *correctiondto.ListCorrectionsInput) ([]*domain.Correction, int64, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filter := domain.CorrectionFilter{
		ScopeType: domain.CorrectionScopeType(input.ScopeType),
		ScopeID: input.ScopeID,
		IncludeRevoked: input.IncludeRevoked,
		ActiveAt: input.ActiveAt,
	}

	return uc.CorrectionRepo.ListCorrections(filter, page, limit)
}

// SearchScope возвращает полную историю коррекций области, включая отозванные
func (uc *DefaultCorrectionUsecase) SearchScope(scopeType, scopeID string) ([]*domain.Correction, error) {
	st := domain.CorrectionScopeType(scopeType)
	if !domain.ValidScopeType(st) {
		return nil, &domain.ValidationError{Field: "scope_type", Message: fmt.Sprintf("unknown scope type: %s", scopeType)}
	}

	return uc.CorrectionRepo.GetCorrectionsByScope(st, scopeID)
}

func (uc *DefaultCorrectionUsecase) validateCreateInput(input *correctiondto.CreateCorrectionInput) error {
	if !domain.ValidScopeType(domain.CorrectionScopeType(input.ScopeType)) {
		return &domain.ValidationError{Field: "scope_type", Message: fmt.Sprintf("unknown scope type: %s", input.ScopeType)}
	}
	if input.ScopeID == "" {
		return &domain.ValidationError{Field: "scope_id", Message: "scope_id is required"}
	}
	if input.Actor == "" {
		return &domain.ValidationError{Field: "actor", Message: "actor is required"}
	}
	if input.StartTs.IsZero() || input.EndTs.IsZero() {
		return &domain.ValidationError{Field: "start_ts", Message: "start_ts and end_ts are required"}
	}
	if !input.StartTs.Before(input.EndTs) {
		return &domain.ValidationError{Field: "end_ts", Message: "start_ts must be before end_ts"}
	}

	switch domain.CorrectionAction(input.Action) {
	case domain.ActionMultiplier:
		if input.Value == nil {
			return &domain.ValidationError{Field: "value", Message: "MULTIPLIER requires a value"}
		}
		if *input.Value <= 0 || *input.Value > domain.MaxMultiplierValue {
			return &domain.ValidationError{Field: "value", Message: fmt.Sprintf("value must be in (0, %v]", domain.MaxMultiplierValue)}
		}
	case domain.ActionIgnore:
		if input.Value != nil {
			return &domain.ValidationError{Field: "value", Message: "IGNORE must not carry a value"}
		}
	default:
		return &domain.ValidationError{Field: "action", Message: fmt.Sprintf("unknown action: %s", input.Action)}
	}

	return nil
}
