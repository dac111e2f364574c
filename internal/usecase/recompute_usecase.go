package usecase

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/repository/recompute"
	recomputedto "github.com/LavaJover/shvark-price-service/internal/usecase/dto/recompute"
)

type RecomputeUsecase interface {
	TriggerRecompute(input *recomputedto.TriggerRecomputeInput) (*recomputedto.TriggerRecomputeOutput, error)
	GetJobByID(jobID string) (*domain.RecomputeJob, error)
	ListJobs(input *recomputedto.ListJobsInput) ([]*domain.RecomputeJob, int64, error)
	WorkerStatus() domain.WorkerStatus
}

type DefaultRecomputeUsecase struct {
	JobRepo     domain.RecomputeJobRepository
	Publisher   domain.PublisherPort
	Worker      *recompute.Worker
	Metrics     *metrics.RecomputeMetrics
	Topic       string
	MaxAttempts int32
	Logger      *slog.Logger
}

func NewDefaultRecomputeUsecase(
	jobRepo domain.RecomputeJobRepository,
	pub domain.PublisherPort,
	worker *recompute.Worker,
	recomputeMetrics *metrics.RecomputeMetrics,
	topic string,
	maxAttempts int32,
	log *slog.Logger,
) *DefaultRecomputeUsecase {
	return &DefaultRecomputeUsecase{
		JobRepo: jobRepo,
		Publisher: pub,
		Worker: worker,
		Metrics: recomputeMetrics,
		Topic: topic,
		MaxAttempts: maxAttempts,
		Logger: log,
	}
}

// TriggerRecompute ставит джобу от имени оператора и возвращает только
// подтверждение: статус опрашивается отдельным запросом
func (uc *DefaultRecomputeUsecase) TriggerRecompute(input *recomputedto.TriggerRecomputeInput) (*recomputedto.TriggerRecomputeOutput, error) {
	scope := domain.RecomputeScope(input.Scope)
	if !domain.ValidRecomputeScope(scope) {
		return nil, &domain.ValidationError{Field: "scope", Message: fmt.Sprintf("unknown scope: %s", input.Scope)}
	}
	if scope != domain.RecomputeScopeFull && input.ScopeID == "" {
		return nil, &domain.ValidationError{Field: "scope_id", Message: "scope_id is required for scoped recompute"}
	}
	if scope == domain.RecomputeScopeFull && input.ScopeID != "" {
		return nil, &domain.ValidationError{Field: "scope_id", Message: "scope_id must be empty for FULL recompute"}
	}

	job := recompute.NewJob(scope, input.ScopeID, domain.ReasonManual, input.Actor, uc.MaxAttempts)
	if err := uc.JobRepo.CreateJob(job); err != nil {
		return nil, err
	}

	// Публикация best-effort: PENDING-джоба остается видимой в API,
	// а сбой очереди не превращается в ошибку для оператора
	if err := recompute.PublishJob(uc.Publisher, uc.Topic, job); err != nil {
		uc.Logger.Error("Failed to publish manual recompute job",
			"job_id", job.ID,
			"correlation_id", job.CorrelationID,
			"error", err,
		)
		uc.Metrics.RecordEnqueueFailure()
	}

	return &recomputedto.TriggerRecomputeOutput{
		JobID: job.ID,
		CorrelationID: job.CorrelationID,
	}, nil
}

func (uc *DefaultRecomputeUsecase) GetJobByID(jobID string) (*domain.RecomputeJob, error) {
	return uc.JobRepo.GetJobByID(jobID)
}

func (uc *DefaultRecomputeUsecase) ListJobs(input *recomputedto.ListJobsInput) ([]*domain.RecomputeJob, int64, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filter := domain.RecomputeJobFilter{
		Status: domain.RecomputeJobStatus(input.Status),
		Scope:  domain.RecomputeScope(input.Scope),
	}

	return uc.JobRepo.ListJobs(filter, page, limit)
}

func (uc *DefaultRecomputeUsecase) WorkerStatus() domain.WorkerStatus {
	return uc.Worker.Status()
}

// correctionIntent строит scoped-джобу пересчета для мутации коррекции.
// Для областей без фильтра движка (MERCHANT/AFFILIATE/FEED_RUN) ставится FULL.
func correctionIntent(correction *domain.Correction, reason domain.RecomputeReason, actor string, maxAttempts int32) *domain.RecomputeJob {
	var scope domain.RecomputeScope
	var scopeID string

	switch correction.ScopeType {
	case domain.ScopeProduct:
		scope, scopeID = domain.RecomputeScopeProduct, correction.ScopeID
	case domain.ScopeRetailer:
		scope, scopeID = domain.RecomputeScopeRetailer, correction.ScopeID
	case domain.ScopeSource:
		scope, scopeID = domain.RecomputeScopeSource, correction.ScopeID
	default:
		scope, scopeID = domain.RecomputeScopeFull, ""
	}

	return recompute.NewJob(scope, scopeID, reason, actor, maxAttempts)
}
