package recompute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine перестраивает производную таблицу видимых цен для одной области:
// delete по фильтру области → выборка кандидатов → оверлей коррекций →
// батчевая вставка. Любая ошибка шага прерывает прогон; повтор заново
// удаляет и перестраивает ту же область, поэтому ретраи идемпотентны.
type Engine struct {
	db          *gorm.DB
	corrections domain.CorrectionRepository
	lookback    time.Duration
	batchSize   int
	logger      *slog.Logger
}

func NewEngine(db *gorm.DB, corrections domain.CorrectionRepository, lookback time.Duration, batchSize int, logger *slog.Logger) *Engine {
	return &Engine{
		db:          db,
		corrections: corrections,
		lookback:    lookback,
		batchSize:   batchSize,
		logger:      logger,
	}
}

func (e *Engine) Run(ctx context.Context, job *domain.RecomputeJob) (*domain.RecomputeResult, error) {
	started := time.Now()
	cutoff := started.Add(-e.lookback)

	log := e.logger.With(
		"job_id", job.ID,
		"scope", job.Scope,
		"scope_id", job.ScopeID,
		"correlation_id", job.CorrelationID,
	)
	log.Info("Recompute started", "lookback", e.lookback)

	// 1. Сносим текущие строки области. Частично удаленное состояние при
	// сбое допустимо: следующий прогон удалит заново.
	res := e.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Scopes(DerivedScopeFilter(job.Scope, job.ScopeID)).
		Delete(&models.VisiblePriceRowModel{})
	if res.Error != nil {
		return nil, e.failure(log, job, started, fmt.Errorf("delete derived rows: %w", res.Error))
	}
	deleted := res.RowsAffected

	// 2. Кандидаты: свежее окна, видимый ритейлер, прогон не ignored
	var obsModels []models.PriceObservationModel
	err := e.db.WithContext(ctx).
		Model(&models.PriceObservationModel{}).
		Select("price_observation_models.*").
		Joins("JOIN retailer_models ON retailer_models.id = price_observation_models.retailer_id").
		Scopes(
			VisibleRetailers,
			WithinLookback(cutoff),
			RunNotIgnored,
			ObservationScopeFilter(job.Scope, job.ScopeID),
		).
		Find(&obsModels).Error
	if err != nil {
		return nil, e.failure(log, job, started, fmt.Errorf("select candidates: %w", err))
	}

	// 3. Активные коррекции окна одним запросом, дальше оверлей в памяти
	corrections, err := e.corrections.ListActiveInWindow(cutoff, started)
	if err != nil {
		return nil, e.failure(log, job, started, fmt.Errorf("load corrections: %w", err))
	}
	index := NewCorrectionIndex(corrections)

	recomputedAt := time.Now()
	rows := make([]models.VisiblePriceRowModel, 0, len(obsModels))
	for i := range obsModels {
		obs := mappers.ToDomainObservation(&obsModels[i])
		if index.Ignored(obs) {
			continue
		}
		multiplier := index.Multiplier(obs)
		rows = append(rows, models.VisiblePriceRowModel{
			ID: obs.ID,
			ProductID: obs.ProductID,
			RetailerID: obs.RetailerID,
			MerchantID: obs.MerchantID,
			SourceID: obs.SourceID,
			AffiliateID: obs.AffiliateID,
			RawPrice: obs.Price,
			AppliedMultiplier: multiplier,
			VisiblePrice: obs.Price * multiplier,
			Currency: obs.Currency,
			InStock: obs.InStock,
			ObservedAt: obs.ObservedAt,
			RunType: obs.RunType,
			RunID: obs.RunID,
			RecomputedAt: recomputedAt,
			RecomputeJobID: job.ID,
		})
	}

	// 4. Батчевая вставка; дубликат id молча пропускается — страховка
	// на случай гонки пересчетов по пересекающимся областям
	var inserted int64
	if len(rows) > 0 {
		res := e.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&rows, e.batchSize)
		if res.Error != nil {
			return nil, e.failure(log, job, started, fmt.Errorf("insert derived rows: %w", res.Error))
		}
		inserted = res.RowsAffected
	}

	result := &domain.RecomputeResult{
		Processed: int64(len(obsModels)),
		Inserted:  inserted,
		Deleted:   deleted,
		Elapsed:   time.Since(started),
	}

	log.Info("Recompute finished",
		"processed", result.Processed,
		"inserted", result.Inserted,
		"deleted", result.Deleted,
		"duration_ms", result.Elapsed.Milliseconds(),
	)

	return result, nil
}

func (e *Engine) failure(log *slog.Logger, job *domain.RecomputeJob, started time.Time, err error) error {
	log.Error("Recompute failed", "error", err, "duration_ms", time.Since(started).Milliseconds())
	return &domain.RecomputeFailure{
		JobID: job.ID,
		Scope: job.Scope,
		ScopeID: job.ScopeID,
		CorrelationID: job.CorrelationID,
		Err: err,
	}
}
