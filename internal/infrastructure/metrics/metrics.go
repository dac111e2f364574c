package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RecomputeMetrics — метрики пересчета производной таблицы
type RecomputeMetrics struct {
	// Джобы по области/причине/результату
	JobsTotal prometheus.CounterVec

	// Строки за прогон
	RowsProcessedTotal prometheus.CounterVec
	RowsInsertedTotal  prometheus.CounterVec
	RowsDeletedTotal   prometheus.CounterVec

	// Длительность прогона
	RunDuration prometheus.HistogramVec

	// Момент последнего успешного FULL-пересчета
	LastFullSuccessTimestamp prometheus.Gauge

	// Сбои постановки в очередь (outbox/scheduler)
	EnqueueFailuresTotal prometheus.Counter

	// Мутации коррекций
	CorrectionsTotal prometheus.CounterVec
}

func NewRecomputeMetrics() *RecomputeMetrics {
	return &RecomputeMetrics{
		JobsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recompute_jobs_total",
				Help: "Общее количество выполненных джоб пересчета",
			},
			[]string{"scope", "reason", "result"},
		),

		RowsProcessedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recompute_rows_processed_total",
				Help: "Количество наблюдений-кандидатов, обработанных пересчетом",
			},
			[]string{"scope"},
		),

		RowsInsertedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recompute_rows_inserted_total",
				Help: "Количество строк, вставленных в производную таблицу",
			},
			[]string{"scope"},
		),

		RowsDeletedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recompute_rows_deleted_total",
				Help: "Количество строк, удаленных из производной таблицы",
			},
			[]string{"scope"},
		),

		RunDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recompute_run_duration_seconds",
				Help:    "Длительность прогона пересчета в секундах",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms, 200ms, 400ms...
			},
			[]string{"scope"},
		),

		LastFullSuccessTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "recompute_last_full_success_timestamp_seconds",
				Help: "Unix-время последнего успешного FULL-пересчета",
			},
		),

		EnqueueFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "recompute_enqueue_failures_total",
				Help: "Количество сбоев публикации триггера пересчета в очередь",
			},
		),

		CorrectionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corrections_total",
				Help: "Количество мутаций коррекций",
			},
			[]string{"scope_type", "action"},
		),
	}
}

// RecordJob записывает результат выполнения джобы
func (m *RecomputeMetrics) RecordJob(scope, reason, result string) {
	m.JobsTotal.WithLabelValues(scope, reason, result).Inc()
}

// RecordRun записывает счетчики строк и длительность прогона
func (m *RecomputeMetrics) RecordRun(scope string, processed, inserted, deleted int64, durationSeconds float64) {
	m.RowsProcessedTotal.WithLabelValues(scope).Add(float64(processed))
	m.RowsInsertedTotal.WithLabelValues(scope).Add(float64(inserted))
	m.RowsDeletedTotal.WithLabelValues(scope).Add(float64(deleted))
	m.RunDuration.WithLabelValues(scope).Observe(durationSeconds)
}

// RecordFullSuccess фиксирует момент успешного FULL-пересчета
func (m *RecomputeMetrics) RecordFullSuccess(ts time.Time) {
	m.LastFullSuccessTimestamp.Set(float64(ts.Unix()))
}

// RecordEnqueueFailure записывает сбой постановки в очередь
func (m *RecomputeMetrics) RecordEnqueueFailure() {
	m.EnqueueFailuresTotal.Inc()
}

// RecordCorrection записывает мутацию коррекции
func (m *RecomputeMetrics) RecordCorrection(scopeType, action string) {
	m.CorrectionsTotal.WithLabelValues(scopeType, action).Inc()
}
