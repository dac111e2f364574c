package recompute

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/metrics"
)

// Worker — пул ограниченной конкурентности поверх канала подписчика.
// Воркеры не разделяют память друг с другом: вся координация через
// реляционное хранилище и очередь.
type Worker struct {
	engine      *Engine
	jobs        domain.RecomputeJobRepository
	subscriber  domain.SubscriberPort
	publisher   domain.PublisherPort
	topic       string
	groupID     string
	concurrency int
	leaseTTL    time.Duration
	metrics     *metrics.RecomputeMetrics
	logger      *slog.Logger

	processedTotal  atomic.Int64
	errorsTotal     atomic.Int64
	lastFullSuccess atomic.Int64 // unix seconds
	wg              sync.WaitGroup
}

func NewWorker(
	engine *Engine,
	jobs domain.RecomputeJobRepository,
	subscriber domain.SubscriberPort,
	publisher domain.PublisherPort,
	topic, groupID string,
	concurrency int,
	leaseTTL time.Duration,
	recomputeMetrics *metrics.RecomputeMetrics,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		engine:      engine,
		jobs:        jobs,
		subscriber:  subscriber,
		publisher:   publisher,
		topic:       topic,
		groupID:     groupID,
		concurrency: concurrency,
		leaseTTL:    leaseTTL,
		metrics:     recomputeMetrics,
		logger:      logger,
	}
}

// Start блокирует до отмены контекста или закрытия канала подписки
func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.subscriber.Subscribe(w.topic, w.groupID)
	if err != nil {
		return err
	}

	w.logger.Info("Starting recompute workers", "concurrency", w.concurrency, "topic", w.topic)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.worker(ctx, i, msgs)
	}

	w.wg.Wait()
	return nil
}

func (w *Worker) worker(ctx context.Context, id int, msgs <-chan domain.Message) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn("Subscriber channel closed", "worker_id", id)
				return
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg domain.Message) {
	var event kafka.RecomputeJobEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Error("Failed to unmarshal job event", "error", err)
		w.errorsTotal.Add(1)
		return
	}

	log := w.logger.With("job_id", event.JobID, "correlation_id", event.CorrelationID)

	job, err := w.jobs.GetJobByID(event.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			log.Warn("Job event references unknown job, skipping")
			return
		}
		log.Error("Failed to load job", "error", err)
		w.errorsTotal.Add(1)
		return
	}

	// at-least-once доставка: завершенные джобы просто пропускаем
	if job.Status == domain.JobStatusCompleted || job.Status == domain.JobStatusFailed {
		return
	}

	job, err = w.jobs.MarkRunning(job.ID, time.Now().Add(w.leaseTTL))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// забрал другой воркер
			return
		}
		log.Error("Failed to mark job running", "error", err)
		w.errorsTotal.Add(1)
		return
	}

	// heartbeat продлевает lease, пока движок работает
	done := make(chan struct{})
	go w.heartbeat(job.ID, done)

	result, runErr := w.engine.Run(ctx, job)
	close(done)

	if runErr != nil {
		w.errorsTotal.Add(1)
		w.metrics.RecordJob(string(job.Scope), string(job.Reason), "error")
		w.retryOrFail(log, job, runErr)
		return
	}

	if err := w.jobs.MarkCompleted(job.ID, result); err != nil {
		log.Error("Failed to mark job completed", "error", err)
		w.errorsTotal.Add(1)
		return
	}

	w.processedTotal.Add(1)
	w.metrics.RecordJob(string(job.Scope), string(job.Reason), "success")
	w.metrics.RecordRun(string(job.Scope), result.Processed, result.Inserted, result.Deleted, result.Elapsed.Seconds())

	if job.Scope == domain.RecomputeScopeFull {
		now := time.Now()
		w.lastFullSuccess.Store(now.Unix())
		w.metrics.RecordFullSuccess(now)
	}
}

func (w *Worker) retryOrFail(log *slog.Logger, job *domain.RecomputeJob, runErr error) {
	if job.Attempts >= job.MaxAttempts {
		if err := w.jobs.MarkFailed(job.ID, runErr.Error()); err != nil {
			log.Error("Failed to mark job failed", "error", err)
		}
		log.Error("Recompute job exhausted attempts", "attempts", job.Attempts, "error", runErr)
		return
	}

	if err := w.jobs.Requeue(job.ID, runErr.Error()); err != nil {
		log.Error("Failed to requeue job", "error", err)
		return
	}
	if err := w.publisher.Publish(w.topic, domain.Message{Key: []byte(job.ID), Value: mustEvent(job)}); err != nil {
		// PENDING-джобу подберет watchdog или следующая доставка
		log.Error("Failed to republish job for retry", "error", err)
	}
}

func (w *Worker) heartbeat(jobID string, done <-chan struct{}) {
	interval := w.leaseTTL / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := w.jobs.RenewLease(jobID, time.Now().Add(w.leaseTTL)); err != nil {
				w.logger.Error("Failed to renew job lease", "job_id", jobID, "error", err)
			}
		}
	}
}

func (w *Worker) Status() domain.WorkerStatus {
	status := domain.WorkerStatus{
		ProcessedTotal: w.processedTotal.Load(),
		ErrorsTotal:    w.errorsTotal.Load(),
	}
	if ts := w.lastFullSuccess.Load(); ts > 0 {
		status.LastFullSuccess = time.Unix(ts, 0)
	}
	return status
}

func mustEvent(job *domain.RecomputeJob) []byte {
	payload, _ := json.Marshal(kafka.RecomputeJobEvent{
		JobID: job.ID,
		Scope: string(job.Scope),
		ScopeID: job.ScopeID,
		Reason: string(job.Reason),
		CorrelationID: job.CorrelationID,
	})
	return payload
}
