package recompute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
)

// Watchdog возвращает в очередь RUNNING-джобы с истекшим lease: упавший или
// зависший воркер не оставляет джобу висеть до рестарта процесса.
type Watchdog struct {
	jobs      domain.RecomputeJobRepository
	publisher domain.PublisherPort
	topic     string
	interval  time.Duration
	logger    *slog.Logger
}

func NewWatchdog(jobs domain.RecomputeJobRepository, publisher domain.PublisherPort, topic string, interval time.Duration, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		jobs:      jobs,
		publisher: publisher,
		topic:     topic,
		interval:  interval,
		logger:    logger,
	}
}

func (w *Watchdog) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Starting recompute watchdog", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping recompute watchdog")
			return
		case <-ticker.C:
			if err := w.reclaim(); err != nil {
				w.logger.Error("Failed to reclaim expired leases", "error", err)
			}
		}
	}
}

func (w *Watchdog) reclaim() error {
	expired, err := w.jobs.FindExpiredLeases(time.Now())
	if err != nil {
		return fmt.Errorf("find expired leases: %w", err)
	}

	for _, job := range expired {
		log := w.logger.With("job_id", job.ID, "correlation_id", job.CorrelationID, "attempts", job.Attempts)

		if job.Attempts >= job.MaxAttempts {
			if err := w.jobs.MarkFailed(job.ID, fmt.Sprintf("lease expired after %d attempts", job.Attempts)); err != nil {
				log.Error("Failed to mark job failed", "error", err)
				continue
			}
			log.Warn("Recompute job exhausted attempts, marked FAILED")
			continue
		}

		if err := w.jobs.Requeue(job.ID, "lease expired"); err != nil {
			log.Error("Failed to requeue job", "error", err)
			continue
		}
		if err := PublishJob(w.publisher, w.topic, job); err != nil {
			// Джоба уже PENDING; доедет со следующего тика
			log.Error("Failed to republish reclaimed job", "error", err)
			continue
		}

		log.Warn("Recompute job lease expired, requeued")
	}

	return nil
}
