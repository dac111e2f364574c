package recompute

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/metrics"
)

const relayBatchLimit = 100

// OutboxRelay перегоняет PENDING-строки outbox в очередь (at-least-once).
// Сбой публикации не трогает коррекцию: запись остается PENDING и уйдет
// на следующем проходе.
type OutboxRelay struct {
	outbox    domain.OutboxRepository
	publisher domain.PublisherPort
	topic     string
	interval  time.Duration
	metrics   *metrics.RecomputeMetrics
	logger    *slog.Logger
}

func NewOutboxRelay(
	outbox domain.OutboxRepository,
	publisher domain.PublisherPort,
	topic string,
	interval time.Duration,
	recomputeMetrics *metrics.RecomputeMetrics,
	logger *slog.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		topic:     topic,
		interval:  interval,
		metrics:   recomputeMetrics,
		logger:    logger,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Starting outbox relay", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping outbox relay")
			return
		case <-ticker.C:
			if err := r.Drain(); err != nil {
				r.logger.Error("Outbox drain failed", "error", err)
			}
		}
	}
}

func (r *OutboxRelay) Drain() error {
	entries, err := r.outbox.PendingEntries(relayBatchLimit)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := r.publisher.Publish(r.topic, domain.Message{Key: []byte(entry.JobID), Value: entry.Payload}); err != nil {
			r.logger.Error("Failed to enqueue recompute trigger",
				"outbox_id", entry.ID,
				"job_id", entry.JobID,
				"error", err,
			)
			r.metrics.RecordEnqueueFailure()
			if err := r.outbox.MarkDispatchFailed(entry.ID, err.Error()); err != nil {
				r.logger.Error("Failed to record dispatch failure", "outbox_id", entry.ID, "error", err)
			}
			continue
		}

		if err := r.outbox.MarkDispatched(entry.ID); err != nil {
			// Повторная доставка допустима: воркер дедуплицирует по статусу джобы
			r.logger.Error("Failed to mark outbox entry dispatched", "outbox_id", entry.ID, "error", err)
		}
	}

	return nil
}
