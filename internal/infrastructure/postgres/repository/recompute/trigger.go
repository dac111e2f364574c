package recompute

import (
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/kafka"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

// NewJob собирает PENDING-джобу пересчета с correlation id, который потом
// проходит через все логи этого прогона
func NewJob(scope domain.RecomputeScope, scopeID string, reason domain.RecomputeReason, actor string, maxAttempts int32) *domain.RecomputeJob {
	idGenerator, err := nanoid.Standard(15)
	correlationID := uuid.New().String()
	if err == nil {
		correlationID = idGenerator()
	}

	return &domain.RecomputeJob{
		ID: uuid.New().String(),
		Scope: scope,
		ScopeID: scopeID,
		Reason: reason,
		Actor: actor,
		CorrelationID: correlationID,
		Status: domain.JobStatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt: time.Now(),
	}
}

// PublishJob публикует событие джобы в очередь. Ключ — id джобы.
func PublishJob(pub domain.PublisherPort, topic string, job *domain.RecomputeJob) error {
	payload, err := json.Marshal(kafka.RecomputeJobEvent{
		JobID: job.ID,
		Scope: string(job.Scope),
		ScopeID: job.ScopeID,
		Reason: string(job.Reason),
		CorrelationID: job.CorrelationID,
	})
	if err != nil {
		return err
	}

	return pub.Publish(topic, domain.Message{Key: []byte(job.ID), Value: payload})
}
