package recompute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

const taskFullRecompute = "recompute-full"

// Scheduler периодически ставит FULL-пересчет. Запускается только на
// назначенном инстансе (recompute.scheduler_enabled); свою регистрацию
// он персистит в scheduled_task_models, предварительно удалив прежнюю,
// так что редеплой не оставляет двойных таймеров.
type Scheduler struct {
	db          *gorm.DB
	jobs        domain.RecomputeJobRepository
	publisher   domain.PublisherPort
	topic       string
	interval    time.Duration
	instanceID  string
	maxAttempts int32
	logger      *slog.Logger
}

func NewScheduler(
	db *gorm.DB,
	jobs domain.RecomputeJobRepository,
	publisher domain.PublisherPort,
	topic string,
	interval time.Duration,
	instanceID string,
	maxAttempts int32,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		db:          db,
		jobs:        jobs,
		publisher:   publisher,
		topic:       topic,
		interval:    interval,
		instanceID:  instanceID,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Register сносит прежнюю регистрацию периодической задачи и вставляет свою
func (s *Scheduler) Register() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_name = ?", taskFullRecompute).Delete(&models.ScheduledTaskModel{}).Error; err != nil {
			return fmt.Errorf("clear previous registration: %w", err)
		}

		task := models.ScheduledTaskModel{
			TaskName: taskFullRecompute,
			InstanceID: s.instanceID,
			Interval: s.interval.String(),
			RegisteredAt: time.Now(),
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("register scheduled task: %w", err)
		}

		return nil
	})
}

func (s *Scheduler) Start(ctx context.Context) {
	if err := s.Register(); err != nil {
		s.logger.Error("Failed to register periodic recompute", "error", err)
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Starting recompute scheduler", "interval", s.interval, "instance_id", s.instanceID)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping recompute scheduler")
			return
		case <-ticker.C:
			if err := s.enqueueFull(); err != nil {
				s.logger.Error("Failed to enqueue periodic recompute", "error", err)
			}
		}
	}
}

func (s *Scheduler) enqueueFull() error {
	job := NewJob(domain.RecomputeScopeFull, "", domain.ReasonPeriodic, "scheduler", s.maxAttempts)

	if err := s.jobs.CreateJob(job); err != nil {
		return err
	}

	// Сбой публикации не фатален: джоба остается PENDING, а следующий тик
	// поставит новый FULL-пересчет
	if err := PublishJob(s.publisher, s.topic, job); err != nil {
		s.logger.Error("Failed to publish periodic recompute job",
			"job_id", job.ID,
			"correlation_id", job.CorrelationID,
			"error", err,
		)
		return nil
	}

	s.logger.Info("Periodic recompute enqueued", "job_id", job.ID, "correlation_id", job.CorrelationID)
	return nil
}
