package models

import (
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
)

type RecomputeJobModel struct {
	ID             string                    `gorm:"primaryKey;type:uuid"`
	Scope          domain.RecomputeScope     `gorm:"index:idx_job_scope"`
	ScopeID        string
	Reason         domain.RecomputeReason
	Actor          string
	CorrelationID  string
	Status         domain.RecomputeJobStatus `gorm:"index:idx_job_status_lease"`
	Attempts       int32
	MaxAttempts    int32
	LeaseExpiresAt *time.Time                `gorm:"index:idx_job_status_lease"`
	Processed      int64
	Inserted       int64
	Deleted        int64
	DurationMs     int64
	Error          string
	CreatedAt      time.Time `gorm:"index:idx_job_created_at"`
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

type RecomputeOutboxModel struct {
	ID           string `gorm:"primaryKey;type:uuid"`
	JobID        string `gorm:"type:uuid"`
	Payload      []byte
	Status       string `gorm:"index:idx_outbox_status"`
	Attempts     int32
	LastError    string
	CreatedAt    time.Time
	DispatchedAt *time.Time
}

// ScheduledTaskModel — регистрация периодической задачи. Назначенный инстанс
// на старте удаляет чужую запись по task_name и вставляет свою, поэтому
// после редеплоя дублей таймера не остается.
type ScheduledTaskModel struct {
	TaskName     string `gorm:"primaryKey"`
	InstanceID   string
	Interval     string
	RegisteredAt time.Time
}
