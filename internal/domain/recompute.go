package domain

import "time"

type RecomputeScope string

const (
	RecomputeScopeFull     RecomputeScope = "FULL"
	RecomputeScopeProduct  RecomputeScope = "PRODUCT"
	RecomputeScopeRetailer RecomputeScope = "RETAILER"
	RecomputeScopeSource   RecomputeScope = "SOURCE"
)

func ValidRecomputeScope(scope RecomputeScope) bool {
	switch scope {
	case RecomputeScopeFull, RecomputeScopeProduct, RecomputeScopeRetailer, RecomputeScopeSource:
		return true
	}
	return false
}

type RecomputeReason string

const (
	ReasonCorrectionCreated RecomputeReason = "CORRECTION_CREATED"
	ReasonCorrectionRevoked RecomputeReason = "CORRECTION_REVOKED"
	ReasonPeriodic          RecomputeReason = "PERIODIC"
	ReasonManual            RecomputeReason = "MANUAL"
	ReasonLeaseExpired      RecomputeReason = "LEASE_EXPIRED"
)

type RecomputeJobStatus string

const (
	JobStatusPending   RecomputeJobStatus = "PENDING"
	JobStatusRunning   RecomputeJobStatus = "RUNNING"
	JobStatusCompleted RecomputeJobStatus = "COMPLETED"
	JobStatusFailed    RecomputeJobStatus = "FAILED"
)

type RecomputeJob struct {
	ID             string
	Scope          RecomputeScope
	ScopeID        string
	Reason         RecomputeReason
	Actor          string
	CorrelationID  string
	Status         RecomputeJobStatus
	Attempts       int32
	MaxAttempts    int32
	LeaseExpiresAt *time.Time
	Processed      int64
	Inserted       int64
	Deleted        int64
	DurationMs     int64
	Error          string
	CreatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

type RecomputeResult struct {
	Processed int64
	Inserted  int64
	Deleted   int64
	Elapsed   time.Duration
}

type RecomputeJobFilter struct {
	Status RecomputeJobStatus
	Scope  RecomputeScope
}

type RecomputeJobRepository interface {
	CreateJob(job *RecomputeJob) error
	GetJobByID(jobID string) (*RecomputeJob, error)
	ListJobs(filter RecomputeJobFilter, page, limit int32) ([]*RecomputeJob, int64, error)
	// MarkRunning переводит PENDING-джобу в RUNNING, инкрементирует attempts
	// и выставляет lease; возвращает обновленную джобу
	MarkRunning(jobID string, leaseExpiresAt time.Time) (*RecomputeJob, error)
	RenewLease(jobID string, leaseExpiresAt time.Time) error
	MarkCompleted(jobID string, result *RecomputeResult) error
	MarkFailed(jobID string, errMsg string) error
	// Requeue возвращает джобу в PENDING для повторной попытки
	Requeue(jobID string, errMsg string) error
	// FindExpiredLeases возвращает RUNNING-джобы с истекшим lease
	FindExpiredLeases(now time.Time) ([]*RecomputeJob, error)
}

// OutboxEntry — намерение опубликовать событие пересчета, записанное в одной
// транзакции с мутацией коррекции. Relay доставляет его в очередь at-least-once.
type OutboxEntry struct {
	ID           string
	JobID        string
	Payload      []byte
	Status       string
	Attempts     int32
	LastError    string
	CreatedAt    time.Time
	DispatchedAt *time.Time
}

const (
	OutboxPending    = "PENDING"
	OutboxDispatched = "DISPATCHED"
)

type OutboxRepository interface {
	PendingEntries(limit int) ([]*OutboxEntry, error)
	MarkDispatched(entryID string) error
	MarkDispatchFailed(entryID string, errMsg string) error
}

// WorkerStatus — накопительные счетчики пула воркеров пересчета
type WorkerStatus struct {
	ProcessedTotal  int64
	ErrorsTotal     int64
	LastFullSuccess time.Time
}
