package kafka

// RecomputeJobEvent — полезная нагрузка события очереди recompute-jobs.
// Джоба к моменту публикации уже лежит в recompute_job_models в статусе
// PENDING; воркер перечитывает ее по id.
type RecomputeJobEvent struct {
	JobID         string `json:"job_id"`
	Scope         string `json:"scope"`
	ScopeID       string `json:"scope_id,omitempty"`
	Reason        string `json:"reason"`
	CorrelationID string `json:"correlation_id"`
}
