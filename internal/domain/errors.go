package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCorrectionNotFound = errors.New("correction not found")
	ErrAlreadyRevoked     = errors.New("correction already revoked")
	ErrJobNotFound        = errors.New("recompute job not found")
)

// ValidationError — некорректный ввод коррекции; отклоняется синхронно,
// в очередь ничего не попадает
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NotFoundError — неизвестная сущность области или id коррекции
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// OverlapConflictError несет id конфликтующей коррекции, чтобы оператор
// мог сделать revoke-then-retry
type OverlapConflictError struct {
	ConflictingID string
	ScopeType     CorrectionScopeType
	ScopeID       string
}

func (e *OverlapConflictError) Error() string {
	return fmt.Sprintf("active correction %s already covers an intersecting range on (%s, %s)",
		e.ConflictingID, e.ScopeType, e.ScopeID)
}

// RecomputeFailure оборачивает ошибку любого шага пересчета; уходит в retry
// машинерию очереди, синхронно наружу не отдается
type RecomputeFailure struct {
	JobID         string
	Scope         RecomputeScope
	ScopeID       string
	CorrelationID string
	Err           error
}

func (e *RecomputeFailure) Error() string {
	return fmt.Sprintf("recompute failed: job=%s scope=%s scope_id=%s correlation_id=%s: %v",
		e.JobID, e.Scope, e.ScopeID, e.CorrelationID, e.Err)
}

func (e *RecomputeFailure) Unwrap() error {
	return e.Err
}
