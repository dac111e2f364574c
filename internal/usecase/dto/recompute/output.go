package recomputedto

// Ответ ручного триггера: только подтверждение, статус опрашивается отдельно
type TriggerRecomputeOutput struct {
	JobID         string
	CorrelationID string
}
