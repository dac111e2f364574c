package recomputedto

type TriggerRecomputeInput struct {
	Scope   string
	ScopeID string
	Actor   string
}

type ListJobsInput struct {
	Status string
	Scope  string
	Page   int32
	Limit  int32
}
