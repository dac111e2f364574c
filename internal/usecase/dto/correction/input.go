package correctiondto

import "time"

type CreateCorrectionInput struct {
	ScopeType string
	ScopeID   string
	StartTs   time.Time
	EndTs     time.Time
	Action    string
	Value     *float64
	Reason    string
	Actor     string
}

type RevokeCorrectionInput struct {
	CorrectionID string
	Reason       string
	Actor        string
}

type ListCorrectionsInput struct {
	ScopeType      string
	ScopeID        string
	IncludeRevoked bool
	ActiveAt       time.Time
	Page           int32
	Limit          int32
}
