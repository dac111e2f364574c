package models

import "time"

// CorrectionEventModel — аудит мутаций коррекций (CREATED/REVOKED)
type CorrectionEventModel struct {
	ID           uint   `gorm:"primaryKey"`
	CorrectionID string `gorm:"type:uuid;index"`
	Action       string
	ScopeType    string
	ScopeID      string
	Actor        string
	Reason       string
	Timestamp    time.Time
}
