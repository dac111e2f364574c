package models

import (
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
)

type CorrectionModel struct {
	ID           string                     `gorm:"primaryKey;type:uuid"`
	ScopeType    domain.CorrectionScopeType `gorm:"index:idx_correction_scope"`
	ScopeID      string                     `gorm:"index:idx_correction_scope"`
	StartTs      time.Time
	EndTs        time.Time
	Action       domain.CorrectionAction
	Value        *float64
	Reason       string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RevokedAt    *time.Time
	RevokedBy    string
	RevokeReason string
}
