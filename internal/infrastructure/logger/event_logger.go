package logger

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

const (
	EventCorrectionCreated = "CREATED"
	EventCorrectionRevoked = "REVOKED"
)

type CorrectionEventLogger interface {
	LogCorrectionCreated(ctx context.Context, correction *domain.Correction) error
	LogCorrectionRevoked(ctx context.Context, correction *domain.Correction, actor, reason string) error
}

// PGCorrectionEventLogger пишет аудит мутаций коррекций в отдельную таблицу:
// история области восстанавливается не только по полям самой коррекции
type PGCorrectionEventLogger struct {
	db *gorm.DB
}

func NewPGCorrectionEventLogger(db *gorm.DB) *PGCorrectionEventLogger {
	return &PGCorrectionEventLogger{db: db}
}

func (l *PGCorrectionEventLogger) LogCorrectionCreated(ctx context.Context, correction *domain.Correction) error {
	event := models.CorrectionEventModel{
		CorrectionID: correction.ID,
		Action: EventCorrectionCreated,
		ScopeType: string(correction.ScopeType),
		ScopeID: correction.ScopeID,
		Actor: correction.CreatedBy,
		Reason: correction.Reason,
		Timestamp: time.Now(),
	}
	return l.db.WithContext(ctx).Create(&event).Error
}

func (l *PGCorrectionEventLogger) LogCorrectionRevoked(ctx context.Context, correction *domain.Correction, actor, reason string) error {
	event := models.CorrectionEventModel{
		CorrectionID: correction.ID,
		Action: EventCorrectionRevoked,
		ScopeType: string(correction.ScopeType),
		ScopeID: correction.ScopeID,
		Actor: actor,
		Reason: reason,
		Timestamp: time.Now(),
	}
	return l.db.WithContext(ctx).Create(&event).Error
}
