package domain

import "time"

type CorrectionScopeType string

const (
	ScopeProduct   CorrectionScopeType = "PRODUCT"
	ScopeRetailer  CorrectionScopeType = "RETAILER"
	ScopeMerchant  CorrectionScopeType = "MERCHANT"
	ScopeSource    CorrectionScopeType = "SOURCE"
	ScopeAffiliate CorrectionScopeType = "AFFILIATE"
	ScopeFeedRun   CorrectionScopeType = "FEED_RUN"
)

// ScopePrecedence — порядок выбора MULTIPLIER-коррекции, когда наблюдение
// попадает под несколько областей. Применяется ровно одна, без стекинга.
var ScopePrecedence = []CorrectionScopeType{
	ScopeProduct,
	ScopeRetailer,
	ScopeMerchant,
	ScopeSource,
	ScopeAffiliate,
	ScopeFeedRun,
}

func ValidScopeType(scopeType CorrectionScopeType) bool {
	for _, st := range ScopePrecedence {
		if st == scopeType {
			return true
		}
	}
	return false
}

type CorrectionAction string

const (
	ActionIgnore     CorrectionAction = "IGNORE"
	ActionMultiplier CorrectionAction = "MULTIPLIER"
)

const MaxMultiplierValue = 10.0

// Correction — ручная корректировка цен, ограниченная полуинтервалом
// [StartTs, EndTs). Коррекции никогда не удаляются, только отзываются.
type Correction struct {
	ID           string
	ScopeType    CorrectionScopeType
	ScopeID      string
	StartTs      time.Time
	EndTs        time.Time
	Action       CorrectionAction
	Value        *float64
	Reason       string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RevokedAt    *time.Time
	RevokedBy    string
	RevokeReason string
}

func (c *Correction) Revoked() bool {
	return c.RevokedAt != nil
}

// Covers: StartTs <= ts < EndTs
func (c *Correction) Covers(ts time.Time) bool {
	return !ts.Before(c.StartTs) && ts.Before(c.EndTs)
}

// Overlaps проверяет пересечение с другим полуинтервалом [start, end).
// Смежные интервалы (end == start) пересечением не считаются.
func (c *Correction) Overlaps(start, end time.Time) bool {
	return c.StartTs.Before(end) && start.Before(c.EndTs)
}

// ScopeKey возвращает id сущности наблюдения для данного типа области
// (пустая строка, если наблюдение этим измерением не обладает).
func ScopeKey(obs *PriceObservation, scopeType CorrectionScopeType) string {
	switch scopeType {
	case ScopeProduct:
		return obs.ProductID
	case ScopeRetailer:
		return obs.RetailerID
	case ScopeMerchant:
		return obs.MerchantID
	case ScopeSource:
		return obs.SourceID
	case ScopeAffiliate:
		return obs.AffiliateID
	case ScopeFeedRun:
		return obs.RunID
	}
	return ""
}

type CorrectionFilter struct {
	ScopeType      CorrectionScopeType
	ScopeID        string
	IncludeRevoked bool
	ActiveAt       time.Time
}

type CorrectionRepository interface {
	// CreateCorrection записывает коррекцию вместе с PENDING-джобой пересчета
	// и outbox-строкой в одной транзакции (transactional outbox)
	CreateCorrection(correction *Correction, intent *RecomputeJob) error
	GetCorrectionByID(correctionID string) (*Correction, error)
	// FindConflicting возвращает неотозванную коррекцию той же области,
	// чей интервал пересекает [start, end), либо nil
	FindConflicting(scopeType CorrectionScopeType, scopeID string, start, end time.Time) (*Correction, error)
	ListCorrections(filter CorrectionFilter, page, limit int32) ([]*Correction, int64, error)
	GetCorrectionsByScope(scopeType CorrectionScopeType, scopeID string) ([]*Correction, error)
	// RevokeCorrection проставляет поля отзыва и пишет джобу+outbox в одной транзакции
	RevokeCorrection(correctionID, revokedBy, reason string, revokedAt time.Time, intent *RecomputeJob) error
	// ListActiveInWindow возвращает неотозванные коррекции, пересекающие [from, to)
	ListActiveInWindow(from, to time.Time) ([]*Correction, error)
}
