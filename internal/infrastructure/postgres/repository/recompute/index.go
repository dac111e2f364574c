package recompute

import (
	"github.com/LavaJover/shvark-price-service/internal/domain"
)

// CorrectionIndex — активные коррекции окна пересчета, сгруппированные по
// (scopeType, scopeId). Оверлей применяется построчно в памяти: так
// precedence и исключение тестируются изолированно от SQL.
type CorrectionIndex struct {
	byScope map[domain.CorrectionScopeType]map[string][]*domain.Correction
}

func NewCorrectionIndex(corrections []*domain.Correction) *CorrectionIndex {
	index := &CorrectionIndex{
		byScope: make(map[domain.CorrectionScopeType]map[string][]*domain.Correction),
	}
	for _, c := range corrections {
		if c.Revoked() {
			continue
		}
		scoped, ok := index.byScope[c.ScopeType]
		if !ok {
			scoped = make(map[string][]*domain.Correction)
			index.byScope[c.ScopeType] = scoped
		}
		scoped[c.ScopeID] = append(scoped[c.ScopeID], c)
	}

	return index
}

// Ignored: наблюдение выпадает из материализации, если его покрывает
// активная IGNORE-коррекция любого типа области. IGNORE сильнее MULTIPLIER.
func (ix *CorrectionIndex) Ignored(obs *domain.PriceObservation) bool {
	for _, scopeType := range domain.ScopePrecedence {
		for _, c := range ix.matching(scopeType, obs) {
			if c.Action == domain.ActionIgnore && c.Covers(obs.ObservedAt) {
				return true
			}
		}
	}
	return false
}

// Multiplier выбирает ровно одну MULTIPLIER-коррекцию по фиксированному
// precedence PRODUCT > RETAILER > MERCHANT > SOURCE > AFFILIATE > FEED_RUN.
// Если ни одна не покрывает наблюдение — множитель 1.0.
func (ix *CorrectionIndex) Multiplier(obs *domain.PriceObservation) float64 {
	for _, scopeType := range domain.ScopePrecedence {
		for _, c := range ix.matching(scopeType, obs) {
			if c.Action == domain.ActionMultiplier && c.Covers(obs.ObservedAt) && c.Value != nil {
				return *c.Value
			}
		}
	}
	return 1.0
}

func (ix *CorrectionIndex) matching(scopeType domain.CorrectionScopeType, obs *domain.PriceObservation) []*domain.Correction {
	scoped, ok := ix.byScope[scopeType]
	if !ok {
		return nil
	}
	key := domain.ScopeKey(obs, scopeType)
	if key == "" {
		return nil
	}
	return scoped[key]
}
