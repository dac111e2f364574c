package domain

type RetailerEligibility string

const (
	EligibilityEligible   RetailerEligibility = "ELIGIBLE"
	EligibilityIneligible RetailerEligibility = "INELIGIBLE"
	EligibilitySuspended  RetailerEligibility = "SUSPENDED"
)

type RelationshipStatus string

const (
	RelationshipActive     RelationshipStatus = "ACTIVE"
	RelationshipPaused     RelationshipStatus = "PAUSED"
	RelationshipTerminated RelationshipStatus = "TERMINATED"
)

type ListingStatus string

const (
	ListingListed   ListingStatus = "LISTED"
	ListingUnlisted ListingStatus = "UNLISTED"
)

type Retailer struct {
	ID            string
	Name          string
	Eligibility   RetailerEligibility
	Relationships []MerchantRetailerRelationship
}

type MerchantRetailerRelationship struct {
	ID            string
	MerchantID    string
	RetailerID    string
	Status        RelationshipStatus
	ListingStatus ListingStatus
}

// Visible решает, видны ли наблюдения ритейлера конечным пользователям.
// Ритейлер без единой ACTIVE-связи считается crawl-only и остается видимым;
// ACTIVE+UNLISTED без хотя бы одной ACTIVE+LISTED скрывает его.
func Visible(retailer *Retailer) bool {
	if retailer.Eligibility != EligibilityEligible {
		return false
	}

	hasActive := false
	for _, rel := range retailer.Relationships {
		if rel.Status != RelationshipActive {
			continue
		}
		hasActive = true
		if rel.ListingStatus == ListingListed {
			return true
		}
	}

	return !hasActive
}

type RetailerRepository interface {
	GetRetailerByID(retailerID string) (*Retailer, error)
	// ScopeExists проверяет существование сущности, на которую ссылается коррекция
	ScopeExists(scopeType CorrectionScopeType, scopeID string) (bool, error)
}
