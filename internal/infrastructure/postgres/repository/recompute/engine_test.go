package recompute

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/LavaJover/shvark-price-service/internal/domain"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/models"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.RetailerModel{},
		&models.MerchantRetailerRelationshipModel{},
		&models.ProductModel{},
		&models.MerchantModel{},
		&models.SourceModel{},
		&models.AffiliateModel{},
		&models.IngestionRunModel{},
		&models.PriceObservationModel{},
		&models.CorrectionModel{},
		&models.VisiblePriceRowModel{},
		&models.RecomputeJobModel{},
		&models.RecomputeOutboxModel{},
		&models.ScheduledTaskModel{},
		&models.CorrectionEventModel{},
	))

	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(db *gorm.DB) *Engine {
	return NewEngine(db, repository.NewDefaultCorrectionRepository(db), 7*24*time.Hour, 1000, testLogger())
}

func seedRetailer(t *testing.T, db *gorm.DB, id string, eligibility domain.RetailerEligibility, rels ...models.MerchantRetailerRelationshipModel) {
	t.Helper()
	require.NoError(t, db.Create(&models.RetailerModel{ID: id, Name: id, Eligibility: eligibility}).Error)
	for i := range rels {
		rels[i].RetailerID = id
		require.NoError(t, db.Create(&rels[i]).Error)
	}
}

func seedObservation(t *testing.T, db *gorm.DB, id, productID, retailerID string, price float64, observedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.PriceObservationModel{
		ID: id,
		ProductID: productID,
		RetailerID: retailerID,
		MerchantID: "m1",
		SourceID: "s1",
		ObservedAt: observedAt,
		Price: price,
		Currency: "USD",
		InStock: true,
		RunType: "SCHEDULED",
		RunID: "run1",
	}).Error)
}

func seedCorrection(t *testing.T, db *gorm.DB, c models.CorrectionModel) {
	t.Helper()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	require.NoError(t, db.Create(&c).Error)
}

func runFull(t *testing.T, db *gorm.DB) *domain.RecomputeResult {
	t.Helper()
	engine := newTestEngine(db)
	job := NewJob(domain.RecomputeScopeFull, "", domain.ReasonManual, "test", 3)
	result, err := engine.Run(context.Background(), job)
	require.NoError(t, err)
	return result
}

func derivedRows(t *testing.T, db *gorm.DB) []models.VisiblePriceRowModel {
	t.Helper()
	var rows []models.VisiblePriceRowModel
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	return rows
}

// Scenario A: ELIGIBLE без связей — наблюдения материализуются
func TestEngine_EligibleCrawlOnlyRetailerIsMaterialized(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	result := runFull(t, db)

	assert.Equal(t, int64(1), result.Processed)
	assert.Equal(t, int64(1), result.Inserted)

	rows := derivedRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, 10.00, rows[0].VisiblePrice)
	assert.Equal(t, 1.0, rows[0].AppliedMultiplier)
}

// Scenario B: ELIGIBLE с единственной ACTIVE+UNLISTED связью — скрыт
func TestEngine_ActiveUnlistedRetailerIsHidden(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible, models.MerchantRetailerRelationshipModel{
		ID: "rel1", MerchantID: "m1", Status: domain.RelationshipActive, ListingStatus: domain.ListingUnlisted,
	})
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	result := runFull(t, db)

	assert.Equal(t, int64(0), result.Processed)
	assert.Empty(t, derivedRows(t, db))
}

func TestEngine_IneligibleRetailerIsHidden(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilitySuspended)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	runFull(t, db)
	assert.Empty(t, derivedRows(t, db))
}

// Scenario C: MULTIPLIER 0.9 на продукт — visiblePrice 9.00
func TestEngine_MultiplierCorrectionApplied(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	value := 0.9
	seedCorrection(t, db, models.CorrectionModel{
		ID: "c1",
		ScopeType: domain.ScopeProduct,
		ScopeID: "p1",
		StartTs: time.Now().Add(-24 * time.Hour),
		EndTs: time.Now().Add(24 * time.Hour),
		Action: domain.ActionMultiplier,
		Value: &value,
	})

	runFull(t, db)

	rows := derivedRows(t, db)
	require.Len(t, rows, 1)
	assert.InDelta(t, 9.00, rows[0].VisiblePrice, 1e-9)
	assert.InDelta(t, 0.9, rows[0].AppliedMultiplier, 1e-9)
	assert.Equal(t, 10.00, rows[0].RawPrice)
}

// Scenario D: после отзыва коррекции следующий пересчет возвращает сырую цену
func TestEngine_RevokedCorrectionNoLongerApplies(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	value := 0.9
	revokedAt := time.Now()
	seedCorrection(t, db, models.CorrectionModel{
		ID: "c1",
		ScopeType: domain.ScopeProduct,
		ScopeID: "p1",
		StartTs: time.Now().Add(-24 * time.Hour),
		EndTs: time.Now().Add(24 * time.Hour),
		Action: domain.ActionMultiplier,
		Value: &value,
		RevokedAt: &revokedAt,
	})

	runFull(t, db)

	rows := derivedRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, 10.00, rows[0].VisiblePrice)
}

func TestEngine_ProductPrecedesRetailerMultiplier(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	productValue, retailerValue := 0.9, 0.5
	seedCorrection(t, db, models.CorrectionModel{
		ID: "c-product", ScopeType: domain.ScopeProduct, ScopeID: "p1",
		StartTs: time.Now().Add(-24 * time.Hour), EndTs: time.Now().Add(24 * time.Hour),
		Action: domain.ActionMultiplier, Value: &productValue,
	})
	seedCorrection(t, db, models.CorrectionModel{
		ID: "c-retailer", ScopeType: domain.ScopeRetailer, ScopeID: "r1",
		StartTs: time.Now().Add(-24 * time.Hour), EndTs: time.Now().Add(24 * time.Hour),
		Action: domain.ActionMultiplier, Value: &retailerValue,
	})

	runFull(t, db)

	rows := derivedRows(t, db)
	require.Len(t, rows, 1)
	assert.InDelta(t, 9.00, rows[0].VisiblePrice, 1e-9, "only PRODUCT multiplier applies, no stacking")
}

func TestEngine_IgnoreCorrectionDropsObservation(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	value := 0.9
	seedCorrection(t, db, models.CorrectionModel{
		ID: "c-mult", ScopeType: domain.ScopeProduct, ScopeID: "p1",
		StartTs: time.Now().Add(-24 * time.Hour), EndTs: time.Now().Add(24 * time.Hour),
		Action: domain.ActionMultiplier, Value: &value,
	})
	seedCorrection(t, db, models.CorrectionModel{
		ID: "c-ignore", ScopeType: domain.ScopeRetailer, ScopeID: "r1",
		StartTs: time.Now().Add(-24 * time.Hour), EndTs: time.Now().Add(24 * time.Hour),
		Action: domain.ActionIgnore,
	})

	result := runFull(t, db)

	assert.Equal(t, int64(1), result.Processed)
	assert.Empty(t, derivedRows(t, db), "IGNORE overrides any MULTIPLIER")
}

func TestEngine_IgnoredRunExcluded(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	require.NoError(t, db.Create(&models.IngestionRunModel{ID: "run1", RunType: "SCHEDULED", Ignored: true}).Error)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))

	runFull(t, db)
	assert.Empty(t, derivedRows(t, db))
}

func TestEngine_LookbackWindowExcludesOldObservations(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs-old", "p1", "r1", 10.00, time.Now().Add(-8*24*time.Hour))
	seedObservation(t, db, "obs-new", "p1", "r1", 12.00, time.Now().Add(-time.Hour))

	runFull(t, db)

	rows := derivedRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, "obs-new", rows[0].ID)
}

func TestEngine_RecomputeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))
	seedObservation(t, db, "obs2", "p2", "r1", 20.00, time.Now().Add(-2*time.Hour))

	runFull(t, db)
	first := derivedRows(t, db)

	result := runFull(t, db)
	second := derivedRows(t, db)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].VisiblePrice, second[i].VisiblePrice)
		assert.Equal(t, first[i].AppliedMultiplier, second[i].AppliedMultiplier)
	}
	assert.Equal(t, int64(2), result.Deleted, "full rebuild re-deletes the previous rows")
}

func TestEngine_ScopedRecomputeLeavesOtherScopesIntact(t *testing.T) {
	db := newTestDB(t)
	seedRetailer(t, db, "r1", domain.EligibilityEligible)
	seedObservation(t, db, "obs1", "p1", "r1", 10.00, time.Now().Add(-time.Hour))
	seedObservation(t, db, "obs2", "p2", "r1", 20.00, time.Now().Add(-time.Hour))

	runFull(t, db)

	// устаревшая строка p1, которую scoped-прогон обязан снести
	require.NoError(t, db.Model(&models.VisiblePriceRowModel{}).
		Where("id = ?", "obs1").
		Update("visible_price", 99.0).Error)

	engine := newTestEngine(db)
	job := NewJob(domain.RecomputeScopeProduct, "p1", domain.ReasonManual, "test", 3)
	result, err := engine.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Deleted)
	assert.Equal(t, int64(1), result.Inserted)

	rows := derivedRows(t, db)
	require.Len(t, rows, 2)
	assert.Equal(t, 10.00, rows[0].VisiblePrice, "stale p1 row rebuilt")
	assert.Equal(t, 20.00, rows[1].VisiblePrice, "p2 row untouched")
}

// Паритет: реляционный предикат VisibleRetailers обязан давать тот же ответ,
// что и построчный domain.Visible, на всех комбинациях статусов и связей
func TestEngine_BulkPredicateMatchesRowByRowVisible(t *testing.T) {
	eligibilities := []domain.RetailerEligibility{
		domain.EligibilityEligible, domain.EligibilityIneligible, domain.EligibilitySuspended,
	}
	relationshipSets := [][]models.MerchantRetailerRelationshipModel{
		nil,
		{{Status: domain.RelationshipPaused, ListingStatus: domain.ListingListed}},
		{{Status: domain.RelationshipActive, ListingStatus: domain.ListingUnlisted}},
		{{Status: domain.RelationshipActive, ListingStatus: domain.ListingListed}},
		{
			{Status: domain.RelationshipActive, ListingStatus: domain.ListingUnlisted},
			{Status: domain.RelationshipActive, ListingStatus: domain.ListingListed},
		},
		{
			{Status: domain.RelationshipTerminated, ListingStatus: domain.ListingListed},
			{Status: domain.RelationshipActive, ListingStatus: domain.ListingUnlisted},
		},
	}

	db := newTestDB(t)
	expected := map[string]bool{}

	i := 0
	for _, eligibility := range eligibilities {
		for _, rels := range relationshipSets {
			retailerID := fmt.Sprintf("r%d", i)
			domainRels := make([]domain.MerchantRetailerRelationship, len(rels))

			seed := make([]models.MerchantRetailerRelationshipModel, len(rels))
			for j, rel := range rels {
				rel.ID = fmt.Sprintf("%s-rel%d", retailerID, j)
				rel.MerchantID = "m1"
				seed[j] = rel
				domainRels[j] = domain.MerchantRetailerRelationship{Status: rel.Status, ListingStatus: rel.ListingStatus}
			}

			seedRetailer(t, db, retailerID, eligibility, seed...)
			seedObservation(t, db, fmt.Sprintf("obs-%s", retailerID), "p1", retailerID, 10.00, time.Now().Add(-time.Hour))

			expected[retailerID] = domain.Visible(&domain.Retailer{
				ID: retailerID,
				Eligibility: eligibility,
				Relationships: domainRels,
			})
			i++
		}
	}

	runFull(t, db)

	materialized := map[string]bool{}
	for _, row := range derivedRows(t, db) {
		materialized[row.RetailerID] = true
	}

	for retailerID, want := range expected {
		assert.Equal(t, want, materialized[retailerID], "retailer %s", retailerID)
	}
}
