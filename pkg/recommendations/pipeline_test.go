package recommendations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/firesurvey/risk-engine/pkg/scoring"
	"github.com/firesurvey/risk-engine/pkg/triggers"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, db *gorm.DB, cfg *PipelineConfig) (*Pipeline, *Store) {
	t.Helper()
	store := NewStore(db)
	cat := testCatalog(t)
	lib := NewLibrary(db, cat, nil)
	return NewPipeline(store, lib, cat, cfg, quietLogger()), store
}

func TestEnsureSkipsAdequateAndUnknownRatings(t *testing.T) {
	db := setupTestDB(t)
	p, _ := newTestPipeline(t, db, nil)
	ctx := context.Background()

	for _, r := range []scoring.Rating{3, 4, 5, scoring.Unknown} {
		assert.Empty(t, p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", r, ""))
	}

	var count int64
	require.NoError(t, db.Model(&Recommendation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureCreatesWithGenericText(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	id := p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", 1, "office")
	require.NotEmpty(t, id)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, rec.Priority)
	assert.Equal(t, "MeansOfEscape", rec.Category)
	assert.Equal(t, SourceAuto, rec.Source)
	assert.Equal(t, StatusOpen, rec.Status)
	assert.Equal(t, 1, rec.TriggerRating)
	assert.Nil(t, rec.TemplateID)
	assert.Equal(t, "Improve means of escape", rec.Title)
	assert.Contains(t, rec.Observation, "rated 1/5")
	assert.NotEmpty(t, rec.ActionRequired)
	assert.NotEmpty(t, rec.Hazard)
}

func TestEnsureMediumPriorityAtTwo(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	id := p.EnsureRecommendationFromRating(ctx, "doc-1", "compartmentation", "compartmentation", 2, "")
	require.NotEmpty(t, id)
	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, rec.Priority)
}

func TestEnsureIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	first := p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", 1, "")
	second := p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", 2, "")
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	// No content overwrite on the second call.
	rec, err := store.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, rec.Priority)

	// A recovered rating leaves the record untouched.
	assert.Empty(t, p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", 4, ""))
	rec, err = store.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, rec.Status)

	var count int64
	require.NoError(t, db.Model(&Recommendation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureResolvesModuleAliases(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	legacy := p.EnsureRecommendationFromRating(ctx, "doc-1", "escape_routes", "means_of_escape", 1, "")
	canonical := p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", 1, "")
	assert.Equal(t, legacy, canonical)

	rec, err := store.Get(ctx, legacy)
	require.NoError(t, err)
	assert.Equal(t, "means_of_escape", rec.SourceModuleKey)
}

func TestEnsureConcurrentCallsCreateOne(t *testing.T) {
	db := setupTestDB(t)
	p, _ := newTestPipeline(t, db, nil)
	ctx := context.Background()

	ids := make([]string, 8)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			ids[i] = p.EnsureRecommendationFromRating(ctx, "doc-1", "detection_and_alarm", "detection_and_alarm", 1, "")
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, db.Model(&Recommendation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureUsesTemplateWithFallback(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	_, err := p.library.Seed(ctx, []Template{{
		ID: "tpl-1", Name: "mgmt", Active: true, Priority: 10,
		FactorKeys: []string{"management_systems"},
		Title:      "Strengthen fire safety management",
	}})
	require.NoError(t, err)

	id := p.EnsureRecommendationFromRating(ctx, "doc-1", "mgmt", "management_systems", 2, "")
	require.NotEmpty(t, id)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec.TemplateID)
	assert.Equal(t, "tpl-1", *rec.TemplateID)
	assert.Equal(t, "Strengthen fire safety management", rec.Title)
	assert.Contains(t, rec.Observation, "Management systems")
	assert.NotEmpty(t, rec.ActionRequired)
	assert.Equal(t, "Management", rec.Category)
}

func TestEnsureRegeneratesAfterSuppression(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	first := p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", 2, "")
	_, err := store.Suppress(ctx, first)
	require.NoError(t, err)

	second := p.EnsureRecommendationFromRating(ctx, "doc-1", "means_of_escape", "means_of_escape", 2, "")
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestEnsureDisabled(t *testing.T) {
	db := setupTestDB(t)
	cfg := DefaultPipelineConfig()
	cfg.Enabled = false
	p, _ := newTestPipeline(t, db, cfg)

	assert.Empty(t, p.EnsureRecommendationFromRating(context.Background(), "doc-1", "means_of_escape", "means_of_escape", 1, ""))
}

func TestEnsureFromTriggerUsesDescriptorVariant(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	descs := triggers.EvaluateBuilding(scoring.Building{
		ID: "b1",
		Factors: scoring.BuildingFactors{
			Sprinklers: 1,
			Detection:  2,
		},
	})
	require.Len(t, descs, 2)

	ids := make(map[string]bool)
	for _, d := range descs {
		id := p.EnsureFromTrigger(ctx, "doc-1", "fire_protection", "", d)
		require.NotEmpty(t, id)
		assert.Equal(t, id, p.EnsureFromTrigger(ctx, "doc-1", "fire_protection", "", d))
		ids[id] = true

		rec, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, d.ID, rec.Variant)
		assert.Equal(t, d.Title, rec.Title)
		assert.Equal(t, string(d.Category), rec.SourceFactorKey)
	}
	assert.Len(t, ids, 2)

	assert.Empty(t, p.EnsureFromTrigger(ctx, "doc-1", "fire_protection", "", triggers.Descriptor{}))
}

func TestEnsureFromTriggerCoverageGapPriority(t *testing.T) {
	db := setupTestDB(t)
	p, store := newTestPipeline(t, db, nil)
	ctx := context.Background()

	d := triggers.Descriptor{
		ID:       triggers.BuildingTriggerID("b1", triggers.Code(triggers.Sprinklers, triggers.FamilyCoverage)),
		Category: weighting.FireProtection,
		Priority: triggers.PriorityHigh,
		Title:    "Extend sprinkler protection coverage",
		Detail:   "Coverage shortfall.",
	}
	id := p.EnsureFromTrigger(ctx, "doc-1", "fire_protection", "", d)
	require.NotEmpty(t, id)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, rec.Priority)
	assert.Equal(t, "FireProtection", rec.Category)
	assert.Equal(t, "Coverage shortfall.", rec.Observation)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestEnsureStoreErrorReturnsEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	p := NewPipeline(NewStore(db), NewLibrary(db, nil, nil), nil, nil, quietLogger())

	mock.ExpectQuery(`SELECT .* FROM "recommendations"`).
		WillReturnError(errors.New("connection refused"))

	id := p.EnsureRecommendationFromRating(context.Background(), "doc-1", "means_of_escape", "means_of_escape", 1, "")
	assert.Empty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTemplateErrorReturnsEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	p := NewPipeline(NewStore(db), NewLibrary(db, nil, nil), nil, nil, quietLogger())

	mock.ExpectQuery(`SELECT .* FROM "recommendations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT .* FROM "recommendation_templates"`).
		WillReturnError(errors.New("relation does not exist"))

	id := p.EnsureRecommendationFromRating(context.Background(), "doc-1", "means_of_escape", "means_of_escape", 1, "")
	assert.Empty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureStoreTimeoutFailsClosed(t *testing.T) {
	db, mock := setupMockDB(t)
	cfg := DefaultPipelineConfig()
	cfg.StoreTimeout = 50 * time.Millisecond
	p := NewPipeline(NewStore(db), NewLibrary(db, nil, nil), nil, cfg, quietLogger())

	mock.ExpectQuery(`SELECT .* FROM "recommendations"`).
		WillDelayFor(2 * time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	start := time.Now()
	id := p.EnsureRecommendationFromRating(context.Background(), "doc-1", "means_of_escape", "means_of_escape", 1, "")
	assert.Empty(t, id)
	assert.Less(t, time.Since(start), time.Second)
}
