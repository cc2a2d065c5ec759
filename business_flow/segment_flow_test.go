package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercat-labs/loyalty-platform/app/dto"
	"github.com/mercat-labs/loyalty-platform/models"
)

func TestNormalizeSegmentFilters(t *testing.T) {
	t.Run("nil filters", func(t *testing.T) {
		criteria := NormalizeSegmentFilters(nil)
		assert.Nil(t, criteria.LastDays)
		assert.Nil(t, criteria.MinTotalSpent)
		assert.Nil(t, criteria.MinNumPurchases)
		assert.Nil(t, criteria.PreferencesContains)
		assert.False(t, criteria.HasPurchaseCriteria())
	})

	t.Run("json float values", func(t *testing.T) {
		criteria := NormalizeSegmentFilters(models.JSONMap{
			"last_days":         float64(30),
			"min_total_spent":   float64(50.5),
			"min_num_purchases": float64(3),
		})
		require.NotNil(t, criteria.LastDays)
		assert.Equal(t, 30, *criteria.LastDays)
		require.NotNil(t, criteria.MinTotalSpent)
		assert.Equal(t, 50.5, *criteria.MinTotalSpent)
		require.NotNil(t, criteria.MinNumPurchases)
		assert.Equal(t, 3, *criteria.MinNumPurchases)
		assert.True(t, criteria.HasPurchaseCriteria())
	})

	t.Run("string values are coerced", func(t *testing.T) {
		criteria := NormalizeSegmentFilters(models.JSONMap{
			"last_days":       "14",
			"min_total_spent": "25",
		})
		require.NotNil(t, criteria.LastDays)
		assert.Equal(t, 14, *criteria.LastDays)
		require.NotNil(t, criteria.MinTotalSpent)
		assert.Equal(t, 25.0, *criteria.MinTotalSpent)
	})

	t.Run("non positive values dropped", func(t *testing.T) {
		criteria := NormalizeSegmentFilters(models.JSONMap{
			"last_days":         float64(0),
			"min_total_spent":   float64(-10),
			"min_num_purchases": "garbage",
		})
		assert.Nil(t, criteria.LastDays)
		assert.Nil(t, criteria.MinTotalSpent)
		assert.Nil(t, criteria.MinNumPurchases)
	})

	t.Run("preference requirements", func(t *testing.T) {
		criteria := NormalizeSegmentFilters(models.JSONMap{
			"preferences_contains": map[string]any{
				"diet":    "vegetarian",
				"ignored": float64(3),
				"blank":   "  ",
			},
		})
		require.NotNil(t, criteria.PreferencesContains)
		assert.Equal(t, map[string]string{"diet": "vegetarian"}, criteria.PreferencesContains)
		assert.False(t, criteria.HasPurchaseCriteria())
	})
}

func TestMatchesPreferences(t *testing.T) {
	prefs := models.JSONMap{
		"diet":            "Vegetarian",
		"wine_preference": "tinto",
		"budget":          float64(3),
	}

	tests := []struct {
		name     string
		required map[string]string
		expected bool
	}{
		{name: "no requirements", required: nil, expected: true},
		{name: "case insensitive match", required: map[string]string{"diet": "vegetarian"}, expected: true},
		{name: "multiple keys all match", required: map[string]string{"diet": "VEGETARIAN", "wine_preference": "Tinto"}, expected: true},
		{name: "value mismatch", required: map[string]string{"diet": "vegan"}, expected: false},
		{name: "missing key", required: map[string]string{"language": "ca"}, expected: false},
		{name: "non string stored value", required: map[string]string{"budget": "3"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchesPreferences(prefs, tt.required))
		})
	}

	t.Run("empty preferences never match", func(t *testing.T) {
		assert.False(t, MatchesPreferences(nil, nil))
		assert.False(t, MatchesPreferences(models.JSONMap{}, map[string]string{"diet": "vegan"}))
	})
}

type fakePurchaseRecordRepo struct {
	aggregates      []models.UserSpendingAggregate
	purchasers      []uuid.UUID
	aggregateCalled bool
	distinctCalled  bool
}

func (f *fakePurchaseRecordRepo) ByID(ctx context.Context, id uuid.UUID) (*models.PurchaseRecord, error) {
	return nil, nil
}

func (f *fakePurchaseRecordRepo) ByFilter(ctx context.Context, filter models.PurchaseRecordFilter, orderBy string, limit, offset int) ([]*models.PurchaseRecord, error) {
	return nil, nil
}

func (f *fakePurchaseRecordRepo) Save(ctx context.Context, record *models.PurchaseRecord) error {
	return nil
}

func (f *fakePurchaseRecordRepo) SaveBatch(ctx context.Context, records []*models.PurchaseRecord) error {
	return nil
}

func (f *fakePurchaseRecordRepo) Update(ctx context.Context, record *models.PurchaseRecord) error {
	return nil
}

func (f *fakePurchaseRecordRepo) Count(ctx context.Context, filter models.PurchaseRecordFilter) (int64, error) {
	return 0, nil
}

func (f *fakePurchaseRecordRepo) Exists(ctx context.Context, filter models.PurchaseRecordFilter) (bool, error) {
	return false, nil
}

func (f *fakePurchaseRecordRepo) ByTicketID(ctx context.Context, ticketID uuid.UUID) (*models.PurchaseRecord, error) {
	return nil, nil
}

func (f *fakePurchaseRecordRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.PurchaseRecord, error) {
	return nil, nil
}

func (f *fakePurchaseRecordRepo) Summary(ctx context.Context, userID uuid.UUID, topProducts int) (*models.PurchaseSummary, error) {
	return nil, nil
}

func (f *fakePurchaseRecordRepo) SpendingWindow(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.SpendingPeriodEntry, error) {
	return nil, nil
}

func (f *fakePurchaseRecordRepo) AggregateByUser(ctx context.Context, since *time.Time) ([]models.UserSpendingAggregate, error) {
	f.aggregateCalled = true
	return f.aggregates, nil
}

func (f *fakePurchaseRecordRepo) DistinctUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	f.distinctCalled = true
	return f.purchasers, nil
}

func (f *fakePurchaseRecordRepo) TotalSpent(ctx context.Context) (float64, error) { return 0, nil }

type fakePreferenceFlow struct {
	prefs      map[uuid.UUID]map[string]any
	failing    map[uuid.UUID]bool
	inferFlags []bool
}

func (f *fakePreferenceFlow) GetPreferences(ctx context.Context, userID uuid.UUID, infer bool) (*dto.PreferencesResponse, error) {
	f.inferFlags = append(f.inferFlags, infer)
	if f.failing[userID] {
		return nil, NewBusinessError("PREFERENCES_FAILED", "Failed to infer preferences", errors.New("model unreachable"))
	}
	return &dto.PreferencesResponse{UserID: userID, Preferences: f.prefs[userID]}, nil
}

func (f *fakePreferenceFlow) InferAll(ctx context.Context) (*dto.InferAllResponse, error) {
	return nil, nil
}

func (f *fakePreferenceFlow) InferRecent(ctx context.Context, daysBack int) (*dto.InferAllResponse, error) {
	return nil, nil
}

func (f *fakePreferenceFlow) Summary(ctx context.Context) (*dto.PreferencesSummaryResponse, error) {
	return nil, nil
}

func TestSegmentCompile(t *testing.T) {
	matching := uuid.New()
	mismatched := uuid.New()
	unresolvable := uuid.New()

	t.Run("preference only segment resolves purchasers through inference", func(t *testing.T) {
		repo := &fakePurchaseRecordRepo{purchasers: []uuid.UUID{matching, mismatched, unresolvable}}
		preferences := &fakePreferenceFlow{
			prefs: map[uuid.UUID]map[string]any{
				matching:   {"diet": "Vegetarian"},
				mismatched: {"diet": "omnivore"},
			},
			failing: map[uuid.UUID]bool{unresolvable: true},
		}
		sf := &SegmentFlowImpl{purchaseRepo: repo, preferences: preferences}

		segment := &models.Segment{Filters: models.JSONMap{
			"preferences_contains": map[string]any{"diet": "vegetarian"},
		}}
		members, err := sf.compile(context.Background(), segment)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{matching}, members)

		assert.True(t, repo.distinctCalled)
		assert.False(t, repo.aggregateCalled)
		require.Len(t, preferences.inferFlags, 3)
		for _, infer := range preferences.inferFlags {
			assert.True(t, infer)
		}
	})

	t.Run("purchase criteria narrow candidates before preferences refine", func(t *testing.T) {
		underSpent := uuid.New()
		repo := &fakePurchaseRecordRepo{aggregates: []models.UserSpendingAggregate{
			{UserID: matching, TotalSpent: 60, PurchaseCount: 3},
			{UserID: underSpent, TotalSpent: 40, PurchaseCount: 5},
			{UserID: mismatched, TotalSpent: 80, PurchaseCount: 2},
		}}
		preferences := &fakePreferenceFlow{
			prefs: map[uuid.UUID]map[string]any{
				matching:   {"diet": "vegetarian"},
				mismatched: {"diet": "omnivore"},
			},
		}
		sf := &SegmentFlowImpl{purchaseRepo: repo, preferences: preferences}

		segment := &models.Segment{Filters: models.JSONMap{
			"min_total_spent":      float64(50),
			"preferences_contains": map[string]any{"diet": "vegetarian"},
		}}
		members, err := sf.compile(context.Background(), segment)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{matching}, members)

		assert.True(t, repo.aggregateCalled)
		assert.False(t, repo.distinctCalled)
		assert.Len(t, preferences.inferFlags, 2)
	})

	t.Run("purchase only criteria never touch preferences", func(t *testing.T) {
		frequent := uuid.New()
		occasional := uuid.New()
		repo := &fakePurchaseRecordRepo{aggregates: []models.UserSpendingAggregate{
			{UserID: frequent, TotalSpent: 30, PurchaseCount: 4},
			{UserID: occasional, TotalSpent: 90, PurchaseCount: 1},
		}}
		preferences := &fakePreferenceFlow{}
		sf := &SegmentFlowImpl{purchaseRepo: repo, preferences: preferences}

		segment := &models.Segment{Filters: models.JSONMap{
			"min_num_purchases": float64(2),
		}}
		members, err := sf.compile(context.Background(), segment)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{frequent}, members)
		assert.Empty(t, preferences.inferFlags)
	})

	t.Run("empty filters compile to the purchaser universe", func(t *testing.T) {
		repo := &fakePurchaseRecordRepo{purchasers: []uuid.UUID{matching, mismatched}}
		sf := &SegmentFlowImpl{purchaseRepo: repo, preferences: &fakePreferenceFlow{}}

		members, err := sf.compile(context.Background(), &models.Segment{Filters: models.JSONMap{}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{matching, mismatched}, members)
	})
}
