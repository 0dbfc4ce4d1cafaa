package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

const testLogin = "ada"

var errBoom = errors.New("boom")

func stocked(id int64) model.Product {
	return model.Product{ID: id, Name: "Product", Quantity: 10, Price: float64(id)}
}

func stockedIn(id int64, category string) model.Product {
	p := stocked(id)
	p.Category = &model.Category{ID: int64(len(category)), Name: category}
	return p
}

func purchase(p model.Product, rating *int, at time.Time) model.PurchaseRecord {
	rec := model.PurchaseRecord{Product: p, AccountLogin: testLogin, PurchasedAt: at}
	if rating != nil {
		rec.Rating = &model.Rating{Value: *rating}
	}
	return rec
}

func rated(v int) *int {
	return &v
}

func productIDs(ps []model.Product) []int64 {
	return model.Products(ps).IDs()
}

func TestRecommend_CountNotPositive(t *testing.T) {
	for _, count := range []int{0, -3} {
		catalog := NewMockCatalog().AddAccount(testLogin)
		r := New(catalog)

		result, err := r.Recommend(context.Background(), testLogin, nil, count)

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
		assert.Empty(t, catalog.Calls(), "no collaborator may be consulted for count %d", count)
	}
}

func TestRecommend_UnknownAccount(t *testing.T) {
	catalog := NewMockCatalog()
	catalog.SetSupplier(service.SupplierAvailable, stocked(1))
	r := New(catalog)

	result, err := r.Recommend(context.Background(), "no-such-user", nil, 3)

	require.ErrorIs(t, err, common.ErrAccountNotFound)
	assert.Contains(t, err.Error(), "no-such-user")
	assert.Nil(t, result)
	assert.Equal(t, []string{"GetAccountByLogin"}, catalog.Calls())
}

func TestRecommend_AccountLookupError(t *testing.T) {
	catalog := NewMockCatalog().AddAccount(testLogin).FailOn("GetAccountByLogin", errBoom)
	r := New(catalog)

	_, err := r.Recommend(context.Background(), testLogin, nil, 3)

	require.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, common.ErrAccountNotFound)
}

func TestRecommend_PureHistoryFallback(t *testing.T) {
	p1 := stocked(1)
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		SetMostFrequentPurchases(testLogin, purchase(p1, nil, time.Now())).
		SetSupplier(service.SupplierAvailable, stocked(2), stocked(3), stocked(4), stocked(5))
	r := New(catalog)

	result, err := r.Recommend(context.Background(), testLogin, nil, 3)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, productIDs(result))
}

func TestRecommend_BestRatedPurchaseComesFirst(t *testing.T) {
	now := time.Now()
	// P4 is listed first so that order of return does not decide the tie.
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		SetMostFrequentPurchases(testLogin,
			purchase(stocked(4), rated(4), now),
			purchase(stocked(1), rated(2), now),
			purchase(stocked(2), nil, now),
			purchase(stocked(3), rated(4), now),
		)
	r := New(catalog)

	result, err := r.Recommend(context.Background(), testLogin, nil, 1)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(3), result[0].ID)
}

func TestBestRatedPurchase(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	tests := []struct {
		name        string
		records     []model.PurchaseRecord
		wantID      int64
		wantAt      time.Time
		wantMissing bool
	}{
		{
			name:        "no records",
			wantMissing: true,
		},
		{
			name: "unrated counts as zero",
			records: []model.PurchaseRecord{
				purchase(stocked(1), nil, older),
				purchase(stocked(2), rated(1), older),
			},
			wantID: 2,
			wantAt: older,
		},
		{
			name: "tie goes to smallest product ID",
			records: []model.PurchaseRecord{
				purchase(stocked(9), rated(5), newer),
				purchase(stocked(7), rated(5), older),
			},
			wantID: 7,
			wantAt: older,
		},
		{
			name: "same product prefers most recent purchase",
			records: []model.PurchaseRecord{
				purchase(stocked(3), rated(5), older),
				purchase(stocked(3), rated(5), newer),
			},
			wantID: 3,
			wantAt: newer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := bestRatedPurchase(tt.records)
			if tt.wantMissing {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, best.Product.ID)
			assert.True(t, tt.wantAt.Equal(best.PurchasedAt))
		})
	}
}

func TestRecommend_PreferenceScoringOrder(t *testing.T) {
	const a, b, c, d = 1, 2, 3, 4
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stocked(a), stocked(b), stocked(c), stocked(d))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{
			a: model.ScoreOf(24),
			b: model.ScoreOf(12),
			c: model.ScoreOf(33),
			d: model.ScoreOf(41.5),
		},
	}

	result, err := r.Recommend(context.Background(), testLogin, prefs, 3)

	require.NoError(t, err)
	assert.Equal(t, []int64{d, c, a}, productIDs(result))
}

func TestRecommend_NaNScoreDoesNotWin(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stocked(1), stocked(2), stocked(3), stocked(4))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{
			1: model.ScoreOf(math.NaN()),
			2: model.ScoreOf(50),
			3: model.ScoreOf(10),
			4: model.ScoreOf(20),
		},
	}

	// Map iteration order varies between runs; the pick must not.
	for range 50 {
		result, err := r.Recommend(context.Background(), testLogin, prefs, 1)
		require.NoError(t, err)
		require.Equal(t, []int64{2}, productIDs(result))
	}

	result, err := r.Recommend(context.Background(), testLogin, prefs, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 3, 1}, productIDs(result))
}

func TestRecommend_CategoryWeighting(t *testing.T) {
	const x, y, z = 1, 2, 3
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stockedIn(x, "Cat1"), stocked(y), stocked(z))
	r := New(catalog)

	// z takes the most searched slot, leaving x and y to the merged ordering.
	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{
			x: model.ScoreOf(40),
			y: model.ScoreOf(60),
			z: model.ScoreOf(70),
		},
		CategoryScores: map[string]float64{"Cat1": 25},
	}

	result, err := r.RecommendDetailed(context.Background(), testLogin, prefs, 3)

	require.NoError(t, err)
	require.Equal(t, []int64{z, x, y}, candidateIDs(result))
	assert.Equal(t, TierMostSearched, result[0].Tier)
	assert.Equal(t, TierPreference, result[1].Tier)
	require.NotNil(t, result[1].Score)
	assert.InDelta(t, 65.0, *result[1].Score, 1e-9)
	require.NotNil(t, result[2].Score)
	assert.InDelta(t, 60.0, *result[2].Score, 1e-9)
}

func TestRecommend_UnscoredCategoryContributesZero(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stockedIn(1, "Books"), stockedIn(2, "Tea"))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{
			1: model.ScoreOf(10),
			2: model.ScoreOf(12),
		},
		CategoryScores: map[string]float64{"Books": 5},
	}

	result, err := r.RecommendDetailed(context.Background(), testLogin, prefs, 2)

	require.NoError(t, err)
	// 2 is most searched; the scored list is then 1 (15) before 2 (12).
	assert.Equal(t, []int64{2, 1}, candidateIDs(result))
	assert.InDelta(t, 15.0, *result[1].Score, 1e-9)
}

func TestRecommend_MissingScoresAndUnknownProducts(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stocked(1), stocked(2), stocked(3))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{
			1:   nil,
			2:   model.ScoreOf(-3),
			3:   model.ScoreOf(0),
			404: model.ScoreOf(100),
		},
	}

	result, err := r.RecommendDetailed(context.Background(), testLogin, prefs, 5)

	require.NoError(t, err)
	// The unresolved 404 wins the most searched lookup and is dropped.
	// Equal scores of 1 (missing) and 3 keep ID order.
	assert.Equal(t, []int64{1, 3, 2}, candidateIDs(result))
	assert.Equal(t, 1, catalog.CallCount("GetProduct"))
	assert.Equal(t, 1, catalog.CallCount("GetProductsByIDs"))
}

func TestRecommend_MostSearchedSkipsAccumulated(t *testing.T) {
	now := time.Now()
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stocked(1), stocked(2)).
		SetMostFrequentPurchases(testLogin, purchase(stocked(1), rated(3), now))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{
			1: model.ScoreOf(90),
			2: model.ScoreOf(10),
		},
	}

	result, err := r.RecommendDetailed(context.Background(), testLogin, prefs, 2)

	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, candidateIDs(result))
	assert.Equal(t, TierHistory, result[0].Tier)
	assert.Equal(t, TierMostSearched, result[1].Tier)
}

func TestRecommend_CategoryFallback(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(
			stockedIn(1, "Books"),
			stockedIn(2, "Tea"),
			stockedIn(3, "Tea"),
			stockedIn(4, "Garden"),
		)
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		CategoryScores: map[string]float64{
			"Books":   10,
			"Tea":     30,
			"Garden":  5,
			"Missing": 50,
		},
	}

	result, err := r.RecommendDetailed(context.Background(), testLogin, prefs, 2)

	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, candidateIDs(result))
	assert.Equal(t, TierCategory, result[0].Tier)
	// Missing is tried first, then Tea fills the request.
	assert.Equal(t, 2, catalog.CallCount("GetCategoryByName"))
	assert.Equal(t, 1, catalog.CallCount("GetProductsInCategory"))
	assert.Zero(t, catalog.CallCount("GetBestRatedProducts"))
}

func TestRecommend_CategoryTiesOrderedByName(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stockedIn(1, "Zines"), stockedIn(2, "Art"))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		CategoryScores: map[string]float64{"Zines": 7, "Art": 7},
	}

	result, err := r.Recommend(context.Background(), testLogin, prefs, 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, productIDs(result))
}

func TestRecommend_ExhaustionAndSupplementation(t *testing.T) {
	now := time.Now()
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stocked(2)).
		SetMostFrequentPurchases(testLogin, purchase(stocked(1), nil, now)).
		SetSupplier(service.SupplierBestRated, stocked(1), stocked(10)).
		SetSupplier(service.SupplierNewest, stocked(11)).
		SetSupplier(service.SupplierCheapest, stocked(12), stocked(13)).
		SetSupplier(service.SupplierRunningOut, stocked(14)).
		SetSupplier(service.SupplierAvailable, stocked(15))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{2: model.ScoreOf(1)},
	}

	result, err := r.RecommendDetailed(context.Background(), testLogin, prefs, 5)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 10, 11, 12}, candidateIDs(result))
	assert.Equal(t, SupplierTier(service.SupplierBestRated), result[2].Tier)
	assert.Equal(t, SupplierTier(service.SupplierNewest), result[3].Tier)
	assert.Equal(t, SupplierTier(service.SupplierCheapest), result[4].Tier)
	assert.Zero(t, catalog.CallCount("GetRunningOutProducts"))
	assert.Zero(t, catalog.CallCount("GetAvailableProducts"))
}

func TestRecommend_AvailabilityFilter(t *testing.T) {
	now := time.Now()
	archived := stocked(1)
	archived.Archival = true
	soldOut := stocked(2)
	soldOut.Quantity = 0

	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(soldOut, stocked(3)).
		SetMostFrequentPurchases(testLogin, purchase(archived, rated(5), now)).
		SetSupplier(service.SupplierAvailable, stocked(4))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores: map[int64]*float64{
			2: model.ScoreOf(50),
			3: model.ScoreOf(10),
		},
	}

	result, err := r.Recommend(context.Background(), testLogin, prefs, 5)

	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, productIDs(result))
	for _, p := range result {
		assert.True(t, p.Available())
	}
}

func TestRecommend_SupplierFailureDoesNotStopLaterSuppliers(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		FailOn("GetBestRatedProducts", errBoom).
		FailOn("GetCheapestProducts", errBoom).
		SetSupplier(service.SupplierNewest, stocked(1)).
		SetSupplier(service.SupplierAvailable, stocked(2))
	r := New(catalog)

	result, err := r.Recommend(context.Background(), testLogin, nil, 3)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, productIDs(result))
	for _, method := range []string{
		"GetBestRatedProducts",
		"GetNewestProducts",
		"GetCheapestProducts",
		"GetRunningOutProducts",
		"GetAvailableProducts",
	} {
		assert.Equal(t, 1, catalog.CallCount(method), method)
	}
}

func TestRecommend_TierFailuresAreSkipped(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stockedIn(1, "Books")).
		FailOn("GetMostFrequentPurchases", errBoom).
		FailOn("GetProduct", errBoom).
		FailOn("GetProductsByIDs", errBoom).
		FailOn("GetProductsInCategory", errBoom).
		SetSupplier(service.SupplierAvailable, stocked(9))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores:  map[int64]*float64{1: model.ScoreOf(3)},
		CategoryScores: map[string]float64{"Books": 1},
	}

	result, err := r.Recommend(context.Background(), testLogin, prefs, 2)

	require.NoError(t, err)
	assert.Equal(t, []int64{9}, productIDs(result))
}

func TestRecommend_SizeBoundAndUniqueness(t *testing.T) {
	now := time.Now()
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		AddProducts(stockedIn(1, "Books"), stockedIn(2, "Books"), stocked(3)).
		SetMostFrequentPurchases(testLogin, purchase(stocked(1), rated(2), now)).
		SetSupplier(service.SupplierBestRated, stocked(2), stocked(3), stocked(4)).
		SetSupplier(service.SupplierNewest, stocked(4), stocked(5)).
		SetSupplier(service.SupplierCheapest, stocked(1), stocked(6)).
		SetSupplier(service.SupplierRunningOut, stocked(6), stocked(7)).
		SetSupplier(service.SupplierAvailable, stocked(1), stocked(2), stocked(8))
	r := New(catalog)

	prefs := &model.PreferenceBundle{
		ProductScores:  map[int64]*float64{3: model.ScoreOf(4), 1: model.ScoreOf(9)},
		CategoryScores: map[string]float64{"Books": 2},
	}

	for count := 1; count <= 12; count++ {
		result, err := r.Recommend(context.Background(), testLogin, prefs, count)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(result), count)

		seen := make(map[int64]bool)
		for _, p := range result {
			assert.False(t, seen[p.ID], "product %d repeated for count %d", p.ID, count)
			seen[p.ID] = true
		}
	}

	all, err := r.Recommend(context.Background(), testLogin, prefs, 100)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestRecommend_SnapshotIsRolledBack(t *testing.T) {
	t.Run("after success", func(t *testing.T) {
		catalog := NewMockSnapshotCatalog(NewMockCatalog().AddAccount(testLogin))
		r := New(catalog)

		_, err := r.Recommend(context.Background(), testLogin, nil, 2)

		require.NoError(t, err)
		begun, rolledBack := catalog.Snapshots()
		assert.Equal(t, 1, begun)
		assert.Equal(t, 1, rolledBack)
	})

	t.Run("after unknown account", func(t *testing.T) {
		catalog := NewMockSnapshotCatalog(NewMockCatalog())
		r := New(catalog)

		_, err := r.Recommend(context.Background(), "nobody", nil, 2)

		require.ErrorIs(t, err, common.ErrAccountNotFound)
		begun, rolledBack := catalog.Snapshots()
		assert.Equal(t, 1, begun)
		assert.Equal(t, 1, rolledBack)
	})

	t.Run("begin failure", func(t *testing.T) {
		catalog := NewMockSnapshotCatalog(NewMockCatalog().AddAccount(testLogin))
		catalog.FailBegin(errBoom)
		r := New(catalog)

		_, err := r.Recommend(context.Background(), testLogin, nil, 2)

		require.ErrorIs(t, err, errBoom)
		assert.Empty(t, catalog.Calls())
	})
}

func TestRecommend_CancelledContext(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		SetSupplier(service.SupplierAvailable, stocked(1))
	r := New(catalog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Recommend(ctx, testLogin, nil, 2)

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, catalog.CallCount("GetAvailableProducts"))
}

func TestRecommend_CircuitBreakerSkipsFailingSupplier(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		FailOn("GetBestRatedProducts", errBoom).
		SetSupplier(service.SupplierNewest, stocked(1))

	config := DefaultConfig()
	config.Breaker = BreakerConfig{MaxFailures: 1, OpenTimeout: time.Hour}
	r, err := NewWithConfig(catalog, config)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := r.Recommend(context.Background(), testLogin, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, productIDs(result))
	}

	// The breaker opened after the first failure.
	assert.Equal(t, 1, catalog.CallCount("GetBestRatedProducts"))
	assert.Equal(t, 3, catalog.CallCount("GetNewestProducts"))
}

// flakySuppliers fails each supplier call a fixed number of times before delegating.
type flakySuppliers struct {
	service.ProductSuppliers
	failures map[string]int
	mu       *sync.Mutex
}

func (f flakySuppliers) GetBestRatedProducts(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	if f.failures["best_rated"] > 0 {
		f.failures["best_rated"]--
		f.mu.Unlock()
		return nil, errBoom
	}
	f.mu.Unlock()
	return f.ProductSuppliers.GetBestRatedProducts(ctx)
}

func TestRecommend_SupplierMiddlewareAndRetry(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		SetSupplier(service.SupplierBestRated, stocked(7))

	failures := map[string]int{"best_rated": 2}
	mu := &sync.Mutex{}

	config := DefaultConfig()
	config.SupplierRetry = service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}
	config.SupplierMiddleware = func(s service.ProductSuppliers) service.ProductSuppliers {
		return flakySuppliers{ProductSuppliers: s, failures: failures, mu: mu}
	}
	r, err := NewWithConfig(catalog, config)
	require.NoError(t, err)

	result, err := r.Recommend(context.Background(), testLogin, nil, 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{7}, productIDs(result))
	assert.Equal(t, 1, catalog.CallCount("GetBestRatedProducts"))
	assert.Zero(t, failures["best_rated"])
}

func TestRecommend_SupplierSubset(t *testing.T) {
	catalog := NewMockCatalog().
		AddAccount(testLogin).
		SetSupplier(service.SupplierBestRated, stocked(1)).
		SetSupplier(service.SupplierAvailable, stocked(2))

	config := DefaultConfig()
	config.Suppliers = []service.SupplierKind{service.SupplierAvailable}
	r, err := NewWithConfig(catalog, config)
	require.NoError(t, err)

	result, err := r.Recommend(context.Background(), testLogin, nil, 2)

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, productIDs(result))
	assert.Zero(t, catalog.CallCount("GetBestRatedProducts"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		modify  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "default", modify: func(*Config) {}},
		{name: "no suppliers", modify: func(c *Config) { c.Suppliers = nil }},
		{
			name: "ordered subset",
			modify: func(c *Config) {
				c.Suppliers = []service.SupplierKind{service.SupplierNewest, service.SupplierAvailable}
			},
		},
		{
			name: "out of order",
			modify: func(c *Config) {
				c.Suppliers = []service.SupplierKind{service.SupplierAvailable, service.SupplierNewest}
			},
			wantErr: true,
		},
		{
			name: "repeated",
			modify: func(c *Config) {
				c.Suppliers = []service.SupplierKind{service.SupplierNewest, service.SupplierNewest}
			},
			wantErr: true,
		},
		{
			name:    "unknown",
			modify:  func(c *Config) { c.Suppliers = []service.SupplierKind{"random"} },
			wantErr: true,
		},
		{
			name:    "zero retry attempts",
			modify:  func(c *Config) { c.SupplierRetry.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "zero breaker failures",
			modify:  func(c *Config) { c.Breaker.MaxFailures = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)

			err := config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
