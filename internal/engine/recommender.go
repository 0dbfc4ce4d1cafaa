// Package engine implements the tiered product recommendation engine.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// Recommender assembles product recommendations from a catalog.
type Recommender struct {
	catalog  service.Catalog
	breakers map[service.SupplierKind]*gobreaker.CircuitBreaker[[]model.Product]
	config   Config
}

// BreakerConfig controls the per-supplier circuit breakers.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens a breaker.
	MaxFailures uint32
	// OpenTimeout is how long an open breaker rejects calls before probing again.
	OpenTimeout time.Duration
}

// Config holds configuration options for the recommender.
type Config struct {
	// SupplierMiddleware, when set, wraps the generic suppliers of every
	// request, e.g. with a cache.
	SupplierMiddleware func(service.ProductSuppliers) service.ProductSuppliers
	// Suppliers lists the generic suppliers to consult, in priority order.
	Suppliers     []service.SupplierKind
	SupplierRetry service.RetryOptions
	Breaker       BreakerConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Suppliers: append([]service.SupplierKind(nil), service.SupplierOrder...),
		SupplierRetry: service.RetryOptions{
			MaxAttempts:  1,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
		Breaker: BreakerConfig{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that the supplier list keeps the fixed priority order and
// that retry and breaker settings are usable.
func (c Config) Validate() error {
	next := 0
	for _, kind := range c.Suppliers {
		found := false
		for next < len(service.SupplierOrder) {
			candidate := service.SupplierOrder[next]
			next++
			if candidate == kind {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: supplier %q is unknown, repeated or out of order", common.ErrInvalidConfig, kind)
		}
	}
	if c.SupplierRetry.MaxAttempts < 1 {
		return fmt.Errorf("%w: supplier retry max attempts must be at least 1, got %d", common.ErrInvalidConfig, c.SupplierRetry.MaxAttempts)
	}
	if c.Breaker.MaxFailures == 0 {
		return fmt.Errorf("%w: breaker max failures must be positive", common.ErrInvalidConfig)
	}
	if c.Breaker.OpenTimeout < 0 {
		return fmt.Errorf("%w: breaker open timeout cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// New creates a new recommender with the default configuration.
func New(catalog service.Catalog) *Recommender {
	return newRecommender(catalog, DefaultConfig())
}

// NewWithConfig creates a new recommender with custom configuration.
func NewWithConfig(catalog service.Catalog, config Config) (*Recommender, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newRecommender(catalog, config), nil
}

func newRecommender(catalog service.Catalog, config Config) *Recommender {
	r := &Recommender{
		catalog:  catalog,
		config:   config,
		breakers: make(map[service.SupplierKind]*gobreaker.CircuitBreaker[[]model.Product], len(config.Suppliers)),
	}
	for _, kind := range config.Suppliers {
		r.breakers[kind] = newSupplierBreaker(kind, config.Breaker)
	}
	return r
}

// Recommend returns at most count distinct products for the account, most
// relevant first.
func (r *Recommender) Recommend(ctx context.Context, login string, prefs *model.PreferenceBundle, count int) ([]model.Product, error) {
	candidates, err := r.RecommendDetailed(ctx, login, prefs, count)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, len(candidates))
	for i := range candidates {
		products[i] = candidates[i].Product
	}
	return products, nil
}

// RecommendDetailed is Recommend with the tier and score of every candidate.
func (r *Recommender) RecommendDetailed(ctx context.Context, login string, prefs *model.PreferenceBundle, count int) ([]Candidate, error) {
	if count <= 0 {
		return []Candidate{}, nil
	}

	catalog, release, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := catalog.GetAccountByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, login)
	}

	slog.Debug("Starting recommendation", "login", login, "count", count)

	acc := NewAccumulator()

	r.addPurchaseHistory(ctx, catalog, login, acc)

	if prefs.HasProductScores() {
		r.addMostSearched(ctx, catalog, prefs, acc)
		r.addPreferenceScored(ctx, catalog, prefs, acc)
	}

	if acc.Len() < count && prefs.HasCategoryScores() {
		r.addCategoryFallback(ctx, catalog, prefs, count, acc)
	}

	if removed := acc.Retain(func(c Candidate) bool { return c.Product.Available() }); removed > 0 {
		slog.Debug("Dropped unavailable candidates", "removed", removed)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if acc.Len() < count {
		var suppliers service.ProductSuppliers = catalog
		if r.config.SupplierMiddleware != nil {
			suppliers = r.config.SupplierMiddleware(suppliers)
		}
		r.addSupplierProducts(ctx, suppliers, count, acc)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := acc.Head(count)
	slog.Debug("Recommendation complete", "login", login, "returned", len(result))
	return result, nil
}

// open pins a read snapshot when the catalog supports it.
func (r *Recommender) open(ctx context.Context) (service.Catalog, func(), error) {
	snapshotter, ok := r.catalog.(service.Snapshotter)
	if !ok {
		return r.catalog, func() {}, nil
	}

	snapshot, err := snapshotter.BeginSnapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog snapshot: %w", err)
	}

	release := func() {
		if err := snapshot.Rollback(); err != nil && ctx.Err() == nil {
			slog.Warn("Failed to release catalog snapshot", "error", err)
		}
	}
	return snapshot, release, nil
}
