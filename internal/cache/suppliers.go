package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// KeyPrefix namespaces every supplier entry.
const KeyPrefix = "picks:supplier:"

// SupplierKey returns the cache key of a supplier kind.
func SupplierKey(kind service.SupplierKind) string {
	return KeyPrefix + string(kind)
}

// CachedSuppliers decorates a service.ProductSuppliers with a read-through cache.
// Cache failures are logged and the underlying supplier is used instead.
//
// A hit keeps the cached ranking but never serves a product that is no longer
// available. When the wrapped suppliers also implement service.ProductLookup,
// hits are re-resolved so stock and archival changes made within the TTL are
// seen; otherwise only the cached availability is checked.
type CachedSuppliers struct {
	next   service.ProductSuppliers
	lookup service.ProductLookup
	cache  Cache
	ttl    time.Duration
}

var _ service.ProductSuppliers = (*CachedSuppliers)(nil)

// NewCachedSuppliers wraps next with cache.
func NewCachedSuppliers(next service.ProductSuppliers, cache Cache, ttl time.Duration) *CachedSuppliers {
	lookup, _ := next.(service.ProductLookup)
	return &CachedSuppliers{
		next:   next,
		lookup: lookup,
		cache:  cache,
		ttl:    ttl,
	}
}

// Middleware returns a function that wraps suppliers with a shared cache.
func Middleware(cache Cache, ttl time.Duration) func(service.ProductSuppliers) service.ProductSuppliers {
	return func(next service.ProductSuppliers) service.ProductSuppliers {
		return NewCachedSuppliers(next, cache, ttl)
	}
}

// Invalidate drops every cached supplier list.
func Invalidate(ctx context.Context, cache Cache) error {
	var errs []error
	for _, kind := range service.SupplierOrder {
		if err := cache.Delete(ctx, SupplierKey(kind)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

func (c *CachedSuppliers) cached(ctx context.Context, kind service.SupplierKind) ([]model.Product, error) {
	key := SupplierKey(kind)

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var products []model.Product
		jsonErr := json.Unmarshal(data, &products)
		if jsonErr != nil {
			slog.Warn("Discarding corrupt supplier cache entry", "supplier", kind, "error", jsonErr)
			break
		}
		fresh, refreshErr := c.refresh(ctx, products)
		if refreshErr == nil {
			slog.Debug("Supplier cache hit", "supplier", kind, "cached", len(products), "served", len(fresh))
			return fresh, nil
		}
		slog.Warn("Failed to refresh cached supplier products", "supplier", kind, "error", refreshErr)
	case !errors.Is(err, ErrCacheMiss):
		slog.Warn("Supplier cache read failed", "supplier", kind, "error", err)
	}

	fetch, ok := service.SupplierQuery(c.next, kind)
	if !ok {
		return nil, fmt.Errorf("unknown supplier %q", kind)
	}
	products, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(products)
	if err != nil {
		slog.Warn("Failed to encode supplier result", "supplier", kind, "error", err)
		return products, nil
	}
	if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		slog.Warn("Supplier cache write failed", "supplier", kind, "error", err)
	}
	return products, nil
}

// refresh drops cached products that are no longer available, keeping the
// cached order.
func (c *CachedSuppliers) refresh(ctx context.Context, cached []model.Product) ([]model.Product, error) {
	if c.lookup == nil {
		return model.Products(cached).Available(), nil
	}

	current, err := c.lookup.GetProductsByIDs(ctx, model.Products(cached).IDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Product, len(current))
	for _, p := range current {
		byID[p.ID] = p
	}

	fresh := make([]model.Product, 0, len(cached))
	for i := range cached {
		if p, ok := byID[cached[i].ID]; ok && p.Available() {
			fresh = append(fresh, p)
		}
	}
	return fresh, nil
}

// GetBestRatedProducts implements service.ProductSuppliers.
func (c *CachedSuppliers) GetBestRatedProducts(ctx context.Context) ([]model.Product, error) {
	return c.cached(ctx, service.SupplierBestRated)
}

// GetNewestProducts implements service.ProductSuppliers.
func (c *CachedSuppliers) GetNewestProducts(ctx context.Context) ([]model.Product, error) {
	return c.cached(ctx, service.SupplierNewest)
}

// GetCheapestProducts implements service.ProductSuppliers.
func (c *CachedSuppliers) GetCheapestProducts(ctx context.Context) ([]model.Product, error) {
	return c.cached(ctx, service.SupplierCheapest)
}

// GetRunningOutProducts implements service.ProductSuppliers.
func (c *CachedSuppliers) GetRunningOutProducts(ctx context.Context) ([]model.Product, error) {
	return c.cached(ctx, service.SupplierRunningOut)
}

// GetAvailableProducts implements service.ProductSuppliers.
func (c *CachedSuppliers) GetAvailableProducts(ctx context.Context) ([]model.Product, error) {
	return c.cached(ctx, service.SupplierAvailable)
}
