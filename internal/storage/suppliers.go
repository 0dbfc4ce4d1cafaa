package storage

import (
	"context"

	"github.com/Veraticus/storefront-picks/internal/model"
)

// GetBestRatedProducts returns available products ordered by their average
// purchase rating. Products without any rated purchase are not included.
func (r *catalogReader) GetBestRatedProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom + `
		JOIN (
			SELECT product_id, AVG(rating) AS avg_rating
			FROM purchases
			WHERE rating IS NOT NULL
			GROUP BY product_id
		) rated ON rated.product_id = p.id
		WHERE ` + availableClause + `
		ORDER BY rated.avg_rating DESC, p.id
		LIMIT ?`

	return r.queryProducts(ctx, "best rated products", query, r.opts.SupplierLimit)
}

// GetNewestProducts returns available products, most recently added first.
func (r *catalogReader) GetNewestProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom + `
		WHERE ` + availableClause + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?`

	return r.queryProducts(ctx, "newest products", query, r.opts.SupplierLimit)
}

// GetCheapestProducts returns available products, lowest price first.
func (r *catalogReader) GetCheapestProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom + `
		WHERE ` + availableClause + `
		ORDER BY p.price, p.id
		LIMIT ?`

	return r.queryProducts(ctx, "cheapest products", query, r.opts.SupplierLimit)
}

// GetRunningOutProducts returns available products whose stock is at or
// below the low-stock threshold, scarcest first.
func (r *catalogReader) GetRunningOutProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom + `
		WHERE ` + availableClause + ` AND p.quantity <= ?
		ORDER BY p.quantity, p.id
		LIMIT ?`

	return r.queryProducts(ctx, "running out products", query, r.opts.LowStockThreshold, r.opts.SupplierLimit)
}

// GetAvailableProducts returns any available products ordered by ID.
func (r *catalogReader) GetAvailableProducts(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom + `
		WHERE ` + availableClause + `
		ORDER BY p.id
		LIMIT ?`

	return r.queryProducts(ctx, "available products", query, r.opts.SupplierLimit)
}
