// Package storage provides the data persistence layer for the picks application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/storefront-picks/internal/service"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidPurchase = errors.New("invalid purchase")
	ErrInvalidOptions  = errors.New("invalid storage options")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateOptions rejects supplier settings that would make every supplier empty.
func validateOptions(opts Options) error {
	if opts.SupplierLimit <= 0 {
		return fmt.Errorf("%w: supplier limit must be positive, got %d", ErrInvalidOptions, opts.SupplierLimit)
	}
	if opts.LowStockThreshold < 1 {
		return fmt.Errorf("%w: low stock threshold must be at least 1, got %d", ErrInvalidOptions, opts.LowStockThreshold)
	}
	return nil
}

// validateNewProduct validates a product before insertion.
func validateNewProduct(product service.NewProduct) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProduct)
	}
	if product.ID < 0 {
		return fmt.Errorf("%w: negative ID %d", ErrInvalidProduct, product.ID)
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: negative price %.2f", ErrInvalidProduct, product.Price)
	}
	if product.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity %d", ErrInvalidProduct, product.Quantity)
	}
	return nil
}

// validateNewPurchase validates a purchase before insertion.
func validateNewPurchase(purchase service.NewPurchase) error {
	if strings.TrimSpace(purchase.Login) == "" {
		return fmt.Errorf("%w: missing login", ErrInvalidPurchase)
	}
	if purchase.ProductID <= 0 {
		return fmt.Errorf("%w: missing product ID", ErrInvalidPurchase)
	}
	if purchase.Rating != nil {
		if err := purchase.Rating.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPurchase, err)
		}
	}
	return nil
}
