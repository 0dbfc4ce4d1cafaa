package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

func newSupplierBreaker(kind service.SupplierKind, cfg BreakerConfig) *gobreaker.CircuitBreaker[[]model.Product] {
	return gobreaker.NewCircuitBreaker[[]model.Product](gobreaker.Settings{
		Name:        "supplier:" + string(kind),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A cancelled request says nothing about the supplier's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("Supplier circuit breaker state changed",
				"supplier", name,
				"from", from.String(),
				"to", to.String())
		},
	})
}

// addSupplierProducts fills the accumulator from the generic suppliers in
// priority order. A failing supplier contributes nothing.
func (r *Recommender) addSupplierProducts(ctx context.Context, suppliers service.ProductSuppliers, count int, acc *Accumulator) {
	for _, kind := range r.config.Suppliers {
		if acc.Len() >= count {
			return
		}
		if ctx.Err() != nil {
			return
		}

		products, err := r.supply(ctx, suppliers, kind)
		if err != nil {
			slog.Warn("Supplier failed, skipping", "supplier", kind, "error", err)
			continue
		}

		added := acc.AddAll(products, SupplierTier(kind))
		slog.Debug("Added supplier candidates", "supplier", kind, "returned", len(products), "added", added)
	}
}

// supply calls one supplier through its circuit breaker, retrying transient failures.
func (r *Recommender) supply(ctx context.Context, suppliers service.ProductSuppliers, kind service.SupplierKind) ([]model.Product, error) {
	fetch, ok := service.SupplierQuery(suppliers, kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown supplier %q", common.ErrSupplierUnavailable, kind)
	}
	breaker := r.breakers[kind]

	var products []model.Product
	err := common.WithRetry(ctx, func() error {
		result, err := breaker.Execute(func() ([]model.Product, error) {
			return fetch(ctx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &common.RetryableError{
				Err:       fmt.Errorf("%w: %s: %w", common.ErrSupplierUnavailable, kind, err),
				Retryable: false,
			}
		}
		if err != nil {
			return err
		}
		products = result
		return nil
	}, r.config.SupplierRetry)

	return products, err
}
