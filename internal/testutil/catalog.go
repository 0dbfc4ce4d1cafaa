package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// ProductSpec describes a product to seed. Build one with Product.
type ProductSpec struct {
	service.NewProduct
}

// Product returns an available product with an explicit ID.
func Product(id int64, name string) ProductSpec {
	return ProductSpec{service.NewProduct{
		ID:       id,
		Name:     name,
		Price:    float64(id),
		Quantity: 10,
	}}
}

// InCategory places the product in a category, created on first use.
func (p ProductSpec) InCategory(name string) ProductSpec {
	p.CategoryName = name
	return p
}

// Priced sets the price.
func (p ProductSpec) Priced(price float64) ProductSpec {
	p.Price = price
	return p
}

// Stock sets the quantity on hand.
func (p ProductSpec) Stock(quantity int) ProductSpec {
	p.Quantity = quantity
	return p
}

// Archived marks the product as retired.
func (p ProductSpec) Archived() ProductSpec {
	p.Archival = true
	return p
}

// AddedAt sets the creation time.
func (p ProductSpec) AddedAt(at time.Time) ProductSpec {
	p.CreatedAt = at
	return p
}

// Unrated is the rating argument for a purchase without a rating.
const Unrated = -1

// CatalogBuilder provides a fluent interface for seeding a test catalog.
// Operations run in the order they were added when Build is called.
type CatalogBuilder struct {
	store service.Storage
	t     *testing.T
	steps []func(context.Context) error
	clock time.Time
}

// NewCatalogBuilder creates a builder writing to store.
func NewCatalogBuilder(t *testing.T, store service.Storage) *CatalogBuilder {
	return &CatalogBuilder{
		store: store,
		t:     t,
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithProduct adds a product.
func (b *CatalogBuilder) WithProduct(p ProductSpec) *CatalogBuilder {
	b.steps = append(b.steps, func(ctx context.Context) error {
		_, err := b.store.CreateProduct(ctx, p.NewProduct)
		return err
	})
	return b
}

// WithProducts adds several products.
func (b *CatalogBuilder) WithProducts(ps ...ProductSpec) *CatalogBuilder {
	for _, p := range ps {
		b.WithProduct(p)
	}
	return b
}

// WithAccount adds a customer account.
func (b *CatalogBuilder) WithAccount(login string) *CatalogBuilder {
	b.steps = append(b.steps, func(ctx context.Context) error {
		_, err := b.store.CreateAccount(ctx, login, login+"@example.com")
		return err
	})
	return b
}

// WithPurchase records a purchase. Pass Unrated for no rating.
// Each purchase is one minute later than the previous one.
func (b *CatalogBuilder) WithPurchase(login string, productID int64, rating int) *CatalogBuilder {
	b.clock = b.clock.Add(time.Minute)
	at := b.clock
	b.steps = append(b.steps, func(ctx context.Context) error {
		purchase := service.NewPurchase{
			Login:       login,
			ProductID:   productID,
			PurchasedAt: at,
		}
		if rating != Unrated {
			purchase.Rating = &model.Rating{Value: rating}
		}
		_, err := b.store.RecordPurchase(ctx, purchase)
		return err
	})
	return b
}

// Build applies every step.
func (b *CatalogBuilder) Build(ctx context.Context) error {
	for i, step := range b.steps {
		if err := step(ctx); err != nil {
			return fmt.Errorf("catalog step %d: %w", i+1, err)
		}
	}
	return nil
}

// MustBuild applies every step or fails the test.
func (b *CatalogBuilder) MustBuild() {
	b.t.Helper()
	if err := b.Build(context.Background()); err != nil {
		b.t.Fatalf("failed to build catalog: %v", err)
	}
}
