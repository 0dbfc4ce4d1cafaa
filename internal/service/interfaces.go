// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/storefront-picks/internal/model"
)

// AccountLookup resolves customer accounts.
type AccountLookup interface {
	// GetAccountByLogin returns nil, nil when no account has the login.
	GetAccountByLogin(ctx context.Context, login string) (*model.Account, error)
}

// PurchaseHistory exposes what an account has bought.
type PurchaseHistory interface {
	// GetMostFrequentPurchases returns the purchase records of the account's
	// most frequently bought products. Products tied on frequency are all included.
	GetMostFrequentPurchases(ctx context.Context, login string) ([]model.PurchaseRecord, error)
}

// ProductLookup resolves products by identity.
type ProductLookup interface {
	// GetProduct returns nil, nil when the product does not exist.
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	// GetProductsByIDs silently omits ids that do not resolve.
	GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}

// CategoryLookup resolves categories and their products.
type CategoryLookup interface {
	// GetCategoryByName returns nil, nil when the category does not exist.
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	// GetProductsInCategory makes no availability guarantee.
	GetProductsInCategory(ctx context.Context, category model.Category) ([]model.Product, error)
}

// SupplierKind names one of the catalog-wide product suppliers.
type SupplierKind string

// Generic suppliers, listed in the order they are consulted.
const (
	SupplierBestRated  SupplierKind = "best_rated"
	SupplierNewest     SupplierKind = "newest"
	SupplierCheapest   SupplierKind = "cheapest"
	SupplierRunningOut SupplierKind = "running_out"
	SupplierAvailable  SupplierKind = "available"
)

// SupplierOrder is the fixed priority order of the generic suppliers.
var SupplierOrder = []SupplierKind{
	SupplierBestRated,
	SupplierNewest,
	SupplierCheapest,
	SupplierRunningOut,
	SupplierAvailable,
}

// ProductSuppliers are catalog-wide queries. Every method returns available products only.
type ProductSuppliers interface {
	GetBestRatedProducts(ctx context.Context) ([]model.Product, error)
	GetNewestProducts(ctx context.Context) ([]model.Product, error)
	GetCheapestProducts(ctx context.Context) ([]model.Product, error)
	GetRunningOutProducts(ctx context.Context) ([]model.Product, error)
	GetAvailableProducts(ctx context.Context) ([]model.Product, error)
}

// Catalog is every read capability the recommendation engine depends on.
type Catalog interface {
	AccountLookup
	PurchaseHistory
	ProductLookup
	CategoryLookup
	ProductSuppliers
}

// Snapshot is a consistent read view of the catalog.
type Snapshot interface {
	Catalog
	// Rollback releases the snapshot. It performs no writes.
	Rollback() error
}

// Snapshotter is implemented by catalogs that can pin one read snapshot per request.
type Snapshotter interface {
	BeginSnapshot(ctx context.Context) (Snapshot, error)
}

// NewProduct holds the fields needed to create a product.
type NewProduct struct {
	CreatedAt    time.Time
	Name         string
	CategoryName string
	Price        float64
	ID           int64
	Quantity     int
	Archival     bool
}

// NewPurchase holds the fields needed to record a purchase.
type NewPurchase struct {
	PurchasedAt time.Time
	Rating      *model.Rating
	Login       string
	ProductID   int64
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Catalog
	Snapshotter

	// Account operations
	CreateAccount(ctx context.Context, login, email string) (*model.Account, error)

	// Category operations
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)

	// Product operations
	CreateProduct(ctx context.Context, product NewProduct) (*model.Product, error)
	ListProducts(ctx context.Context, availableOnly bool) ([]model.Product, error)

	// Purchase operations
	RecordPurchase(ctx context.Context, purchase NewPurchase) (*model.PurchaseRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
