// Package seed loads catalog fixtures and writes them to storage.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// Catalog is the fixture file format.
type Catalog struct {
	Categories []string   `yaml:"categories"`
	Products   []Product  `yaml:"products"`
	Accounts   []Account  `yaml:"accounts"`
	Purchases  []Purchase `yaml:"purchases"`
}

// Product is a product entry of a fixture.
type Product struct {
	CreatedAt time.Time `yaml:"created_at"`
	Name      string    `yaml:"name"`
	Category  string    `yaml:"category"`
	Price     float64   `yaml:"price"`
	ID        int64     `yaml:"id"`
	Quantity  int       `yaml:"quantity"`
	Archival  bool      `yaml:"archival"`
}

// Account is an account entry of a fixture.
type Account struct {
	Login string `yaml:"login"`
	Email string `yaml:"email"`
}

// Purchase is a purchase entry of a fixture.
type Purchase struct {
	PurchasedAt time.Time `yaml:"purchased_at"`
	Rating      *int      `yaml:"rating"`
	Login       string    `yaml:"login"`
	ProductID   int64     `yaml:"product_id"`
}

// Writer is the subset of storage the importer needs.
type Writer interface {
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	CreateProduct(ctx context.Context, product service.NewProduct) (*model.Product, error)
	CreateAccount(ctx context.Context, login, email string) (*model.Account, error)
	RecordPurchase(ctx context.Context, purchase service.NewPurchase) (*model.PurchaseRecord, error)
}

// Summary counts what an import wrote.
type Summary struct {
	Categories int
	Products   int
	Accounts   int
	Purchases  int
}

// Total returns the number of records written.
func (s Summary) Total() int {
	return s.Categories + s.Products + s.Accounts + s.Purchases
}

// ProgressFunc is called after each record with the records done so far.
type ProgressFunc func(done, total int)

// LoadFile reads and validates a YAML catalog fixture.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog fixture.
func Parse(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: parse catalog: %w", common.ErrInvalidConfig, err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks references between fixture entries.
func (c *Catalog) Validate() error {
	productIDs := make(map[int64]bool, len(c.Products))
	for i, p := range c.Products {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: product #%d has no name", common.ErrInvalidConfig, i+1)
		}
		if p.ID < 0 {
			return fmt.Errorf("%w: product %q has negative id", common.ErrInvalidConfig, p.Name)
		}
		if p.ID > 0 {
			if productIDs[p.ID] {
				return fmt.Errorf("%w: product id %d appears twice", common.ErrInvalidConfig, p.ID)
			}
			productIDs[p.ID] = true
		}
	}

	logins := make(map[string]bool, len(c.Accounts))
	for i, a := range c.Accounts {
		if strings.TrimSpace(a.Login) == "" {
			return fmt.Errorf("%w: account #%d has no login", common.ErrInvalidConfig, i+1)
		}
		if logins[a.Login] {
			return fmt.Errorf("%w: login %q appears twice", common.ErrInvalidConfig, a.Login)
		}
		logins[a.Login] = true
	}

	for i, p := range c.Purchases {
		if !logins[p.Login] {
			return fmt.Errorf("%w: purchase #%d references unknown login %q", common.ErrInvalidConfig, i+1, p.Login)
		}
		if !productIDs[p.ProductID] {
			return fmt.Errorf("%w: purchase #%d references unknown product %d", common.ErrInvalidConfig, i+1, p.ProductID)
		}
		if p.Rating != nil {
			if err := (&model.Rating{Value: *p.Rating}).Validate(); err != nil {
				return fmt.Errorf("%w: purchase #%d: %w", common.ErrInvalidConfig, i+1, err)
			}
		}
	}
	return nil
}

// Count returns the number of records the catalog holds.
func (c *Catalog) Count() int {
	return len(c.Categories) + len(c.Products) + len(c.Accounts) + len(c.Purchases)
}

// Import writes the catalog in dependency order: categories, products,
// accounts, then purchases. It stops at the first failure.
func Import(ctx context.Context, w Writer, catalog *Catalog, progress ProgressFunc) (Summary, error) {
	var summary Summary
	total := catalog.Count()
	done := 0

	step := func() {
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	for _, name := range catalog.Categories {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := w.CreateCategory(ctx, name); err != nil {
			return summary, fmt.Errorf("failed to import category %q: %w", name, err)
		}
		summary.Categories++
		step()
	}

	for _, p := range catalog.Products {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		_, err := w.CreateProduct(ctx, service.NewProduct{
			ID:           p.ID,
			Name:         p.Name,
			CategoryName: p.Category,
			Price:        p.Price,
			Quantity:     p.Quantity,
			Archival:     p.Archival,
			CreatedAt:    p.CreatedAt,
		})
		if err != nil {
			return summary, fmt.Errorf("failed to import product %q: %w", p.Name, err)
		}
		summary.Products++
		step()
	}

	for _, a := range catalog.Accounts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := w.CreateAccount(ctx, a.Login, a.Email); err != nil {
			return summary, fmt.Errorf("failed to import account %q: %w", a.Login, err)
		}
		summary.Accounts++
		step()
	}

	for i, p := range catalog.Purchases {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		purchase := service.NewPurchase{
			Login:       p.Login,
			ProductID:   p.ProductID,
			PurchasedAt: p.PurchasedAt,
		}
		if p.Rating != nil {
			purchase.Rating = &model.Rating{Value: *p.Rating}
		}
		if _, err := w.RecordPurchase(ctx, purchase); err != nil {
			return summary, fmt.Errorf("failed to import purchase #%d: %w", i+1, err)
		}
		summary.Purchases++
		step()
	}

	slog.Info("Imported catalog",
		"categories", summary.Categories,
		"products", summary.Products,
		"accounts", summary.Accounts,
		"purchases", summary.Purchases)

	return summary, nil
}
