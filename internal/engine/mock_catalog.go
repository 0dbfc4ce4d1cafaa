package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// MockCatalog is an in-memory service.Catalog for tests.
// It records every call and can be told to fail individual methods.
type MockCatalog struct {
	accounts   map[string]model.Account
	purchases  map[string][]model.PurchaseRecord
	products   map[int64]model.Product
	categories map[string]model.Category
	suppliers  map[service.SupplierKind][]model.Product
	errors     map[string]error
	calls      []string
	mu         sync.Mutex
}

var _ service.Catalog = (*MockCatalog)(nil)

// NewMockCatalog creates an empty mock catalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		accounts:   make(map[string]model.Account),
		purchases:  make(map[string][]model.PurchaseRecord),
		products:   make(map[int64]model.Product),
		categories: make(map[string]model.Category),
		suppliers:  make(map[service.SupplierKind][]model.Product),
		errors:     make(map[string]error),
	}
}

// AddAccount registers a login.
func (m *MockCatalog) AddAccount(login string) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[login] = model.Account{ID: int64(len(m.accounts) + 1), Login: login}
	return m
}

// AddProducts registers products, and their categories, for lookup.
func (m *MockCatalog) AddProducts(products ...model.Product) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		m.products[p.ID] = p
		if p.Category != nil {
			m.categories[p.Category.Name] = *p.Category
		}
	}
	return m
}

// SetMostFrequentPurchases sets the records returned for a login.
func (m *MockCatalog) SetMostFrequentPurchases(login string, records ...model.PurchaseRecord) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[login] = records
	return m
}

// SetSupplier sets the products a generic supplier returns.
func (m *MockCatalog) SetSupplier(kind service.SupplierKind, products ...model.Product) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppliers[kind] = products
	return m
}

// FailOn makes the named method return err.
func (m *MockCatalog) FailOn(method string, err error) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method] = err
	return m
}

// Calls returns the names of the methods called so far, in order.
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times a method was called.
func (m *MockCatalog) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MockCatalog) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
	return m.errors[method]
}

// GetAccountByLogin implements service.AccountLookup.
func (m *MockCatalog) GetAccountByLogin(_ context.Context, login string) (*model.Account, error) {
	if err := m.record("GetAccountByLogin"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[login]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

// GetMostFrequentPurchases implements service.PurchaseHistory.
func (m *MockCatalog) GetMostFrequentPurchases(_ context.Context, login string) ([]model.PurchaseRecord, error) {
	if err := m.record("GetMostFrequentPurchases"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PurchaseRecord(nil), m.purchases[login]...), nil
}

// GetProduct implements service.ProductLookup.
func (m *MockCatalog) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	if err := m.record("GetProduct"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetProductsByIDs implements service.ProductLookup.
func (m *MockCatalog) GetProductsByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	if err := m.record("GetProductsByIDs"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetCategoryByName implements service.CategoryLookup.
func (m *MockCatalog) GetCategoryByName(_ context.Context, name string) (*model.Category, error) {
	if err := m.record("GetCategoryByName"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cat, ok := m.categories[name]
	if !ok {
		return nil, nil
	}
	return &cat, nil
}

// GetProductsInCategory implements service.CategoryLookup.
func (m *MockCatalog) GetProductsInCategory(_ context.Context, category model.Category) ([]model.Product, error) {
	if err := m.record("GetProductsInCategory"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Product
	for _, p := range m.products {
		if p.Category != nil && p.Category.Name == category.Name {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockCatalog) supplier(method string, kind service.SupplierKind) ([]model.Product, error) {
	if err := m.record(method); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Product(nil), m.suppliers[kind]...), nil
}

// GetBestRatedProducts implements service.ProductSuppliers.
func (m *MockCatalog) GetBestRatedProducts(_ context.Context) ([]model.Product, error) {
	return m.supplier("GetBestRatedProducts", service.SupplierBestRated)
}

// GetNewestProducts implements service.ProductSuppliers.
func (m *MockCatalog) GetNewestProducts(_ context.Context) ([]model.Product, error) {
	return m.supplier("GetNewestProducts", service.SupplierNewest)
}

// GetCheapestProducts implements service.ProductSuppliers.
func (m *MockCatalog) GetCheapestProducts(_ context.Context) ([]model.Product, error) {
	return m.supplier("GetCheapestProducts", service.SupplierCheapest)
}

// GetRunningOutProducts implements service.ProductSuppliers.
func (m *MockCatalog) GetRunningOutProducts(_ context.Context) ([]model.Product, error) {
	return m.supplier("GetRunningOutProducts", service.SupplierRunningOut)
}

// GetAvailableProducts implements service.ProductSuppliers.
func (m *MockCatalog) GetAvailableProducts(_ context.Context) ([]model.Product, error) {
	return m.supplier("GetAvailableProducts", service.SupplierAvailable)
}

// MockSnapshotCatalog is a MockCatalog that also hands out snapshots.
type MockSnapshotCatalog struct {
	*MockCatalog
	beginErr   error
	begun      int
	rolledBack int
}

var _ service.Snapshotter = (*MockSnapshotCatalog)(nil)

// NewMockSnapshotCatalog wraps catalog with snapshot bookkeeping.
func NewMockSnapshotCatalog(catalog *MockCatalog) *MockSnapshotCatalog {
	return &MockSnapshotCatalog{MockCatalog: catalog}
}

// FailBegin makes BeginSnapshot return err.
func (m *MockSnapshotCatalog) FailBegin(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beginErr = err
}

// BeginSnapshot implements service.Snapshotter.
func (m *MockSnapshotCatalog) BeginSnapshot(_ context.Context) (service.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.begun++
	return &mockSnapshot{MockCatalog: m.MockCatalog, owner: m}, nil
}

// Snapshots returns how many snapshots were opened and how many rolled back.
func (m *MockSnapshotCatalog) Snapshots() (begun, rolledBack int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begun, m.rolledBack
}

type mockSnapshot struct {
	*MockCatalog
	owner *MockSnapshotCatalog
}

func (s *mockSnapshot) Rollback() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.owner.rolledBack++
	return nil
}
