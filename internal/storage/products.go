package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

const productColumns = `
	p.id, p.name, p.price, p.quantity, p.archival, p.created_at,
	cat.id, cat.name`

const productFrom = `
	FROM products p
	LEFT JOIN categories cat ON cat.id = p.category_id`

// availableClause restricts a product query to available products.
const availableClause = `p.archival = 0 AND p.quantity > 0`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, extra ...any) (model.Product, error) {
	var (
		p            model.Product
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)

	dest := append([]any{
		&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Archival, &p.CreatedAt,
		&categoryID, &categoryName,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return model.Product{}, err
	}

	if categoryID.Valid {
		p.Category = &model.Category{
			ID:   categoryID.Int64,
			Name: categoryName.String,
		}
	}
	return p, nil
}

func (r *catalogReader) queryProducts(ctx context.Context, what string, query string, args ...any) ([]model.Product, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}

	slog.Debug("retrieved products", "query", what, "count", len(products))
	return products, nil
}

// GetProduct returns a product by its ID, or nil if it does not exist.
func (r *catalogReader) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom + `
		WHERE p.id = ?`

	product, err := scanProduct(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Product not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &product, nil
}

// maxIDsPerQuery keeps batched lookups below SQLite's bound-variable limit.
const maxIDsPerQuery = 500

// GetProductsByIDs resolves a set of product IDs, ordered by ID. IDs without
// a matching product are omitted. Large sets are looked up in chunks.
func (r *catalogReader) GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	products := []model.Product{}
	for start := 0; start < len(unique); start += maxIDsPerQuery {
		end := min(start+maxIDsPerQuery, len(unique))
		chunk, err := r.productsByIDs(ctx, unique[start:end])
		if err != nil {
			return nil, err
		}
		products = append(products, chunk...)
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *catalogReader) productsByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT` + productColumns + productFrom + `
		WHERE p.id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY p.id`

	return r.queryProducts(ctx, "products by id", query, args...)
}

// GetProductsInCategory returns every product of a category, available or not.
func (r *catalogReader) GetProductsInCategory(ctx context.Context, category model.Category) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom + `
		WHERE p.category_id = ?
		ORDER BY p.id`

	return r.queryProducts(ctx, "products in category", query, category.ID)
}

// ListProducts returns the whole catalog ordered by ID.
func (s *SQLiteStorage) ListProducts(ctx context.Context, availableOnly bool) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT` + productColumns + productFrom
	if availableOnly {
		query += ` WHERE ` + availableClause
	}
	query += ` ORDER BY p.id`

	return s.queryProducts(ctx, "products", query)
}

// CreateProduct inserts a product, creating its category on first use.
// A zero ID lets the database assign one.
func (s *SQLiteStorage) CreateProduct(ctx context.Context, product service.NewProduct) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateNewProduct(product); err != nil {
		return nil, err
	}

	var category *model.Category
	if product.CategoryName != "" {
		cat, err := s.CreateCategory(ctx, product.CategoryName)
		if err != nil {
			return nil, err
		}
		category = cat
	}

	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	var categoryID any
	if category != nil {
		categoryID = category.ID
	}

	var id any
	if product.ID > 0 {
		id = product.ID
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, quantity, archival, category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, product.Name, product.Price, product.Quantity, product.Archival, categoryID, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get product ID: %w", err)
	}

	slog.Debug("created product", "id", newID, "name", product.Name)

	return &model.Product{
		ID:        newID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  product.Quantity,
		Archival:  product.Archival,
		Category:  category,
		CreatedAt: createdAt,
	}, nil
}
