package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/model"
	"github.com/Veraticus/storefront-picks/internal/service"
)

// GetMostFrequentPurchases returns every purchase of the account's most
// frequently bought products, grouped by product ID with the newest purchase first.
func (r *catalogReader) GetMostFrequentPurchases(ctx context.Context, login string) ([]model.PurchaseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(login, "login"); err != nil {
		return nil, err
	}

	query := `
		WITH counts AS (
			SELECT pu.product_id, COUNT(*) AS n
			FROM purchases pu
			JOIN accounts a ON a.id = pu.account_id
			WHERE a.login = ?
			GROUP BY pu.product_id
		),
		frequent AS (
			SELECT product_id
			FROM counts
			WHERE n = (SELECT MAX(n) FROM counts)
		)
		SELECT` + productColumns + `,
			pu.id, pu.purchased_at, pu.rating
		FROM purchases pu
		JOIN accounts a ON a.id = pu.account_id
		JOIN frequent fc ON fc.product_id = pu.product_id
		JOIN products p ON p.id = pu.product_id
		LEFT JOIN categories cat ON cat.id = p.category_id
		WHERE a.login = ?
		ORDER BY pu.product_id, pu.purchased_at DESC, pu.id DESC`

	rows, err := r.q.QueryContext(ctx, query, login, login)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var records []model.PurchaseRecord
	for rows.Next() {
		var (
			record model.PurchaseRecord
			rating sql.NullInt64
		)

		product, err := scanProduct(rows, &record.ID, &record.PurchasedAt, &rating)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}

		record.Product = product
		record.AccountLogin = login
		if rating.Valid {
			record.Rating = &model.Rating{Value: int(rating.Int64)}
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	slog.Debug("retrieved most frequent purchases", "login", login, "count", len(records))
	return records, nil
}

// RecordPurchase stores a purchase for an existing account and product.
func (s *SQLiteStorage) RecordPurchase(ctx context.Context, purchase service.NewPurchase) (*model.PurchaseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateNewPurchase(purchase); err != nil {
		return nil, err
	}

	account, err := s.GetAccountByLogin(ctx, purchase.Login)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, purchase.Login)
	}

	product, err := s.GetProduct(ctx, purchase.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %d", common.ErrNotFound, purchase.ProductID)
	}

	purchasedAt := purchase.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now()
	}
	purchasedAt = purchasedAt.UTC()

	var rating any
	if purchase.Rating != nil {
		rating = purchase.Rating.Value
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (account_id, product_id, purchased_at, rating)
		VALUES (?, ?, ?, ?)`,
		account.ID, product.ID, purchasedAt, rating)
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase ID: %w", err)
	}

	return &model.PurchaseRecord{
		ID:           id,
		AccountLogin: account.Login,
		Product:      *product,
		PurchasedAt:  purchasedAt,
		Rating:       purchase.Rating,
	}, nil
}
