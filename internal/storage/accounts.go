package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/model"
)

// GetAccountByLogin returns the account with the given login, or nil if none exists.
func (r *catalogReader) GetAccountByLogin(ctx context.Context, login string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(login, "login"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, login, email, created_at
		FROM accounts
		WHERE login = ?`

	var account model.Account
	err := r.q.QueryRowContext(ctx, query, login).Scan(
		&account.ID, &account.Login, &account.Email, &account.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Account not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	return &account, nil
}

// CreateAccount registers a new customer login.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, login, email string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(login, "login"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (login, email, created_at)
		VALUES (?, ?, ?)`, login, email, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: account %q", common.ErrDuplicateEntry, login)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account ID: %w", err)
	}

	slog.Debug("created account", "login", login, "id", id)
	return &model.Account{
		ID:        id,
		Login:     login,
		Email:     email,
		CreatedAt: now,
	}, nil
}
