// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"codeberg.org/oliverandrich/space-signup/internal/models"
	"github.com/google/uuid"
)

const accountColumns = "id, name, email, password_hash, destination, created_at"

// CreateAccount stores acc, filling in ID and CreatedAt when unset.
// A second account with the same email (case-insensitive) yields ErrDuplicate.
func (r *Repository) CreateAccount(ctx context.Context, acc *models.Account) error {
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	acc.Email = strings.TrimSpace(acc.Email)

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (:id, :name, :email, :password_hash, :destination, :created_at)`, acc)
	return wrapError(err)
}

// GetAccountByID retrieves an account by ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	var acc models.Account
	err := r.db.GetContext(ctx, &acc, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &acc, nil
}

// GetAccountByEmail retrieves an account by email, ignoring case.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	err := r.db.GetContext(ctx, &acc,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? COLLATE NOCASE`, strings.TrimSpace(email))
	if err != nil {
		return nil, wrapError(err)
	}
	return &acc, nil
}

// EmailExists reports whether an account uses email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ? COLLATE NOCASE)`, strings.TrimSpace(email))
	return exists, wrapError(err)
}

// CountAccounts returns the number of stored accounts.
func (r *Repository) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM accounts`)
	return count, wrapError(err)
}
