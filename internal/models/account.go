// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models holds the rows persisted by the signup backend.
package models

import (
	"time"
)

// Account is a registered traveller.
type Account struct {
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Destination  string    `db:"destination" json:"destination"`
}
