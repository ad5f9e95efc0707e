package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/ledgerline/crm-api/internal/auth"
	"gorm.io/gorm"
)

// Scope selects how a query identifies itself to the row-level security policies
type Scope int

const (
	// ScopeCaller exposes the authenticated caller; policies filter rows by it.
	ScopeCaller Scope = iota
	// ScopeElevated marks the transaction as a service call that bypasses caller filtering.
	ScopeElevated
)

// ErrNotFound is returned when no visible row matches
var ErrNotFound = gorm.ErrRecordNotFound

// RunScoped runs fn in a transaction carrying the caller identity as
// transaction-local settings read by the postgres RLS policies.
// Other dialects have no policies and only get the transaction.
func RunScoped(ctx context.Context, db *gorm.DB, scope Scope, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyScope(ctx, tx, scope); err != nil {
			return err
		}
		return fn(tx)
	})
}

func applyScope(ctx context.Context, tx *gorm.DB, scope Scope) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}

	var userID, permission string
	if user, ok := auth.FromContext(ctx); ok {
		userID = user.UserID
		permission = string(user.Permission)
	}
	elevated := "off"
	if scope == ScopeElevated {
		elevated = "on"
	}

	return tx.Exec(
		"SELECT set_config('app.current_user_id', ?, true), set_config('app.current_user_permission', ?, true), set_config('app.elevated', ?, true)",
		userID, permission, elevated,
	).Error
}

// IsDuplicateKey reports whether err is a unique constraint violation
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
