// Package gateway is the data access boundary for expenses, categories and
// accounts. Every call is scoped to the user carried by the context.
package gateway

import (
	"context"
	"errors"

	db "spendwise-server/src/db/sql"
	"spendwise-server/src/identity"
	"spendwise-server/src/models"
	"spendwise-server/src/reconcile"
)

var (
	ErrNoUser   = errors.New("no authenticated user")
	ErrNotFound = db.ErrNotFound
)

type Gateway interface {
	CurrentUser(ctx context.Context) (string, error)
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	reconcile.Store
	reconcile.Atomic
}

// CurrentUser reads the authenticated user from ctx.
func CurrentUser(ctx context.Context) (string, error) {
	id, ok := identity.UserID(ctx)
	if !ok {
		return "", ErrNoUser
	}
	return id, nil
}
