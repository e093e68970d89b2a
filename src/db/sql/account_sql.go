package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"spendwise-server/src/models"
)

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		a       models.Account
		balance string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &balance, &a.CreatedAt); err != nil {
		return nil, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	a.Balance = b
	return &a, nil
}

func ListAccounts(ctx context.Context, q DBTX, userID string) ([]models.Account, error) {
	query := `
		SELECT id::text, user_id::text, name, balance::text, created_at
		FROM accounts WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// GetAccountByID fetches one account. With forUpdate the row stays locked
// until the surrounding transaction ends.
func GetAccountByID(ctx context.Context, q DBTX, userID, id string, forUpdate bool) (*models.Account, error) {
	query := `
		SELECT id::text, user_id::text, name, balance::text, created_at
		FROM accounts WHERE id = $1 AND user_id = $2
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	a, err := scanAccount(q.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func UpdateAccountBalance(ctx context.Context, q DBTX, userID, id string, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1::numeric WHERE id = $2 AND user_id = $3`
	cmd, err := q.Exec(ctx, query, balance.String(), id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return nil
}
