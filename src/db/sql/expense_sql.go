package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"spendwise-server/src/models"
)

const expenseColumns = `
	e.id::text, e.user_id::text, e.date, e.description, e.amount::text, e.category_id::text,
	e.payment_method, e.tags, e.account_id::text, e.created_at,
	c.id::text, c.name, c.type
`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var (
		e                       models.Expense
		amount                  string
		catID, catName, catType *string
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.Date, &e.Description, &amount, &e.CategoryID,
		&e.PaymentMethod, &e.Tags, &e.AccountID, &e.CreatedAt,
		&catID, &catName, &catType,
	)
	if err != nil {
		return nil, err
	}

	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if catID != nil {
		e.Categories = &models.CategoryRef{ID: *catID}
		if catName != nil {
			e.Categories.Name = *catName
		}
		if catType != nil {
			e.Categories.Type = models.CategoryType(*catType)
		}
	}
	return &e, nil
}

func ListExpenses(ctx context.Context, q DBTX, userID string) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		ORDER BY e.date DESC, e.created_at DESC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func GetExpenseByID(ctx context.Context, q DBTX, userID, id string) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.id = $1 AND e.user_id = $2
	`
	e, err := scanExpense(q.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func InsertExpense(ctx context.Context, q DBTX, userID, id string, in models.NewExpense) error {
	query := `
		INSERT INTO expenses (id, user_id, date, description, amount, category_id, payment_method, tags, account_id)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
	`
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := q.Exec(ctx, query,
		id,
		userID,
		in.Date,
		in.Description,
		in.Amount.String(),
		in.CategoryID,
		string(in.PaymentMethod),
		tags,
		in.AccountID,
	)
	return err
}

func DeleteExpense(ctx context.Context, q DBTX, userID, id string) error {
	query := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`
	cmd, err := q.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return nil
}
