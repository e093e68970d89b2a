package db

import (
	"context"

	"spendwise-server/src/models"
)

func ListCategories(ctx context.Context, q DBTX, userID string) ([]models.Category, error) {
	query := `
		SELECT id::text, user_id::text, name, type, created_at
		FROM categories WHERE user_id = $1
		ORDER BY name
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
