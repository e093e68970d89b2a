package inmemory

import (
	"github.com/shopspring/decimal"

	"spendwise-server/src/models"
)

var demoCategories = []struct {
	name string
	typ  models.CategoryType
}{
	{"Salary", models.CategoryIncome},
	{"Food", models.CategoryExpense},
	{"Rent", models.CategoryExpense},
	{"Transport", models.CategoryExpense},
}

// Seed gives userID a zero-balance checking account and a starter set of
// income and expense categories. Without it a memory:// server has nothing
// to attach new expenses to. Seeding the same user twice is a no-op.
func (s *Store) Seed(userID string) {
	s.mu.Lock()
	for _, a := range s.accounts {
		if a.UserID == userID {
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()

	s.AddAccount(models.Account{UserID: userID, Name: "Checking", Balance: decimal.Zero})
	for _, c := range demoCategories {
		s.AddCategory(models.Category{UserID: userID, Name: c.name, Type: c.typ})
	}
}
