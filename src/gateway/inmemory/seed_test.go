package inmemory

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"spendwise-server/src/models"
	"spendwise-server/src/reconcile"
)

func TestSeed_GivesUserSomethingToRecordAgainst(t *testing.T) {
	s := NewStore()
	s.Seed("u1")
	s.Seed("u1")
	ctx := userCtx("u1")

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 1 || accounts[0].Name != "Checking" || !accounts[0].Balance.IsZero() {
		t.Fatalf("ListAccounts() = %+v, want one empty Checking account", accounts)
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != len(demoCategories) {
		t.Fatalf("ListCategories() = %d, want %d", len(categories), len(demoCategories))
	}

	var salary string
	for _, c := range categories {
		if c.Type == models.CategoryIncome {
			salary = c.ID
		}
	}
	if salary == "" {
		t.Fatal("no income category seeded")
	}

	_, err = reconcile.New(s, zerolog.Nop()).Create(ctx, models.NewExpense{
		Date:          time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
		Description:   "Paycheck",
		Amount:        decimal.NewFromInt(1500),
		CategoryID:    &salary,
		PaymentMethod: models.PaymentBankTransfer,
		AccountID:     &accounts[0].ID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	acct, _ := s.Account(accounts[0].ID)
	if !acct.Balance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("balance = %s, want 1500", acct.Balance)
	}

	if other, _ := s.ListAccounts(userCtx("u2")); len(other) != 0 {
		t.Errorf("other user sees %d accounts", len(other))
	}
}
