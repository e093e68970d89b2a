package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire form of an expense date. Dates carry no time of day.
const DateLayout = "2006-01-02"

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentOther:
		return true
	}
	return false
}

// Expense is a single income or expense record. Amount is always a
// non-negative magnitude; the joined category decides its direction.
type Expense struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	CategoryID    *string         `json:"category_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Tags          []string        `json:"tags"`
	AccountID     *string         `json:"account_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Categories    *CategoryRef    `json:"categories"`
}

type expenseJSON Expense

// MarshalJSON writes Date as DateLayout, the same form the create endpoint
// accepts.
func (e Expense) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		expenseJSON
		Date string `json:"date"`
	}{expenseJSON(e), e.Date.Format(DateLayout)})
}

// UnmarshalJSON reads Date as DateLayout, or as RFC 3339 for older payloads.
func (e *Expense) UnmarshalJSON(b []byte) error {
	aux := struct {
		*expenseJSON
		Date string `json:"date"`
	}{expenseJSON: (*expenseJSON)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		e.Date = time.Time{}
		return nil
	}
	date, err := time.Parse(DateLayout, aux.Date)
	if err != nil {
		date, err = time.Parse(time.RFC3339, aux.Date)
	}
	if err != nil {
		return fmt.Errorf("expense date %q: %w", aux.Date, err)
	}
	e.Date = date
	return nil
}

func (e *Expense) IsIncome() bool {
	return e.Categories != nil && e.Categories.Type == CategoryIncome
}

func (e *Expense) HasAccount() bool {
	return e.AccountID != nil && *e.AccountID != ""
}

// NewExpense is the input accepted when recording a transaction.
type NewExpense struct {
	Date          time.Time
	Description   string
	Amount        decimal.Decimal
	CategoryID    *string
	PaymentMethod PaymentMethod
	Tags          []string
	AccountID     *string
}
