// Package inmemory is a Gateway kept in process memory. It backs the
// server's memory:// store and the tests of everything built on the gateway.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendwise-server/src/gateway"
	"spendwise-server/src/models"
	"spendwise-server/src/reconcile"
)

// Call is one recorded gateway operation.
type Call struct {
	Op      string
	ID      string
	Balance string
}

type Store struct {
	// txMu serializes Atomically units; mu guards the maps.
	txMu sync.Mutex
	mu   sync.Mutex

	categories map[string]models.Category
	accounts   map[string]models.Account
	expenses   map[string]models.Expense
	calls      []Call
	failures   map[string]error
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		categories: make(map[string]models.Category),
		accounts:   make(map[string]models.Account),
		expenses:   make(map[string]models.Expense),
		failures:   make(map[string]error),
		now:        time.Now,
	}
}

// FailOn makes every later call of op ("expenses.delete", "accounts.update",
// ...) return err. A nil err clears the failure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns the operations recorded so far.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Store) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *Store) AddCategory(c models.Category) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.categories[c.ID] = c
	return c
}

func (s *Store) AddAccount(a models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.accounts[a.ID] = a
	return a
}

// AddExpense stores e as-is without touching any account balance.
func (s *Store) AddExpense(e models.Expense) models.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.expenses[e.ID] = e
	return e
}

// Account returns the stored account regardless of owner.
func (s *Store) Account(id string) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

// Expense returns the stored expense regardless of owner.
func (s *Store) Expense(id string) (models.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	return e, ok
}

// begin records op and returns the injected failure for it, if any.
// Callers must hold s.mu.
func (s *Store) begin(op, id string) error {
	s.calls = append(s.calls, Call{Op: op, ID: id})
	return s.failures[op]
}

func (s *Store) CurrentUser(ctx context.Context) (string, error) {
	return gateway.CurrentUser(ctx)
}

func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("expenses.list", ""); err != nil {
		return nil, err
	}

	out := []models.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, s.joined(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("categories.list", ""); err != nil {
		return nil, err
	}

	out := []models.Category{}
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("accounts.list", ""); err != nil {
		return nil, err
	}

	out := []models.Account{}
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("expenses.get", id); err != nil {
		return nil, err
	}

	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return nil, fmt.Errorf("get expense %s: %w", id, gateway.ErrNotFound)
	}
	e = s.joined(e)
	return &e, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("accounts.get", id); err != nil {
		return nil, err
	}

	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("get account %s: %w", id, gateway.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "accounts.update", ID: id, Balance: balance.StringFixed(2)})
	if err := s.failures["accounts.update"]; err != nil {
		return err
	}

	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("update account %s: %w", id, gateway.ErrNotFound)
	}
	a.Balance = balance
	s.accounts[id] = a
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("expenses.delete", id); err != nil {
		return err
	}

	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("delete expense %s: %w", id, gateway.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) InsertExpense(ctx context.Context, in models.NewExpense) (string, error) {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("expenses.insert", ""); err != nil {
		return "", err
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	e := models.Expense{
		ID:            uuid.NewString(),
		UserID:        userID,
		Date:          in.Date,
		Description:   in.Description,
		Amount:        in.Amount,
		CategoryID:    in.CategoryID,
		PaymentMethod: in.PaymentMethod,
		Tags:          tags,
		AccountID:     in.AccountID,
		CreatedAt:     s.now(),
	}
	s.expenses[e.ID] = e
	return e.ID, nil
}

// Atomically runs fn with rollback: if fn fails, every map is restored to
// its state before the call. Units run one at a time.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, st reconcile.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	accounts := cloneMap(s.accounts)
	expenses := cloneMap(s.expenses)
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.accounts = accounts
		s.expenses = expenses
		s.mu.Unlock()
		return err
	}
	return nil
}

// joined fills the category reference the way the SQL join does.
// Callers must hold s.mu.
func (s *Store) joined(e models.Expense) models.Expense {
	e.Categories = nil
	if e.CategoryID == nil {
		return e
	}
	if c, ok := s.categories[*e.CategoryID]; ok {
		e.Categories = &models.CategoryRef{ID: c.ID, Name: c.Name, Type: c.Type}
	}
	return e
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ gateway.Gateway = (*Store)(nil)
