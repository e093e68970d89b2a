// Package reconcile keeps account balances in step with the expenses linked
// to them. Deleting an expense runs a fixed sequence of store calls
// (fetch expense, fetch account, write balance, delete expense) and reverses
// the effect the expense had on its account when it was recorded.
package reconcile

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"spendwise-server/src/models"
)

// Store is the slice of the data gateway the flows need.
type Store interface {
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error
	DeleteExpense(ctx context.Context, id string) error
	InsertExpense(ctx context.Context, in models.NewExpense) (string, error)
}

// Atomic is implemented by stores that can run several calls as one unit:
// either every call inside fn takes effect or none does.
type Atomic interface {
	Atomically(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// Effect is the signed change an expense applies to its account when it is
// recorded: income adds the amount, anything else subtracts it.
func Effect(e *models.Expense) decimal.Decimal {
	if e.IsIncome() {
		return e.Amount
	}
	return e.Amount.Neg()
}

// Adjustment is the signed change that undoes Effect on delete.
func Adjustment(e *models.Expense) decimal.Decimal {
	return Effect(e).Neg()
}

// Outcome describes one run of the delete flow. When the store is Atomic and
// the run failed, Account and NewBalance describe writes that were rolled back.
type Outcome struct {
	States     []State
	Expense    *models.Expense
	Account    *models.Account
	Adjustment decimal.Decimal
	NewBalance decimal.Decimal
}

// Final returns the last state the flow reached.
func (o *Outcome) Final() State {
	if len(o.States) == 0 {
		return Idle
	}
	return o.States[len(o.States)-1]
}

func (o *Outcome) enter(s State) {
	o.States = append(o.States, s)
}

type Reconciler struct {
	store Store
	log   zerolog.Logger
}

func New(store Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Delete removes the expense id, first reverting its effect on the linked
// account if it has one. Errors are returned as *StepError.
func (r *Reconciler) Delete(ctx context.Context, id string) (*Outcome, error) {
	out := &Outcome{States: []State{Idle}}

	err := r.atomically(ctx, func(ctx context.Context, s Store) error {
		return runDelete(ctx, s, id, out)
	})
	if err != nil {
		var stepErr *StepError
		if !errors.As(err, &stepErr) {
			err = &StepError{State: out.Final(), Err: err}
		}
		out.enter(Failed)
		r.log.Error().Err(err).Str("expense_id", id).Msg("Expense delete failed")
		return out, err
	}
	out.enter(Done)

	ev := r.log.Info().Str("expense_id", id)
	if out.Account != nil {
		ev = ev.Str("account_id", out.Account.ID).
			Str("adjustment", out.Adjustment.StringFixed(2)).
			Str("balance", out.NewBalance.StringFixed(2))
	}
	ev.Msg("Expense deleted")
	return out, nil
}

func runDelete(ctx context.Context, s Store, id string, out *Outcome) error {
	out.enter(FetchingTransaction)
	exp, err := s.GetExpense(ctx, id)
	if err != nil {
		return &StepError{State: FetchingTransaction, Err: err}
	}
	out.Expense = exp

	if exp.HasAccount() {
		out.enter(FetchingAccount)
		acct, err := s.GetAccount(ctx, *exp.AccountID)
		if err != nil {
			return &StepError{State: FetchingAccount, Err: err}
		}
		out.Account = acct
		out.Adjustment = Adjustment(exp)
		out.NewBalance = acct.Balance.Add(out.Adjustment)

		out.enter(UpdatingAccount)
		if err := s.UpdateAccountBalance(ctx, acct.ID, out.NewBalance); err != nil {
			return &StepError{State: UpdatingAccount, Err: err}
		}
	}

	out.enter(DeletingTransaction)
	if err := s.DeleteExpense(ctx, id); err != nil {
		return &StepError{State: DeletingTransaction, Err: err}
	}
	return nil
}

// Create records a new expense and applies its effect to the linked account.
func (r *Reconciler) Create(ctx context.Context, in models.NewExpense) (*models.Expense, error) {
	var created *models.Expense
	err := r.atomically(ctx, func(ctx context.Context, s Store) error {
		id, err := s.InsertExpense(ctx, in)
		if err != nil {
			return err
		}
		exp, err := s.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		if exp.HasAccount() {
			acct, err := s.GetAccount(ctx, *exp.AccountID)
			if err != nil {
				return err
			}
			if err := s.UpdateAccountBalance(ctx, acct.ID, acct.Balance.Add(Effect(exp))); err != nil {
				return err
			}
		}
		created = exp
		return nil
	})
	if err != nil {
		r.log.Error().Err(err).Str("description", in.Description).Msg("Expense create failed")
		return nil, err
	}

	r.log.Info().Str("expense_id", created.ID).Str("amount", created.Amount.StringFixed(2)).Msg("Expense created")
	return created, nil
}

func (r *Reconciler) atomically(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if a, ok := r.store.(Atomic); ok {
		return a.Atomically(ctx, fn)
	}
	return fn(ctx, r.store)
}
