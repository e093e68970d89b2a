// Package views holds the per-user state behind the expense screens: the
// loaded list, the categories, and the current selection.
package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"spendwise-server/src/events"
	"spendwise-server/src/export"
	"spendwise-server/src/gateway"
	"spendwise-server/src/models"
	"spendwise-server/src/reconcile"
	"spendwise-server/src/selection"
)

var (
	ErrUnknownExpense = errors.New("expense is not in the list")
	ErrInvalidExpense = errors.New("invalid expense")
)

// SelectionState is the selection as shown above the list.
type SelectionState struct {
	Selected    []string `json:"selected"`
	Label       string   `json:"label"`
	AllSelected bool     `json:"all_selected"`
}

// Snapshot is a copy of everything the list screen renders.
type Snapshot struct {
	Expenses   []models.Expense  `json:"expenses"`
	Categories []models.Category `json:"categories"`
	SelectionState
}

// ExpensesView is the list/selection state of one user. All methods are safe
// for concurrent use; calls are serialized on the view.
type ExpensesView struct {
	userID string
	gw     gateway.Gateway
	rec    *reconcile.Reconciler
	bus    *events.Bus
	log    zerolog.Logger

	mu         sync.Mutex
	expenses   []models.Expense
	categories []models.Category
	selected   selection.Set
	loaded     bool

	// stale is set from bus listeners, which may run while mu is held.
	stale atomic.Bool
	unsub []func()

	// lastUsed is the unix nano time of the last Registry.For hit.
	lastUsed atomic.Int64
}

func newExpensesView(userID string, gw gateway.Gateway, rec *reconcile.Reconciler, bus *events.Bus, log zerolog.Logger) *ExpensesView {
	v := &ExpensesView{
		userID: userID,
		gw:     gw,
		rec:    rec,
		bus:    bus,
		log:    log.With().Str("user_id", userID).Logger(),
	}
	if bus != nil {
		for _, name := range []events.Name{events.ExpenseUpdated, events.TransactionUpdated} {
			v.unsub = append(v.unsub, bus.Subscribe(name, v.onEvent))
		}
	}
	return v
}

func (v *ExpensesView) onEvent(ctx context.Context, _ events.Name) {
	userID, err := gateway.CurrentUser(ctx)
	if err != nil || userID == v.userID {
		v.stale.Store(true)
	}
}

func (v *ExpensesView) close() {
	for _, fn := range v.unsub {
		fn()
	}
}

// Stale reports whether the view needs a reload before it is read.
func (v *ExpensesView) Stale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.loaded || v.stale.Load()
}

// Load fetches the expenses, then the categories. A request without a user
// loads nothing. On error the previous state is kept.
func (v *ExpensesView) Load(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.load(ctx)
}

func (v *ExpensesView) load(ctx context.Context) error {
	v.stale.Store(false)

	expenses, err := v.gw.ListExpenses(ctx)
	if errors.Is(err, gateway.ErrNoUser) {
		return nil
	}
	if err != nil {
		v.stale.Store(true)
		v.log.Error().Err(err).Msg("Failed to load expenses")
		return fmt.Errorf("load expenses: %w", err)
	}
	categories, err := v.gw.ListCategories(ctx)
	if err != nil && !errors.Is(err, gateway.ErrNoUser) {
		v.stale.Store(true)
		v.log.Error().Err(err).Msg("Failed to load categories")
		return fmt.Errorf("load categories: %w", err)
	}

	v.expenses = expenses
	v.categories = categories
	v.selected.Retain(v.ids())
	v.loaded = true
	return nil
}

// ensure reloads when the view was never loaded or an event marked it stale.
func (v *ExpensesView) ensure(ctx context.Context) error {
	if v.loaded && !v.stale.Load() {
		return nil
	}
	return v.load(ctx)
}

func (v *ExpensesView) ids() []string {
	ids := make([]string, len(v.expenses))
	for i := range v.expenses {
		ids[i] = v.expenses[i].ID
	}
	return ids
}

func (v *ExpensesView) contains(id string) bool {
	for i := range v.expenses {
		if v.expenses[i].ID == id {
			return true
		}
	}
	return false
}

func (v *ExpensesView) selectionState() SelectionState {
	n := len(v.expenses)
	return SelectionState{
		Selected:    v.selected.IDs(),
		Label:       v.selected.Label(n),
		AllSelected: n > 0 && v.selected.Size() == n,
	}
}

func (v *ExpensesView) Snapshot(ctx context.Context) (Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensure(ctx); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		Expenses:       append([]models.Expense{}, v.expenses...),
		Categories:     append([]models.Category{}, v.categories...),
		SelectionState: v.selectionState(),
	}
	return s, nil
}

func (v *ExpensesView) Selection(ctx context.Context) (SelectionState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensure(ctx); err != nil {
		return SelectionState{}, err
	}
	return v.selectionState(), nil
}

// Toggle flips the selection of id, which must be in the list.
func (v *ExpensesView) Toggle(ctx context.Context, id string) (SelectionState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensure(ctx); err != nil {
		return SelectionState{}, err
	}
	if !v.contains(id) {
		return SelectionState{}, fmt.Errorf("toggle %s: %w", id, ErrUnknownExpense)
	}
	v.selected.Toggle(id)
	return v.selectionState(), nil
}

// SelectAll selects every listed expense, or clears the selection when all
// of them are already selected.
func (v *ExpensesView) SelectAll(ctx context.Context) (SelectionState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensure(ctx); err != nil {
		return SelectionState{}, err
	}
	v.selected.SelectAll(v.ids())
	return v.selectionState(), nil
}

// Delete runs the reconciled delete of id. Only a completed run changes the
// list and selection; both refresh events are published afterwards.
func (v *ExpensesView) Delete(ctx context.Context, id string) (*reconcile.Outcome, error) {
	out, err := v.deleteLocked(ctx, id)
	if err != nil {
		return out, err
	}
	v.publish(ctx)
	return out, nil
}

func (v *ExpensesView) deleteLocked(ctx context.Context, id string) (*reconcile.Outcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	out, err := v.rec.Delete(ctx, id)
	if err != nil {
		return out, err
	}

	kept := v.expenses[:0:0]
	for _, e := range v.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	v.expenses = kept
	v.selected.Remove(id)
	return out, nil
}

// Create validates and records a new expense, then reloads the list.
func (v *ExpensesView) Create(ctx context.Context, in models.NewExpense) (*models.Expense, error) {
	created, err := v.createLocked(ctx, in)
	if err != nil {
		return nil, err
	}
	v.publish(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.load(ctx); err != nil {
		v.log.Warn().Err(err).Str("expense_id", created.ID).Msg("Reload after create failed")
	}
	return created, nil
}

func (v *ExpensesView) createLocked(ctx context.Context, in models.NewExpense) (*models.Expense, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensure(ctx); err != nil {
		return nil, err
	}

	in, err := v.validate(in)
	if err != nil {
		return nil, err
	}
	return v.rec.Create(ctx, in)
}

func (v *ExpensesView) validate(in models.NewExpense) (models.NewExpense, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return in, fmt.Errorf("%w: description is required", ErrInvalidExpense)
	}
	if !in.Amount.IsPositive() {
		return in, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidExpense)
	}
	if in.Date.IsZero() {
		return in, fmt.Errorf("%w: date is required", ErrInvalidExpense)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentOther
	}
	if !in.PaymentMethod.Valid() {
		return in, fmt.Errorf("%w: unknown payment method %q", ErrInvalidExpense, in.PaymentMethod)
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if in.CategoryID != nil && !v.hasCategory(*in.CategoryID) {
		return in, fmt.Errorf("%w: unknown category %s", ErrInvalidExpense, *in.CategoryID)
	}
	if in.AccountID != nil && *in.AccountID == "" {
		in.AccountID = nil
	}
	return in, nil
}

func (v *ExpensesView) hasCategory(id string) bool {
	for _, c := range v.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (v *ExpensesView) publish(ctx context.Context) {
	if v.bus == nil {
		return
	}
	v.bus.Publish(ctx, events.ExpenseUpdated)
	v.bus.Publish(ctx, events.TransactionUpdated)
}

// ExportPDF writes the selected expenses, or all of them when none are
// selected, as a PDF report.
func (v *ExpensesView) ExportPDF(ctx context.Context, w io.Writer) error {
	rows, err := v.rows(ctx)
	if err != nil {
		return err
	}
	return export.PDFWriter{Compress: true}.Write(w, rows)
}

// ExportXLSX is ExportPDF for a spreadsheet.
func (v *ExpensesView) ExportXLSX(ctx context.Context, w io.Writer) error {
	rows, err := v.rows(ctx)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, rows)
}

func (v *ExpensesView) rows(ctx context.Context) ([]export.Row, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensure(ctx); err != nil {
		return nil, err
	}
	return export.Rows(v.expenses, v.selected.IDs()), nil
}
