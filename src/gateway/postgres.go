package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	cache "spendwise-server/src/db"
	db "spendwise-server/src/db/sql"
	"spendwise-server/src/events"
	"spendwise-server/src/identity"
	"spendwise-server/src/models"
	"spendwise-server/src/reconcile"
)

// Postgres serves the gateway from a pgx pool. Listings are cached per user;
// single-row reads always hit the database.
type Postgres struct {
	pool  *pgxpool.Pool
	q     db.DBTX
	cache *cache.Cache
	inTx  bool
}

// NewPostgres returns a gateway over pool. c may be nil to disable caching.
func NewPostgres(pool *pgxpool.Pool, c *cache.Cache) *Postgres {
	return &Postgres{pool: pool, q: pool, cache: c}
}

func (g *Postgres) CurrentUser(ctx context.Context) (string, error) {
	return CurrentUser(ctx)
}

func (g *Postgres) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	cached, gen, ok := g.cached(cache.ExpenseKind, userID)
	if ok {
		return append([]models.Expense(nil), cached.([]models.Expense)...), nil
	}

	expenses, err := db.ListExpenses(ctx, g.q, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	g.store(cache.ExpenseKind, userID, expenses, gen)
	return append([]models.Expense(nil), expenses...), nil
}

func (g *Postgres) ListCategories(ctx context.Context) ([]models.Category, error) {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	cached, gen, ok := g.cached(cache.CategoryKind, userID)
	if ok {
		return append([]models.Category(nil), cached.([]models.Category)...), nil
	}

	categories, err := db.ListCategories(ctx, g.q, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	g.store(cache.CategoryKind, userID, categories, gen)
	return append([]models.Category(nil), categories...), nil
}

func (g *Postgres) ListAccounts(ctx context.Context) ([]models.Account, error) {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	cached, gen, ok := g.cached(cache.AccountKind, userID)
	if ok {
		return append([]models.Account(nil), cached.([]models.Account)...), nil
	}

	accounts, err := db.ListAccounts(ctx, g.q, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	g.store(cache.AccountKind, userID, accounts, gen)
	return append([]models.Account(nil), accounts...), nil
}

func (g *Postgres) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkID("expense", id); err != nil {
		return nil, err
	}
	e, err := db.GetExpenseByID(ctx, g.q, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

// GetAccount locks the account row when called inside Atomically.
func (g *Postgres) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkID("account", id); err != nil {
		return nil, err
	}
	a, err := db.GetAccountByID(ctx, g.q, userID, id, g.inTx)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

func (g *Postgres) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := checkID("account", id); err != nil {
		return err
	}
	if err := db.UpdateAccountBalance(ctx, g.q, userID, id, balance); err != nil {
		return fmt.Errorf("update account %s: %w", id, err)
	}
	g.afterWrite(userID)
	return nil
}

func (g *Postgres) DeleteExpense(ctx context.Context, id string) error {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := checkID("expense", id); err != nil {
		return err
	}
	if err := db.DeleteExpense(ctx, g.q, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	g.afterWrite(userID)
	return nil
}

func (g *Postgres) InsertExpense(ctx context.Context, in models.NewExpense) (string, error) {
	userID, err := CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := db.InsertExpense(ctx, g.q, userID, id, in); err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	g.afterWrite(userID)
	return id, nil
}

// Atomically runs fn inside one database transaction. Nested calls join the
// outer transaction.
func (g *Postgres) Atomically(ctx context.Context, fn func(ctx context.Context, s reconcile.Store) error) error {
	if g.inTx {
		return fn(ctx, g)
	}
	err := pgx.BeginFunc(ctx, g.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Postgres{pool: g.pool, q: tx, cache: g.cache, inTx: true})
	})
	// Invalidate again once the outcome is visible to other connections.
	if userID, ok := identity.UserID(ctx); ok {
		g.invalidate(userID)
	}
	return err
}

// Listen drops cached listings whenever a refresh event is published: for the
// publishing user when the context carries one, for everyone otherwise.
func (g *Postgres) Listen(bus *events.Bus) func() {
	if g.cache == nil {
		return func() {}
	}
	handler := func(ctx context.Context, _ events.Name) {
		if userID, ok := identity.UserID(ctx); ok {
			g.invalidate(userID)
			return
		}
		g.cache.ClearAll(cache.ExpenseKind)
		g.cache.ClearAll(cache.AccountKind)
	}
	unsubExpense := bus.Subscribe(events.ExpenseUpdated, handler)
	unsubTransaction := bus.Subscribe(events.TransactionUpdated, handler)
	return func() {
		unsubExpense()
		unsubTransaction()
	}
}

// checkID rejects ids that cannot name a row, since the uuid columns would
// otherwise fail the whole statement.
func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (g *Postgres) afterWrite(userID string) {
	if !g.inTx {
		g.invalidate(userID)
	}
}

func (g *Postgres) invalidate(userID string) {
	if g.cache == nil {
		return
	}
	g.cache.Del(cache.ExpenseKind, userID)
	g.cache.Del(cache.AccountKind, userID)
}

// cached also returns the generation a later store must match.
func (g *Postgres) cached(kind cache.Kind, userID string) (interface{}, uint64, bool) {
	if g.cache == nil || g.inTx {
		return nil, 0, false
	}
	gen := g.cache.Generation(kind, userID)
	value, ok := g.cache.Get(kind, userID)
	return value, gen, ok
}

func (g *Postgres) store(kind cache.Kind, userID string, value interface{}, gen uint64) {
	if g.cache == nil || g.inTx {
		return
	}
	g.cache.SetIfCurrent(kind, userID, value, gen)
}

var _ Gateway = (*Postgres)(nil)
