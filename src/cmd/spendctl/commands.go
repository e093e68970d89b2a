package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"spendwise-server/src/config"
	"spendwise-server/src/db"
	"spendwise-server/src/events"
	"spendwise-server/src/gateway"
	"spendwise-server/src/identity"
	"spendwise-server/src/logger"
	"spendwise-server/src/views"
)

// connect opens the configured Postgres database.
func connect(ctx context.Context) (*pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.LogLevel, "console")
	if cfg.InMemory() {
		return nil, log, errors.New("spendctl needs a Postgres DATABASE_URL")
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	return pool, log, err
}

type exportCmd struct {
	user   string
	format string
	out    string
	ids    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write an expense report as PDF or XLSX" }
func (*exportCmd) Usage() string {
	return `spendctl export -user <id> [-format pdf|xlsx] [-o <file>] [-ids a,b,...]

  Exports the user's expenses, newest first. With -ids only those expenses
  are included. Writes to stdout when -o is not given.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User whose expenses are exported.")
	f.StringVar(&c.format, "format", "pdf", "Report format: pdf or xlsx.")
	f.StringVar(&c.out, "o", "", "Output file.")
	f.StringVar(&c.ids, "ids", "", "Comma separated expense ids to include.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		return subcommands.ExitUsageError
	}
	if c.format != "pdf" && c.format != "xlsx" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	pool, log, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	ctx = identity.WithUserID(ctx, c.user)
	reg := views.NewRegistry(gateway.NewPostgres(pool, nil), events.NewBus(), log)
	defer reg.Close()
	view := reg.For(c.user)

	if err := selectIDs(ctx, view, parseIDs(c.ids)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var w io.Writer = os.Stdout
	if c.out != "" {
		f, err := os.Create(c.out)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		w = f
	}

	if c.format == "xlsx" {
		err = view.ExportXLSX(ctx, w)
	} else {
		err = view.ExportPDF(ctx, w)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// parseIDs splits a comma separated id list, dropping blanks and repeats.
func parseIDs(s string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, id := range strings.Split(s, ",") {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// selectIDs adds ids to the selection of view. Ids already selected stay
// selected.
func selectIDs(ctx context.Context, view *views.ExpensesView, ids []string) error {
	state, err := view.Selection(ctx)
	if err != nil {
		return err
	}
	selected := make(map[string]bool, len(state.Selected))
	for _, id := range state.Selected {
		selected[id] = true
	}
	for _, id := range ids {
		if selected[id] {
			continue
		}
		if _, err := view.Toggle(ctx, id); err != nil {
			return err
		}
		selected[id] = true
	}
	return nil
}

type deleteCmd struct {
	user string
}

func (*deleteCmd) Name() string { return "delete" }
func (*deleteCmd) Synopsis() string {
	return "delete expenses and reverse their effect on account balances"
}
func (*deleteCmd) Usage() string {
	return `spendctl delete -user <id> <expense-id>...

  Runs the reconciled delete for each expense in turn and stops at the first
  failure. A failed delete leaves the account balance untouched.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Owner of the expenses.")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	pool, log, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	ctx = identity.WithUserID(ctx, c.user)
	reg := views.NewRegistry(gateway.NewPostgres(pool, nil), events.NewBus(), log)
	defer reg.Close()
	view := reg.For(c.user)

	for _, id := range f.Args() {
		out, err := view.Delete(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "delete %s: %v\n", id, err)
			return subcommands.ExitFailure
		}
		if out.Account != nil {
			fmt.Printf("%s deleted, account %s balance %s\n", id, out.Account.ID, out.NewBalance.StringFixed(2))
		} else {
			fmt.Printf("%s deleted\n", id)
		}
	}
	return subcommands.ExitSuccess
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending schema migrations" }
func (*migrateCmd) Usage() string {
	return `spendctl migrate

  Applies the embedded SQL migrations that have not run yet.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pool, log, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, log); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
