// Command spendctl runs maintenance tasks against the expense database:
// report exports, reconciled deletes and schema migrations.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&exportCmd{}, "expenses")
	commander.Register(&deleteCmd{}, "expenses")
	commander.Register(&migrateCmd{}, "database")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
