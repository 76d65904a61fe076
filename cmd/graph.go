package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	stash "github.com/SurferSamuel/Stash-sub000"
)

type graphCmd struct {
	account string
	window  string
	labels  labelFilter
}

func (*graphCmd) Name() string     { return "graph" }
func (*graphCmd) Synopsis() string { return "show the portfolio value series over time" }
func (*graphCmd) Usage() string {
	return `graph [-w 1m|3m|6m|12m|max] [-a <account>] [-f <category>=<label> ...]

  Reconstructs the combined portfolio value from trade history and daily
  closes and prints the requested trailing window. The max window is sampled
  weekly.
`
}

func (c *graphCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.window, "w", "6m", "Trailing window: 1m, 3m, 6m, 12m or max")
	f.StringVar(&c.account, "a", "", "Restrict to one account (name or id)")
	f.Var(&c.labels, "f", "Label filter, category=label. Repeatable.")
}

func (c *graphCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, err := openRepository()
	if err != nil {
		return fail(err)
	}
	valuator, ledger, err := newValuator(repo)
	if err != nil {
		return fail(err)
	}

	filter := stash.SnapshotFilter{Labels: c.labels.byCategory}
	if c.account != "" {
		account, err := resolveAccount(ledger, c.account)
		if err != nil {
			return fail(err)
		}
		filter.AccountID = account.ID
	}

	snapshot, err := valuator.Snapshot(ctx, filter)
	if err != nil {
		return fail(err)
	}
	saveHistories(repo, valuator)

	series, ok := snapshot.Windows[c.window]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown window %q\n", c.window)
		return subcommands.ExitUsageError
	}
	printMarkdown(seriesMarkdown(c.window, series))
	return subcommands.ExitSuccess
}
