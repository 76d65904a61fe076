package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	stash "github.com/SurferSamuel/Stash-sub000"
)

type holdingsCmd struct {
	account string
	labels  labelFilter
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "show current holdings with live prices" }
func (*holdingsCmd) Usage() string {
	return `holdings [-a <account>] [-f <category>=<label> ...]

  Shows the value, profit and weight of every held security. Repeat -f to
  require a label match in several categories at once.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Restrict to one account (name or id)")
	f.Var(&c.labels, "f", "Label filter, category=label. Repeatable.")
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	printMarkdown(holdingsMarkdown(snapshot))
	return subcommands.ExitSuccess
}

// labelFilter accumulates repeated category=label flags.
type labelFilter struct {
	byCategory map[string][]string
}

func (l *labelFilter) String() string { return "" }

func (l *labelFilter) Set(value string) error {
	category, label, ok := strings.Cut(value, "=")
	if !ok || category == "" || label == "" {
		return fmt.Errorf("expected category=label, got %q", value)
	}
	if l.byCategory == nil {
		l.byCategory = make(map[string][]string)
	}
	l.byCategory[category] = append(l.byCategory[category], label)
	return nil
}
