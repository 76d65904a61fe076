package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type updateCmd struct {
	force bool
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "refresh the cached price histories" }
func (*updateCmd) Usage() string {
	return `update [-force]

  Downloads the daily price history of every known security. Histories
  already refreshed today are skipped unless -force is set. Failures are
  logged per security and do not abort the rest.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Refresh even if already updated today")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, err := openRepository()
	if err != nil {
		return fail(err)
	}
	valuator, ledger, err := newValuator(repo)
	if err != nil {
		return fail(err)
	}

	var codes []string
	for sec := range ledger.AllSecurities() {
		codes = append(codes, sec.Code)
	}
	valuator.RefreshHistories(ctx, codes, c.force)
	saveHistories(repo, valuator)

	fmt.Printf("Checked %d securities\n", len(codes))
	return subcommands.ExitSuccess
}
