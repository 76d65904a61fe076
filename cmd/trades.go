package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	stash "github.com/SurferSamuel/Stash-sub000"
)

// --- Buy Command ---

type buyCmd struct {
	date      string
	security  string
	account   string
	quantity  float64
	price     float64
	brokerage float64
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `buy -s <code> -a <account> -q <quantity> -p <price> [-b <brokerage>] [-d <date>]

  Records a share purchase as a new open lot of the security. GST is added on
  top of the brokerage at the configured rate.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", stash.Today().String(), "Trade date (YYYY-MM-DD)")
	f.StringVar(&c.security, "s", "", "Security code")
	f.StringVar(&c.account, "a", "", "Account name")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.brokerage, "b", 0, "Brokerage fee, excluding GST")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.security == "" || c.account == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := stash.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	repo, err := openRepository()
	if err != nil {
		return fail(err)
	}
	ledger, err := repo.Ledger()
	if err != nil {
		return fail(err)
	}
	settings, err := repo.Settings()
	if err != nil {
		return fail(err)
	}
	account, err := resolveAccount(ledger, c.account)
	if err != nil {
		return fail(err)
	}

	err = ledger.RecordBuy(c.security, account, day, stash.Q(c.quantity), stash.M(c.price), stash.M(c.brokerage), settings.GSTRate)
	if err != nil {
		return fail(err)
	}
	if err := repo.SaveLedger(ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Bought %v %s @ %v for account %q\n", c.quantity, c.security, stash.M(c.price), account.Name)
	return subcommands.ExitSuccess
}

// --- Sell Command ---

type sellCmd struct {
	date      string
	security  string
	account   string
	quantity  float64
	price     float64
	brokerage float64
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares to trim or close a position" }
func (*sellCmd) Usage() string {
	return `sell -s <code> -a <account> -q <quantity> -p <price> [-b <brokerage>] [-d <date>]

  Sells shares of a security. Open lots of the account are consumed oldest
  first, and one capital-gain record is written per lot consumed.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", stash.Today().String(), "Trade date (YYYY-MM-DD)")
	f.StringVar(&c.security, "s", "", "Security code")
	f.StringVar(&c.account, "a", "", "Account name")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.brokerage, "b", 0, "Brokerage fee, excluding GST")
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.security == "" || c.account == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := stash.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	repo, err := openRepository()
	if err != nil {
		return fail(err)
	}
	ledger, err := repo.Ledger()
	if err != nil {
		return fail(err)
	}
	settings, err := repo.Settings()
	if err != nil {
		return fail(err)
	}
	account, err := resolveAccount(ledger, c.account)
	if err != nil {
		return fail(err)
	}

	err = ledger.RecordSell(c.security, account, day, stash.Q(c.quantity), stash.M(c.price), stash.M(c.brokerage), settings.GSTRate)
	if err != nil {
		return fail(err)
	}
	if err := repo.SaveLedger(ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Sold %v %s @ %v for account %q\n", c.quantity, c.security, stash.M(c.price), account.Name)
	return subcommands.ExitSuccess
}
