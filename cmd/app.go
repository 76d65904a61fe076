// Package cmd implements the CLI application to manage a share portfolio.
package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	stash "github.com/SurferSamuel/Stash-sub000"
	"github.com/SurferSamuel/Stash-sub000/yahoo"
)

// Commands lists every subcommand of the application.
// A main package registers them all on its commander.
var Commands = []subcommands.Command{
	&buyCmd{},
	&sellCmd{},
	&holdingsCmd{},
	&graphCmd{},
	&updateCmd{},
	&accountsCmd{},
	&addAccountCmd{},
	&renameAccountCmd{},
	&deleteAccountCmd{},
	&addSecurityCmd{},
	&labelCmd{},
	&optionsCmd{},
	&serveCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
var gateway = sync.OnceValue(func() stash.Gateway {
	if base := config().YahooURL; base != "" {
		return yahoo.NewClientAt(base)
	}
	return yahoo.NewClient()
})

// openRepository opens the typed persistence layer over the configured data directory.
func openRepository() (*stash.Repository, error) {
	store, err := stash.NewFileStore(config().DataDir)
	if err != nil {
		return nil, err
	}
	return stash.NewRepository(store), nil
}

// newValuator loads everything the valuation layer needs in one call.
func newValuator(repo *stash.Repository) (*stash.Valuator, *stash.Ledger, error) {
	ledger, err := repo.Ledger()
	if err != nil {
		return nil, nil, err
	}
	histories, err := repo.Histories()
	if err != nil {
		return nil, nil, err
	}
	return stash.NewValuator(ledger, gateway(), histories), ledger, nil
}

// saveHistories persists the history cache when a refresh changed it.
func saveHistories(repo *stash.Repository, v *stash.Valuator) {
	if histories, dirty := v.Histories(); dirty {
		if err := repo.SaveHistories(histories); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save price histories: %v\n", err)
		}
	}
}

// resolveAccount maps the -a flag to an account, accepting a name or an id.
func resolveAccount(ledger *stash.Ledger, nameOrID string) (stash.Account, error) {
	if account, ok := ledger.AccountByName(nameOrID); ok {
		return account, nil
	}
	if account, ok := ledger.Account(nameOrID); ok {
		return account, nil
	}
	return stash.Account{}, fmt.Errorf("account %q: %w", nameOrID, stash.ErrAccountNotFound)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering is not possible.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
