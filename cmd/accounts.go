package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	stash "github.com/SurferSamuel/Stash-sub000"
)

// --- List accounts ---

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list all accounts" }
func (*accountsCmd) Usage() string {
	return `accounts

  Lists every account with its id and creation date.
`
}

func (*accountsCmd) SetFlags(f *flag.FlagSet) {}

func (*accountsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, err := openRepository()
	if err != nil {
		return fail(err)
	}
	ledger, err := repo.Ledger()
	if err != nil {
		return fail(err)
	}

	var b strings.Builder
	b.WriteString("# Accounts\n\n")
	accounts := ledger.Accounts()
	if len(accounts) == 0 {
		b.WriteString("No accounts yet. Create one with add-account.\n")
	} else {
		b.WriteString("| Name | Id | Created |\n|---|---|---|\n")
		for _, account := range accounts {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", account.Name, account.ID, account.Created)
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

// --- Add account ---

type addAccountCmd struct {
	name string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "create a new trading account" }
func (*addAccountCmd) Usage() string {
	return `add-account -n <name>

  Creates an account. Names must be unique; the id is generated.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "n", "", "Account name")
}

func (c *addAccountCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		f.Usage()
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
	account, err := ledger.CreateAccount(c.name, stash.Today())
	if err != nil {
		return fail(err)
	}
	if err := repo.SaveLedger(ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Created account %q (%s)\n", account.Name, account.ID)
	return subcommands.ExitSuccess
}

// --- Rename account ---

type renameAccountCmd struct {
	account string
	name    string
}

func (*renameAccountCmd) Name() string     { return "rename-account" }
func (*renameAccountCmd) Synopsis() string { return "rename an existing account" }
func (*renameAccountCmd) Usage() string {
	return `rename-account -a <account> -n <new name>

  Renames an account. Trade history keeps referring to it by id.
`
}

func (c *renameAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account to rename (name or id)")
	f.StringVar(&c.name, "n", "", "New account name")
}

func (c *renameAccountCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.name == "" {
		f.Usage()
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
	account, err := resolveAccount(ledger, c.account)
	if err != nil {
		return fail(err)
	}
	if err := ledger.RenameAccount(account.ID, c.name); err != nil {
		return fail(err)
	}
	if err := repo.SaveLedger(ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Renamed account %q to %q\n", account.Name, c.name)
	return subcommands.ExitSuccess
}

// --- Delete account ---

type deleteAccountCmd struct {
	account string
	yes     bool
}

func (*deleteAccountCmd) Name() string     { return "delete-account" }
func (*deleteAccountCmd) Synopsis() string { return "delete an account and its trade data" }
func (*deleteAccountCmd) Usage() string {
	return `delete-account -a <account> -yes

  Deletes an account and removes its open lots and trade history from every
  security. This cannot be undone, so -yes is required.
`
}

func (c *deleteAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account to delete (name or id)")
	f.BoolVar(&c.yes, "yes", false, "Confirm the deletion")
}

func (c *deleteAccountCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if !c.yes {
		fmt.Println("Refusing to delete without -yes: this removes the account's lots and history everywhere.")
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
	account, err := resolveAccount(ledger, c.account)
	if err != nil {
		return fail(err)
	}
	if err := ledger.DeleteAccount(account.ID); err != nil {
		return fail(err)
	}
	if err := repo.SaveLedger(ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted account %q and all its trade data\n", account.Name)
	return subcommands.ExitSuccess
}
