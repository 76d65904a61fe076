package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/google/subcommands"

	stash "github.com/SurferSamuel/Stash-sub000"
)

// --- Add security ---

type addSecurityCmd struct {
	code  string
	name  string
	notes string
}

func (*addSecurityCmd) Name() string     { return "add-security" }
func (*addSecurityCmd) Synopsis() string { return "register a new security" }
func (*addSecurityCmd) Usage() string {
	return `add-security -s <code> [-n <name>] [-notes <text>]

  Registers an ASX security so trades can be recorded against it.
`
}

func (c *addSecurityCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "s", "", "Security code, e.g. BHP")
	f.StringVar(&c.name, "n", "", "Company name")
	f.StringVar(&c.notes, "notes", "", "Free-form notes")
}

func (c *addSecurityCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" {
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
	sec := stash.NewSecurity(c.code, c.name)
	sec.Notes = c.notes
	if err := ledger.AddSecurity(sec); err != nil {
		return fail(err)
	}
	if err := repo.SaveLedger(ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Added security %s\n", sec.Code)
	return subcommands.ExitSuccess
}

// --- Label a security ---

type labelCmd struct {
	code     string
	category string
}

func (*labelCmd) Name() string     { return "label" }
func (*labelCmd) Synopsis() string { return "attach labels to a security" }
func (*labelCmd) Usage() string {
	return `label -s <code> -c <category> <label> [<label> ...]

  Attaches labels to a security under a category. New labels are also added
  to the category's options so later filters can offer them.
`
}

func (c *labelCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "s", "", "Security code")
	f.StringVar(&c.category, "c", "", "Label category")
}

func (c *labelCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	labels := f.Args()
	if c.code == "" || c.category == "" || len(labels) == 0 {
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
	registry, err := repo.Registry()
	if err != nil {
		return fail(err)
	}

	sec := ledger.Security(c.code)
	if sec == nil {
		return fail(fmt.Errorf("security %q: %w", c.code, stash.ErrSecurityNotFound))
	}

	registry.Add(c.category, labels...)
	if sec.Labels == nil {
		sec.Labels = make(map[string][]string)
	}
	for _, label := range labels {
		if !contains(sec.Labels[c.category], label) {
			sec.Labels[c.category] = append(sec.Labels[c.category], label)
		}
	}
	sort.Strings(sec.Labels[c.category])

	if err := repo.SaveRegistry(registry); err != nil {
		return fail(err)
	}
	if err := repo.SaveLedger(ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Labelled %s: %s = %s\n", sec.Code, c.category, strings.Join(sec.Labels[c.category], ", "))
	return subcommands.ExitSuccess
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// --- List label options ---

type optionsCmd struct{}

func (*optionsCmd) Name() string     { return "options" }
func (*optionsCmd) Synopsis() string { return "list the label options per category" }
func (*optionsCmd) Usage() string {
	return `options

  Lists every label category with the labels it offers.
`
}

func (*optionsCmd) SetFlags(f *flag.FlagSet) {}

func (*optionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, err := openRepository()
	if err != nil {
		return fail(err)
	}
	registry, err := repo.Registry()
	if err != nil {
		return fail(err)
	}

	var b strings.Builder
	b.WriteString("# Label options\n\n")
	for category := range registry.Categories() {
		fmt.Fprintf(&b, "- **%s**: %s\n", category, strings.Join(registry.Options(category), ", "))
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
