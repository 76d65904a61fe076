package stash

import (
	"fmt"

	"github.com/google/uuid"
)

// Account is an investor account. Lots and trade records reference it by ID.
type Account struct {
	ID      string `json:"accountId"` // globally unique, generated
	Name    string `json:"name"`      // unique among accounts
	Created Date   `json:"createdDate"`
}

// CreateAccount adds a new account with a generated unique id.
// The name must be unique among existing accounts.
func (l *Ledger) CreateAccount(name string, on Date) (Account, error) {
	if name == "" {
		return Account{}, fmt.Errorf("account name is empty")
	}
	for _, a := range l.accounts {
		if a.Name == name {
			return Account{}, fmt.Errorf("create account %q: %w", name, ErrDuplicateName)
		}
	}
	id := uuid.NewString()
	for l.accountIndex(id) >= 0 {
		// uuid collisions are vanishingly rare, but the id must be unique.
		id = uuid.NewString()
	}
	account := Account{ID: id, Name: name, Created: on}
	l.accounts = append(l.accounts, account)
	return account, nil
}

// Account returns the account with the given id, or false if unknown.
func (l *Ledger) Account(id string) (Account, bool) {
	if i := l.accountIndex(id); i >= 0 {
		return l.accounts[i], true
	}
	return Account{}, false
}

// AccountByName returns the account with the given name, or false if unknown.
func (l *Ledger) AccountByName(name string) (Account, bool) {
	for _, a := range l.accounts {
		if a.Name == name {
			return a, true
		}
	}
	return Account{}, false
}

// Accounts returns all accounts in creation order.
func (l *Ledger) Accounts() []Account {
	out := make([]Account, len(l.accounts))
	copy(out, l.accounts)
	return out
}

// RenameAccount changes an account's name. The new name must be unique.
func (l *Ledger) RenameAccount(id, newName string) error {
	i := l.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("rename account %q: %w", id, ErrAccountNotFound)
	}
	for j, a := range l.accounts {
		if j != i && a.Name == newName {
			return fmt.Errorf("rename account to %q: %w", newName, ErrDuplicateName)
		}
	}
	l.accounts[i].Name = newName
	return nil
}

// DeleteAccount removes an account and purges every lot, buy record and sell
// record across all securities that reference it, leaving the graph with no
// orphaned account references.
func (l *Ledger) DeleteAccount(id string) error {
	i := l.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("delete account %q: %w", id, ErrAccountNotFound)
	}
	l.accounts = append(l.accounts[:i], l.accounts[i+1:]...)
	for _, sec := range l.securities {
		purgeAccount(sec, id)
	}
	return nil
}

// purgeAccount rewrites a security's collections without the given account.
func purgeAccount(sec *Security, accountID string) {
	lots := sec.OpenLots[:0]
	for _, lot := range sec.OpenLots {
		if lot.AccountID != accountID {
			lots = append(lots, lot)
		}
	}
	sec.OpenLots = lots

	buys := sec.BuyHistory[:0]
	for _, b := range sec.BuyHistory {
		if b.AccountID != accountID {
			buys = append(buys, b)
		}
	}
	sec.BuyHistory = buys

	sells := sec.SellHistory[:0]
	for _, s := range sec.SellHistory {
		if s.AccountID != accountID {
			sells = append(sells, s)
		}
	}
	sec.SellHistory = sells
}

func (l *Ledger) accountIndex(id string) int {
	for i, a := range l.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}
