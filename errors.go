package stash

import "errors"

// Trade validation errors. A call that returns one of these has made no
// change at all: no lot mutated, no history entry written.
var (
	// ErrSecurityNotFound is returned when a code resolves to no known security.
	ErrSecurityNotFound = errors.New("security not found")
	// ErrMissingAccount is returned when a trade names no account.
	ErrMissingAccount = errors.New("missing account")
	// ErrNoHoldings is returned when a disposal finds no candidate lot for
	// the account on the sell date.
	ErrNoHoldings = errors.New("no holdings to sell")
	// ErrInsufficientQuantity is returned when the candidate lots hold fewer
	// units than the disposal requests.
	ErrInsufficientQuantity = errors.New("insufficient quantity held")
)

// Registry and account management errors.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateName     = errors.New("account name already used")
	ErrDuplicateSecurity = errors.New("security already registered")
)

// ErrQuoteUnavailable marks a security whose market data could not be
// fetched. Valuation skips such securities instead of failing the view.
var ErrQuoteUnavailable = errors.New("quote unavailable")
