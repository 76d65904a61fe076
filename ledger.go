package stash

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
)

// Ledger owns the in-memory graph of securities and accounts, and is the
// only writer of OpenLots, BuyHistory and SellHistory. Durability belongs to
// the persistence collaborator; the ledger owns correctness of in-memory
// transitions before a save call.
type Ledger struct {
	securities map[string]*Security // index by code
	accounts   []Account
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{securities: make(map[string]*Security)}
}

// NewLedgerOf builds a ledger from persisted collections.
func NewLedgerOf(securities []*Security, accounts []Account) *Ledger {
	l := NewLedger()
	for _, sec := range securities {
		l.securities[sec.Code] = sec
	}
	l.accounts = append(l.accounts, accounts...)
	return l
}

// AddSecurity registers a new security in the ledger.
func (l *Ledger) AddSecurity(sec *Security) error {
	if sec.Code == "" {
		return fmt.Errorf("security code is empty")
	}
	if _, ok := l.securities[sec.Code]; ok {
		return fmt.Errorf("add security %q: %w", sec.Code, ErrDuplicateSecurity)
	}
	l.securities[sec.Code] = sec
	return nil
}

// Security returns the security with this code, or nil if unknown.
func (l *Ledger) Security(code string) *Security {
	return l.securities[code]
}

// AllSecurities iterates over the securities of the ledger in code order.
func (l *Ledger) AllSecurities() iter.Seq[*Security] {
	return func(yield func(*Security) bool) {
		codes := slices.Collect(maps.Keys(l.securities))
		slices.Sort(codes)
		for _, code := range codes {
			if !yield(l.securities[code]) {
				return
			}
		}
	}
}

// RecordBuy appends a purchase: one new open lot and one buy-history entry.
//
// The caller validates numeric well-formedness beforehand; zero brokerage is
// tolerated. gstRate is the percentage applied to the brokerage (e.g. 10).
func (l *Ledger) RecordBuy(code string, account Account, on Date, quantity Quantity, unitPrice, brokerage Money, gstRate Percent) error {
	sec := l.securities[code]
	if sec == nil {
		return fmt.Errorf("buy %s: %w", code, ErrSecurityNotFound)
	}
	if account.ID == "" {
		return fmt.Errorf("buy %s: %w", code, ErrMissingAccount)
	}

	gst := gstRate.Of(brokerage)
	total := unitPrice.Mul(quantity).Add(brokerage).Add(gst)

	sec.OpenLots = append(sec.OpenLots, Lot{
		AccountID:          account.ID,
		Date:               on,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
		RemainingBrokerage: brokerage,
		RemainingGST:       gst,
	})
	sec.BuyHistory = append(sec.BuyHistory, BuyRecord{
		AccountID: account.ID,
		Date:      on,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Brokerage: brokerage,
		GST:       gst,
		Total:     total,
	})
	return nil
}

// RecordSell disposes of a quantity using FIFO matching against the account's
// open lots, appending one sell-history entry per consumed slice.
//
// Candidate lots are those of the account purchased on or before the sell
// date (future-dated lots relative to the sale are excluded), consumed oldest
// first. Buy-side fees are allocated proportionally to the fraction of each
// lot consumed; sell-side fees proportionally to the fraction of the disposal
// each slice represents. The 50% CGT discount applies to a slice iff its
// profit is positive and the lot was held strictly longer than one year.
//
// All validation happens before any mutation: a failed call leaves OpenLots
// and SellHistory untouched.
func (l *Ledger) RecordSell(code string, account Account, on Date, quantity Quantity, unitPrice, brokerage Money, gstRate Percent) error {
	sec := l.securities[code]
	if sec == nil {
		return fmt.Errorf("sell %s: %w", code, ErrSecurityNotFound)
	}
	if account.ID == "" {
		return fmt.Errorf("sell %s: %w", code, ErrMissingAccount)
	}

	// Candidate lots, stable FIFO order by purchase date. The order is
	// established by sorting here, at disposal time.
	candidates := make([]int, 0, len(sec.OpenLots))
	for i, lot := range sec.OpenLots {
		if lot.AccountID == account.ID && !lot.Date.After(on) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf("sell %s on %s: %w", code, on, ErrNoHoldings)
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return sec.OpenLots[candidates[a]].Date.Before(sec.OpenLots[candidates[b]].Date)
	})

	available := Q(0)
	for _, i := range candidates {
		available = available.Add(sec.OpenLots[i].Quantity)
	}
	if available.LessThan(quantity) {
		return fmt.Errorf("sell %s of %s, only %s held: %w", quantity, code, available, ErrInsufficientQuantity)
	}

	// Sell-side GST is computed once for the whole disposal, not per lot.
	totalSellGST := gstRate.Of(brokerage)

	remaining := quantity
	consumed := make(map[int]bool) // lot indexes fully consumed
	for _, i := range candidates {
		if remaining.IsZero() {
			break
		}
		lot := &sec.OpenLots[i]

		sellQty := lot.Quantity.Min(remaining)
		// buyRatio is the fraction of this lot consumed, sellRatio the
		// fraction of the whole disposal this slice represents.
		buyRatio := sellQty.Div(lot.Quantity)
		sellRatio := sellQty.Div(quantity)

		appliedBuyBrokerage := lot.RemainingBrokerage.Mul(buyRatio)
		appliedBuyGST := lot.RemainingGST.Mul(buyRatio)
		appliedSellBrokerage := brokerage.Mul(sellRatio)
		appliedSellGST := totalSellGST.Mul(sellRatio)

		totalCost := lot.UnitPrice.Mul(sellQty).Add(appliedBuyBrokerage).Add(appliedBuyGST)
		totalRevenue := unitPrice.Mul(sellQty).Sub(appliedSellBrokerage).Sub(appliedSellGST)
		profit := totalRevenue.Sub(totalCost)

		capitalGain := profit
		discounted := false
		if profit.IsPositive() && lot.Date.YearsUntil(on) > 1.0 {
			capitalGain = profit.Div(Q(2))
			discounted = true
		}

		sec.SellHistory = append(sec.SellHistory, SellRecord{
			AccountID:            account.ID,
			BuyDate:              lot.Date,
			SellDate:             on,
			Quantity:             sellQty,
			BuyPrice:             lot.UnitPrice,
			SellPrice:            unitPrice,
			AppliedBuyBrokerage:  appliedBuyBrokerage,
			AppliedBuyGST:        appliedBuyGST,
			AppliedSellBrokerage: appliedSellBrokerage,
			AppliedSellGST:       appliedSellGST,
			Total:                totalRevenue,
			Profit:               profit,
			CapitalGain:          capitalGain,
			CGTDiscount:          discounted,
		})

		if sellQty.Equal(lot.Quantity) {
			consumed[i] = true
		} else {
			keepRatio := Q(1).Sub(buyRatio)
			lot.Quantity = lot.Quantity.Sub(sellQty)
			lot.RemainingBrokerage = lot.RemainingBrokerage.Mul(keepRatio)
			lot.RemainingGST = lot.RemainingGST.Mul(keepRatio)
		}
		remaining = remaining.Sub(sellQty)
	}

	if len(consumed) > 0 {
		lots := sec.OpenLots[:0]
		for i, lot := range sec.OpenLots {
			if !consumed[i] {
				lots = append(lots, lot)
			}
		}
		sec.OpenLots = lots
	}
	return nil
}

// AvailableUnits returns the sum of open-lot quantities for the account,
// or for all accounts when accountID is empty.
func (l *Ledger) AvailableUnits(code, accountID string) (Quantity, error) {
	sec := l.securities[code]
	if sec == nil {
		return Q(0), fmt.Errorf("available units of %s: %w", code, ErrSecurityNotFound)
	}
	total := Q(0)
	for _, lot := range sec.OpenLots {
		if accountID == "" || lot.AccountID == accountID {
			total = total.Add(lot.Quantity)
		}
	}
	return total, nil
}
