package stash

import (
	"context"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// historyYears is the depth of the daily adjusted-close series kept per security.
const historyYears = 5

// historyConcurrency bounds the number of in-flight history requests during a refresh.
const historyConcurrency = 4

// Quote is a live market quote for one security.
type Quote struct {
	Price         Money   `json:"price"`
	PreviousClose Money   `json:"previousClose"`
	ChangePercent Percent `json:"changePercent"`
}

// Gateway is the external quote/history collaborator boundary. Both calls are
// fallible; the valuation layer treats any error or missing code as
// "unavailable for this security" rather than a fatal error.
type Gateway interface {
	// Quote fetches live quotes for a batch of security codes in one call.
	// Codes without a usable quote are absent from the result.
	Quote(ctx context.Context, codes []string) (map[string]Quote, error)
	// History fetches the daily adjusted-close series of one security from
	// the given date.
	History(ctx context.Context, code string, from Date) (*Series, error)
}

// CachedHistory is the persisted historical price series of one security.
// It is refreshed when absent or when Updated is not today.
type CachedHistory struct {
	Code    string  `json:"securityCode"`
	Updated Date    `json:"lastUpdatedDate"`
	Prices  *Series `json:"series"`
}

// SnapshotFilter selects the securities and account of a portfolio view.
// An empty AccountID matches all accounts. Labels requires, for every listed
// category, at least one matching label on the security.
type SnapshotFilter struct {
	AccountID string
	Labels    map[string][]string
}

// SnapshotRow is the per-security aggregate of today's holdings.
type SnapshotRow struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Units         Quantity `json:"units"`
	AvgBuyPrice   Money    `json:"avgBuyPrice"`
	Price         Money    `json:"price"`
	Cost          Money    `json:"cost"` // open lots: qty*unitPrice + brokerage + gst
	MarketValue   Money    `json:"marketValue"`
	DailyProfit   Money    `json:"dailyProfit"` // qty * (price - previousClose)
	Profit        Money    `json:"profit"`
	ProfitPercent *Percent `json:"profitPercent"` // nil when cost is zero
	FirstPurchase Date     `json:"firstPurchase"`
	LastPurchase  Date     `json:"lastPurchase"`
	Weight        Percent  `json:"weight"` // share of combined market value
}

// SnapshotSummary is the top-level text summary of a snapshot.
type SnapshotSummary struct {
	Value              Money    `json:"value"`
	DailyChange        Money    `json:"dailyChange"`
	DailyChangePercent *Percent `json:"dailyChangePercent"` // nil when undefined
	TotalChange        Money    `json:"totalChange"`        // versus cost basis
	TotalChangePercent *Percent `json:"totalChangePercent"` // nil when undefined
}

// PortfolioSnapshot is the complete dashboard view: the combined historical
// value series, trailing window slices of it, today's per-security table and
// the text summary.
type PortfolioSnapshot struct {
	Date     Date               `json:"date"`
	Combined *Series            `json:"combined"`
	Windows  map[string]*Series `json:"windows"` // "1m", "3m", "6m", "12m", "max"
	Rows     []SnapshotRow      `json:"rows"`
	Summary  SnapshotSummary    `json:"summary"`
}

// Valuator reads the ledger's event logs and prices to reconstruct portfolio
// value over time. It never mutates the ledger.
type Valuator struct {
	ledger  *Ledger
	gateway Gateway

	mu        sync.Mutex
	histories map[string]*CachedHistory
	dirty     bool
}

// NewValuator creates a valuator over a ledger, a gateway and the persisted
// history cache (may be nil or empty).
func NewValuator(ledger *Ledger, gateway Gateway, histories map[string]*CachedHistory) *Valuator {
	if histories == nil {
		histories = make(map[string]*CachedHistory)
	}
	return &Valuator{ledger: ledger, gateway: gateway, histories: histories}
}

// Histories returns the (possibly refreshed) history cache and whether it
// changed since the valuator was created, so the caller can persist it.
func (v *Valuator) Histories() (map[string]*CachedHistory, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.histories, v.dirty
}

// UnitsHeldAt reconstructs how many units an account held at a past instant
// using only the two immutable event logs, never the mutable open lots:
// units bought on or before the date minus units sold on or before it.
// An empty accountID matches all accounts.
func (v *Valuator) UnitsHeldAt(sec *Security, accountID string, on Date) Quantity {
	units := Q(0)
	for _, b := range sec.BuyHistory {
		if (accountID == "" || b.AccountID == accountID) && !b.Date.After(on) {
			units = units.Add(b.Quantity)
		}
	}
	for _, s := range sec.SellHistory {
		if (accountID == "" || s.AccountID == accountID) && !s.SellDate.After(on) {
			units = units.Sub(s.Quantity)
		}
	}
	return units
}

// RefreshHistories fetches the historical series of every given security
// whose cache entry is missing or stale (not updated today), or of all of
// them when force is set. Requests run concurrently under a cap; each
// failure is logged and skipped without aborting its siblings.
func (v *Valuator) RefreshHistories(ctx context.Context, codes []string, force bool) {
	today := Today()
	from := today.AddMonth(-12 * historyYears)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(historyConcurrency)
	for _, code := range codes {
		v.mu.Lock()
		entry, ok := v.histories[code]
		v.mu.Unlock()
		if !force && ok && entry.Updated == today {
			continue
		}
		g.Go(func() error {
			prices, err := v.gateway.History(ctx, code, from)
			if err != nil {
				log.Printf("history refresh for %s skipped: %v", code, err)
				return nil // fail-independent join
			}
			v.mu.Lock()
			v.histories[code] = &CachedHistory{Code: code, Updated: today, Prices: prices}
			v.dirty = true
			v.mu.Unlock()
			return nil
		})
	}
	// Goroutines log and swallow their own failures, so the join is always nil.
	_ = g.Wait()
}

// Snapshot computes the portfolio view for a filter. Securities whose quote
// or history is unavailable are skipped and logged; an empty candidate set,
// or a wholly failed quote batch, yields the zero-valued shape, not an error.
func (v *Valuator) Snapshot(ctx context.Context, filter SnapshotFilter) (*PortfolioSnapshot, error) {
	today := Today()
	snapshot := &PortfolioSnapshot{
		Date:     today,
		Combined: &Series{},
		Windows:  make(map[string]*Series),
		Rows:     []SnapshotRow{},
	}

	var selected []*Security
	for sec := range v.ledger.AllSecurities() {
		if sec.HasLabels(filter.Labels) {
			selected = append(selected, sec)
		}
	}
	if len(selected) == 0 {
		snapshot.Windows = windows(snapshot.Combined, today)
		return snapshot, nil
	}

	codes := make([]string, 0, len(selected))
	for _, sec := range selected {
		codes = append(codes, sec.Code)
	}

	// One batched quote call for all selected securities. A failed batch
	// leaves every quote unavailable, so each security hits the skip path
	// below instead of aborting the snapshot.
	quotes, err := v.gateway.Quote(ctx, codes)
	if err != nil {
		log.Printf("snapshot: quote batch failed: %v", err)
		quotes = map[string]Quote{}
	}
	v.RefreshHistories(ctx, codes, false)

	var cost, previousValue Money
	for _, sec := range selected {
		quote, ok := quotes[sec.Code]
		if !ok {
			log.Printf("snapshot: %s skipped: %v", sec.Code, ErrQuoteUnavailable)
			continue
		}
		v.mu.Lock()
		entry := v.histories[sec.Code]
		v.mu.Unlock()
		if entry == nil || entry.Prices == nil {
			log.Printf("snapshot: %s skipped: %v: no price history", sec.Code, ErrQuoteUnavailable)
			continue
		}

		// Historical contribution: units held at each close, valued at the
		// adjusted close. Today is handled separately with the live quote.
		for on, price := range entry.Prices.Values() {
			if on == today {
				continue
			}
			units := v.UnitsHeldAt(sec, filter.AccountID, on)
			if units.IsZero() {
				continue
			}
			snapshot.Combined.AppendAdd(on, price.Mul(units))
		}

		row, ok := v.row(sec, filter.AccountID, quote)
		if !ok {
			continue // nothing currently held
		}
		snapshot.Combined.AppendAdd(today, row.MarketValue)
		previousValue = previousValue.Add(quote.PreviousClose.Mul(row.Units))
		cost = cost.Add(row.Cost)
		snapshot.Rows = append(snapshot.Rows, row)
	}

	// Weights are computed only once every row is known.
	var value Money
	for _, row := range snapshot.Rows {
		value = value.Add(row.MarketValue)
	}
	for i := range snapshot.Rows {
		if w, ok := Ratio(snapshot.Rows[i].MarketValue, value); ok {
			snapshot.Rows[i].Weight = w
		}
	}
	sort.Slice(snapshot.Rows, func(i, j int) bool {
		return snapshot.Rows[i].Code < snapshot.Rows[j].Code
	})

	snapshot.Windows = windows(snapshot.Combined, today)
	snapshot.Summary = summarize(value, previousValue, cost)
	return snapshot, nil
}

// row aggregates one security's current holding for the account filter.
func (v *Valuator) row(sec *Security, accountID string, quote Quote) (SnapshotRow, bool) {
	var units Quantity
	var cost, buyValue Money
	var first, last Date
	for _, lot := range sec.OpenLots {
		if accountID != "" && lot.AccountID != accountID {
			continue
		}
		units = units.Add(lot.Quantity)
		buyValue = buyValue.Add(lot.UnitPrice.Mul(lot.Quantity))
		cost = cost.Add(lot.UnitPrice.Mul(lot.Quantity)).Add(lot.RemainingBrokerage).Add(lot.RemainingGST)
		if first.IsZero() || lot.Date.Before(first) {
			first = lot.Date
		}
		if last.IsZero() || lot.Date.After(last) {
			last = lot.Date
		}
	}
	if units.IsZero() {
		return SnapshotRow{}, false
	}

	marketValue := quote.Price.Mul(units)
	profit := marketValue.Sub(cost)
	row := SnapshotRow{
		Code:          sec.Code,
		Name:          sec.Name,
		Units:         units,
		AvgBuyPrice:   buyValue.Div(units),
		Price:         quote.Price,
		Cost:          cost,
		MarketValue:   marketValue,
		DailyProfit:   quote.Price.Sub(quote.PreviousClose).Mul(units),
		Profit:        profit,
		FirstPurchase: first,
		LastPurchase:  last,
	}
	if p, ok := Ratio(profit, cost); ok {
		row.ProfitPercent = &p
	}
	return row, true
}

// windows derives the trailing views of the combined series: 1/3/6/12 months
// at daily granularity and the full range sampled weekly.
func windows(combined *Series, today Date) map[string]*Series {
	return map[string]*Series{
		"1m":  combined.Since(today.AddMonth(-1)),
		"3m":  combined.Since(today.AddMonth(-3)),
		"6m":  combined.Since(today.AddMonth(-6)),
		"12m": combined.Since(today.AddMonth(-12)),
		"max": combined.Weekly(),
	}
}

// summarize builds the top-level text summary figures. Percentages are nil
// when their denominator is zero.
func summarize(value, previousValue, cost Money) SnapshotSummary {
	s := SnapshotSummary{
		Value:       value,
		DailyChange: value.Sub(previousValue),
		TotalChange: value.Sub(cost),
	}
	if p, ok := Ratio(s.DailyChange, previousValue); ok {
		s.DailyChangePercent = &p
	}
	if p, ok := Ratio(s.TotalChange, cost); ok {
		s.TotalChangePercent = &p
	}
	return s
}
