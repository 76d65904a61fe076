package stash

import (
	"errors"
	"testing"
)

var gst10 = Pct(10)

// newTestLedger returns a ledger with one security and one account.
func newTestLedger(t *testing.T) (*Ledger, Account) {
	t.Helper()
	l := NewLedger()
	if err := l.AddSecurity(NewSecurity("BHP", "BHP Group")); err != nil {
		t.Fatalf("AddSecurity: %v", err)
	}
	account, err := l.CreateAccount("Main", MustParseDate("2020-01-01"))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return l, account
}

func TestRecordBuyCreatesLotAndHistory(t *testing.T) {
	l, account := newTestLedger(t)

	err := l.RecordBuy("BHP", account, MustParseDate("2023-01-15"), Q(100), M(10), M(20), gst10)
	if err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}

	sec := l.Security("BHP")
	if len(sec.OpenLots) != 1 || len(sec.BuyHistory) != 1 {
		t.Fatalf("got %d lots and %d buy records, want 1 and 1", len(sec.OpenLots), len(sec.BuyHistory))
	}
	lot := sec.OpenLots[0]
	if !lot.RemainingGST.Equal(M(2)) {
		t.Errorf("lot gst = %v, want 10%% of $20 brokerage", lot.RemainingGST)
	}
	record := sec.BuyHistory[0]
	// 100*10 + 20 + 2
	if !record.Total.Equal(M(1022)) {
		t.Errorf("buy total = %v, want $1,022.00", record.Total)
	}
}

func TestRecordBuyValidation(t *testing.T) {
	l, account := newTestLedger(t)

	err := l.RecordBuy("XYZ", account, Today(), Q(1), M(1), M(0), gst10)
	if !errors.Is(err, ErrSecurityNotFound) {
		t.Errorf("unknown security: got %v, want ErrSecurityNotFound", err)
	}
	err = l.RecordBuy("BHP", Account{}, Today(), Q(1), M(1), M(0), gst10)
	if !errors.Is(err, ErrMissingAccount) {
		t.Errorf("empty account: got %v, want ErrMissingAccount", err)
	}
	if len(l.Security("BHP").OpenLots) != 0 {
		t.Error("failed buys must not create lots")
	}
}

func TestRecordSellSingleLot(t *testing.T) {
	l, account := newTestLedger(t)

	// 100 units @ $10 with $20 brokerage, 10% GST.
	if err := l.RecordBuy("BHP", account, MustParseDate("2023-01-15"), Q(100), M(10), M(20), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	// 60 units @ $12 with $12 brokerage, about 17 months later.
	if err := l.RecordSell("BHP", account, MustParseDate("2024-06-01"), Q(60), M(12), M(12), gst10); err != nil {
		t.Fatalf("RecordSell: %v", err)
	}

	sec := l.Security("BHP")
	if len(sec.SellHistory) != 1 {
		t.Fatalf("got %d sell records, want 1", len(sec.SellHistory))
	}
	r := sec.SellHistory[0]

	if !r.AppliedBuyBrokerage.Equal(M(12)) || !r.AppliedBuyGST.Equal(M(1.2)) {
		t.Errorf("buy fees = %v + %v, want 60%% of $20 and $2", r.AppliedBuyBrokerage, r.AppliedBuyGST)
	}
	if !r.AppliedSellBrokerage.Equal(M(12)) || !r.AppliedSellGST.Equal(M(1.2)) {
		t.Errorf("sell fees = %v + %v, want the full $12 and $1.20", r.AppliedSellBrokerage, r.AppliedSellGST)
	}
	// revenue 720 - 13.2, cost 600 + 13.2
	if !r.Profit.Equal(M(93.6)) {
		t.Errorf("profit = %v, want $93.60", r.Profit)
	}
	if !r.CGTDiscount || !r.CapitalGain.Equal(M(46.8)) {
		t.Errorf("capital gain = %v (discount %v), want half the profit", r.CapitalGain, r.CGTDiscount)
	}

	// The lot keeps 40 units and 40% of its fees.
	if len(sec.OpenLots) != 1 {
		t.Fatalf("got %d open lots, want 1", len(sec.OpenLots))
	}
	lot := sec.OpenLots[0]
	if !lot.Quantity.Equal(Q(40)) || !lot.RemainingBrokerage.Equal(M(8)) || !lot.RemainingGST.Equal(M(0.8)) {
		t.Errorf("remaining lot = %v units, %v + %v fees, want 40, $8.00, $0.80",
			lot.Quantity, lot.RemainingBrokerage, lot.RemainingGST)
	}
}

func TestRecordSellSpansLots(t *testing.T) {
	l, account := newTestLedger(t)

	if err := l.RecordBuy("BHP", account, MustParseDate("2023-02-01"), Q(60), M(10), M(10), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	if err := l.RecordBuy("BHP", account, MustParseDate("2023-05-01"), Q(80), M(11), M(10), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	if err := l.RecordSell("BHP", account, MustParseDate("2023-08-01"), Q(100), M(12), M(20), gst10); err != nil {
		t.Fatalf("RecordSell: %v", err)
	}

	sec := l.Security("BHP")
	if len(sec.SellHistory) != 2 {
		t.Fatalf("got %d sell records, want one per consumed lot", len(sec.SellHistory))
	}
	first, second := sec.SellHistory[0], sec.SellHistory[1]
	if !first.Quantity.Equal(Q(60)) || !second.Quantity.Equal(Q(40)) {
		t.Errorf("slices = %v + %v, want 60 then 40", first.Quantity, second.Quantity)
	}
	if first.BuyDate != MustParseDate("2023-02-01") {
		t.Errorf("first slice consumed lot dated %s, want the oldest", first.BuyDate)
	}

	// Sell fees spread 60/100 and 40/100.
	if !first.AppliedSellBrokerage.Equal(M(12)) || !second.AppliedSellBrokerage.Equal(M(8)) {
		t.Errorf("sell brokerage split %v/%v, want $12.00/$8.00",
			first.AppliedSellBrokerage, second.AppliedSellBrokerage)
	}

	if len(sec.OpenLots) != 1 || !sec.OpenLots[0].Quantity.Equal(Q(40)) {
		t.Fatalf("open lots = %+v, want a single 40-unit remainder", sec.OpenLots)
	}
}

func TestRecordSellFIFOIgnoresInsertionOrder(t *testing.T) {
	l, account := newTestLedger(t)

	// Later purchase recorded first.
	if err := l.RecordBuy("BHP", account, MustParseDate("2023-06-01"), Q(50), M(20), M(0), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	if err := l.RecordBuy("BHP", account, MustParseDate("2023-01-01"), Q(50), M(10), M(0), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	if err := l.RecordSell("BHP", account, MustParseDate("2023-12-01"), Q(50), M(30), M(0), gst10); err != nil {
		t.Fatalf("RecordSell: %v", err)
	}

	sec := l.Security("BHP")
	if r := sec.SellHistory[0]; r.BuyDate != MustParseDate("2023-01-01") || !r.BuyPrice.Equal(M(10)) {
		t.Errorf("consumed lot dated %s @ %v, want the January lot first", r.BuyDate, r.BuyPrice)
	}
	if lot := sec.OpenLots[0]; lot.Date != MustParseDate("2023-06-01") {
		t.Errorf("surviving lot dated %s, want the June lot", lot.Date)
	}
}

func TestRecordSellExcludesFutureLots(t *testing.T) {
	l, account := newTestLedger(t)

	if err := l.RecordBuy("BHP", account, MustParseDate("2024-03-01"), Q(100), M(10), M(0), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}

	// Backdated sale before the only purchase.
	err := l.RecordSell("BHP", account, MustParseDate("2024-02-01"), Q(10), M(11), M(0), gst10)
	if !errors.Is(err, ErrNoHoldings) {
		t.Errorf("backdated sell: got %v, want ErrNoHoldings", err)
	}

	// A second, earlier lot makes the backdated sale legal but must not
	// touch the future lot.
	if err := l.RecordBuy("BHP", account, MustParseDate("2024-01-01"), Q(10), M(9), M(0), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	err = l.RecordSell("BHP", account, MustParseDate("2024-02-01"), Q(20), M(11), M(0), gst10)
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("oversized backdated sell: got %v, want ErrInsufficientQuantity", err)
	}
	if err := l.RecordSell("BHP", account, MustParseDate("2024-02-01"), Q(10), M(11), M(0), gst10); err != nil {
		t.Fatalf("RecordSell: %v", err)
	}

	sec := l.Security("BHP")
	if len(sec.OpenLots) != 1 || sec.OpenLots[0].Date != MustParseDate("2024-03-01") {
		t.Errorf("open lots = %+v, want only the future-dated lot left", sec.OpenLots)
	}
}

func TestRecordSellFailuresLeaveNoTrace(t *testing.T) {
	l, account := newTestLedger(t)
	other, err := l.CreateAccount("Other", MustParseDate("2020-01-01"))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if err := l.RecordBuy("BHP", account, MustParseDate("2023-01-01"), Q(100), M(10), M(20), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	sec := l.Security("BHP")
	before := sec.OpenLots[0]

	cases := []struct {
		name string
		err  error
		call func() error
	}{
		{"unknown security", ErrSecurityNotFound, func() error {
			return l.RecordSell("XYZ", account, Today(), Q(1), M(1), M(0), gst10)
		}},
		{"missing account", ErrMissingAccount, func() error {
			return l.RecordSell("BHP", Account{}, Today(), Q(1), M(1), M(0), gst10)
		}},
		{"no holdings for account", ErrNoHoldings, func() error {
			return l.RecordSell("BHP", other, Today(), Q(1), M(1), M(0), gst10)
		}},
		{"insufficient quantity", ErrInsufficientQuantity, func() error {
			return l.RecordSell("BHP", account, Today(), Q(101), M(1), M(0), gst10)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, tc.err) {
				t.Fatalf("got %v, want %v", err, tc.err)
			}
			if len(sec.SellHistory) != 0 {
				t.Error("failed sell wrote a sell record")
			}
			if len(sec.OpenLots) != 1 || sec.OpenLots[0] != before {
				t.Error("failed sell mutated the open lots")
			}
		})
	}
}

func TestCGTDiscountBoundary(t *testing.T) {
	cases := []struct {
		name       string
		buy, sell  string
		sellPrice  float64
		discounted bool
	}{
		{"exactly one year", "2023-03-10", "2024-03-10", 20, false},
		{"one day over", "2023-03-10", "2024-03-11", 20, true},
		{"well over a year", "2022-01-01", "2024-06-01", 20, true},
		{"loss held two years", "2022-01-01", "2024-06-01", 5, false},
		{"gain within a year", "2023-03-10", "2023-09-10", 20, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, account := newTestLedger(t)
			if err := l.RecordBuy("BHP", account, MustParseDate(tc.buy), Q(10), M(10), M(0), gst10); err != nil {
				t.Fatalf("RecordBuy: %v", err)
			}
			if err := l.RecordSell("BHP", account, MustParseDate(tc.sell), Q(10), M(tc.sellPrice), M(0), gst10); err != nil {
				t.Fatalf("RecordSell: %v", err)
			}
			r := l.Security("BHP").SellHistory[0]
			if r.CGTDiscount != tc.discounted {
				t.Errorf("discount = %v, want %v", r.CGTDiscount, tc.discounted)
			}
			want := r.Profit
			if tc.discounted {
				want = r.Profit.Div(Q(2))
			}
			if !r.CapitalGain.Equal(want) {
				t.Errorf("capital gain = %v, want %v", r.CapitalGain, want)
			}
		})
	}
}

// Unit and fee conservation: after any sequence of partial sells, quantities
// and fees are fully accounted for between open lots and sell records.
func TestSellConservation(t *testing.T) {
	l, account := newTestLedger(t)

	if err := l.RecordBuy("BHP", account, MustParseDate("2023-01-01"), Q(70), M(10), M(21), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	if err := l.RecordBuy("BHP", account, MustParseDate("2023-02-01"), Q(30), M(12), M(9), gst10); err != nil {
		t.Fatalf("RecordBuy: %v", err)
	}
	for _, qty := range []float64{15, 40, 25} {
		if err := l.RecordSell("BHP", account, MustParseDate("2024-05-01"), Q(qty), M(15), M(10), gst10); err != nil {
			t.Fatalf("RecordSell %v: %v", qty, err)
		}
	}

	sec := l.Security("BHP")
	units, fees := Q(0), M(0)
	for _, lot := range sec.OpenLots {
		units = units.Add(lot.Quantity)
		fees = fees.Add(lot.RemainingBrokerage).Add(lot.RemainingGST)
	}
	for _, r := range sec.SellHistory {
		units = units.Add(r.Quantity)
		fees = fees.Add(r.AppliedBuyBrokerage).Add(r.AppliedBuyGST)
	}
	if !units.Equal(Q(100)) {
		t.Errorf("units sold plus units held = %v, want the 100 bought", units)
	}
	// 21 + 2.1 + 9 + 0.9 of buy-side fees.
	if !fees.Equal(M(33)) {
		t.Errorf("allocated plus remaining buy fees = %v, want $33.00", fees)
	}
}

func TestAvailableUnits(t *testing.T) {
	l, account := newTestLedger(t)
	other, _ := l.CreateAccount("Other", MustParseDate("2020-01-01"))

	if _, err := l.AvailableUnits("XYZ", ""); !errors.Is(err, ErrSecurityNotFound) {
		t.Errorf("unknown security: got %v, want ErrSecurityNotFound", err)
	}

	l.RecordBuy("BHP", account, MustParseDate("2023-01-01"), Q(10), M(1), M(0), gst10)
	l.RecordBuy("BHP", other, MustParseDate("2023-01-01"), Q(5), M(1), M(0), gst10)

	if units, _ := l.AvailableUnits("BHP", account.ID); !units.Equal(Q(10)) {
		t.Errorf("account units = %v, want 10", units)
	}
	if units, _ := l.AvailableUnits("BHP", ""); !units.Equal(Q(15)) {
		t.Errorf("all-account units = %v, want 15", units)
	}
}

func TestAddSecurityRejectsDuplicates(t *testing.T) {
	l, _ := newTestLedger(t)
	if err := l.AddSecurity(NewSecurity("bhp", "again")); !errors.Is(err, ErrDuplicateSecurity) {
		t.Errorf("got %v, want ErrDuplicateSecurity", err)
	}
}
