package stash

import "strings"

// Security is the full record kept for one listed security: its identity and
// classification, plus the three trade collections the lot engine maintains.
//
// OpenLots is the set of unconsumed (or partially consumed) purchases, one per
// buy, each scoped to one account. BuyHistory and SellHistory are append-only
// event logs: entries are never edited after creation, which is what allows
// the valuation layer to reconstruct past holdings after OpenLots has been
// mutated by later sells.
type Security struct {
	Code   string              `json:"code"` // exchange code, unique, uppercase
	Name   string              `json:"name"`
	Notes  string              `json:"notes,omitempty"`
	Labels map[string][]string `json:"labels,omitempty"` // category -> labels

	OpenLots    []Lot        `json:"openLots"`
	BuyHistory  []BuyRecord  `json:"buyHistory"`
	SellHistory []SellRecord `json:"sellHistory"`
}

// NewSecurity creates a security with a normalized (uppercase) code.
func NewSecurity(code, name string) *Security {
	return &Security{
		Code:        strings.ToUpper(strings.TrimSpace(code)),
		Name:        name,
		Labels:      make(map[string][]string),
		OpenLots:    []Lot{},
		BuyHistory:  []BuyRecord{},
		SellHistory: []SellRecord{},
	}
}

// HasLabels reports whether the security carries, for every category in want,
// at least one of the requested labels (exact, case-sensitive match).
func (s *Security) HasLabels(want map[string][]string) bool {
	for category, labels := range want {
		if len(labels) == 0 {
			continue
		}
		found := false
		for _, have := range s.Labels[category] {
			for _, label := range labels {
				if have == label {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Lot is a single unconsumed (or partially consumed) purchase.
//
// Quantity decreases as the lot is consumed by disposals; the lot is removed
// from OpenLots the instant it reaches exactly zero. RemainingBrokerage and
// RemainingGST shrink proportionally with each partial consumption so that
// the fees allocated across all slices of the lot sum to the originals.
type Lot struct {
	AccountID          string   `json:"accountId"`
	Date               Date     `json:"date"` // purchase date
	Quantity           Quantity `json:"quantity"`
	UnitPrice          Money    `json:"unitPrice"` // fixed at purchase
	RemainingBrokerage Money    `json:"brokerage"`
	RemainingGST       Money    `json:"gst"`
}

// BuyRecord is the immutable log entry of one purchase.
type BuyRecord struct {
	AccountID string   `json:"accountId"`
	Date      Date     `json:"date"`
	Quantity  Quantity `json:"quantity"`
	UnitPrice Money    `json:"unitPrice"`
	Brokerage Money    `json:"brokerage"`
	GST       Money    `json:"gst"`
	Total     Money    `json:"total"` // quantity*unitPrice + brokerage + gst
}

// SellRecord is the immutable log entry of one disposal slice: the part of a
// sale matched against a single lot. A sale spanning several lots produces
// several records, one per (buyDate, sellDate) pair.
type SellRecord struct {
	AccountID string   `json:"accountId"`
	BuyDate   Date     `json:"buyDate"`
	SellDate  Date     `json:"sellDate"`
	Quantity  Quantity `json:"quantity"`
	BuyPrice  Money    `json:"buyPrice"`
	SellPrice Money    `json:"sellPrice"`

	// Fees allocated to this slice: the buy side proportionally to the
	// fraction of the lot consumed, the sell side proportionally to the
	// fraction of the disposal this slice represents.
	AppliedBuyBrokerage  Money `json:"appliedBuyBrokerage"`
	AppliedBuyGST        Money `json:"appliedBuyGst"`
	AppliedSellBrokerage Money `json:"appliedSellBrokerage"`
	AppliedSellGST       Money `json:"appliedSellGst"`

	Total       Money `json:"total"` // proceeds net of sell-side fees
	Profit      Money `json:"profitOrLoss"`
	CapitalGain Money `json:"capitalGainOrLoss"` // post CGT-discount
	CGTDiscount bool  `json:"cgtDiscount"`       // true when the 50% discount applied
}
