package stash

import "github.com/shopspring/decimal"

// Percent is a percentage value, e.g. 10 for 10%.
type Percent struct {
	value decimal.Decimal
}

func Pct[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

// Ratio returns a percentage from a part and a whole, e.g. Ratio(1, 4) is 25%.
// The second return is false when the denominator is zero and the percentage
// is undefined.
func Ratio(part, whole Money) (Percent, bool) {
	if whole.IsZero() {
		return Percent{}, false
	}
	return Percent{value: part.value.Div(whole.value).Mul(newDecimal(100))}, true
}

// Of applies the percentage to an amount, e.g. Pct(10).Of(brokerage) is the GST.
func (p Percent) Of(m Money) Money {
	return Money{value: m.value.Mul(p.value).Div(newDecimal(100))}
}

func (p Percent) Equal(q Percent) bool {
	// compared with display precision
	const places = 4
	return p.value.Round(places).Equal(q.value.Round(places))
}

func (p Percent) IsZero() bool { return p.value.IsZero() }

func (p Percent) String() string {
	return p.value.StringFixed(2) + "%"
}

func (p Percent) SignedString() string {
	if p.value.IsZero() {
		return "-"
	}
	if p.value.IsPositive() {
		return "+" + p.String()
	}
	return p.String()
}

// MarshalJSON persists the percentage as its decimal string representation.
func (p Percent) MarshalJSON() ([]byte, error) {
	return p.value.MarshalJSON()
}

func (p *Percent) UnmarshalJSON(decimalBytes []byte) error {
	return p.value.UnmarshalJSON(decimalBytes)
}
