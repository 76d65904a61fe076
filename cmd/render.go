package cmd

import (
	"fmt"
	"strings"

	stash "github.com/SurferSamuel/Stash-sub000"
)

// optionalPercent renders a possibly undefined percentage.
func optionalPercent(p *stash.Percent) string {
	if p == nil {
		return "-"
	}
	return p.SignedString()
}

// holdingsMarkdown renders the per-security table and summary of a snapshot.
func holdingsMarkdown(s *stash.PortfolioSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings on %s\n\n", s.Date)

	if len(s.Rows) == 0 {
		b.WriteString("No current holdings.\n")
		return b.String()
	}

	b.WriteString("| Code | Units | Avg Buy | Price | Value | Day P/L | P/L | P/L % | Weight |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, row := range s.Rows {
		fmt.Fprintf(&b, "| %s | %v | %v | %v | %v | %v | %v | %s | %v |\n",
			row.Code, row.Units, row.AvgBuyPrice, row.Price, row.MarketValue,
			row.DailyProfit.SignedString(), row.Profit.SignedString(),
			optionalPercent(row.ProfitPercent), row.Weight)
	}

	fmt.Fprintf(&b, "\nTotal value %v, today %v (%s), overall %v (%s)\n",
		s.Summary.Value,
		s.Summary.DailyChange.SignedString(), optionalPercent(s.Summary.DailyChangePercent),
		s.Summary.TotalChange.SignedString(), optionalPercent(s.Summary.TotalChangePercent))
	return b.String()
}

// seriesMarkdown renders one window of the combined value series.
func seriesMarkdown(window string, series *stash.Series) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio value (%s)\n\n", window)
	if series.Len() == 0 {
		b.WriteString("No data points.\n")
		return b.String()
	}
	b.WriteString("| Date | Value |\n|---|---:|\n")
	for on, value := range series.Values() {
		fmt.Fprintf(&b, "| %s | %v |\n", on, value)
	}
	return b.String()
}
