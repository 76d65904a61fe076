// Package yahoo fetches live quotes and historical prices from the public
// Yahoo Finance endpoints. ASX codes are suffixed with the exchange marker
// before hitting the wire.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	gocache "github.com/patrickmn/go-cache"

	stash "github.com/SurferSamuel/Stash-sub000"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	exchangeSuffix = ".AX"

	// Quote batches are reused briefly so a sequence of views does not
	// hammer the endpoint.
	quoteTTL = 30 * time.Second
)

// Client talks to the Yahoo Finance quote and chart endpoints.
// It implements stash.Gateway.
type Client struct {
	base    string
	live    *http.Client
	history *http.Client
	quotes  *gocache.Cache
}

// NewClient returns a production client: chart responses are cached on disk
// until midnight, quote batches in memory for a few seconds.
func NewClient() *Client {
	return NewClientAt(defaultBaseURL)
}

// NewClientAt targets an alternate base URL. Used by tests.
func NewClientAt(base string) *Client {
	return &Client{
		base:    strings.TrimSuffix(base, "/"),
		live:    &http.Client{Timeout: 20 * time.Second},
		history: dailyClient(),
		quotes:  gocache.New(quoteTTL, 2*quoteTTL),
	}
}

func symbol(code string) string { return strings.ToUpper(code) + exchangeSuffix }

// Quote fetches live quotes for a batch of security codes in one request.
// Codes Yahoo does not know are absent from the result rather than an error.
func (c *Client) Quote(ctx context.Context, codes []string) (map[string]stash.Quote, error) {
	symbols := make([]string, len(codes))
	for i, code := range codes {
		symbols[i] = symbol(code)
	}
	batch := strings.Join(symbols, ",")

	if cached, ok := c.quotes.Get(batch); ok {
		return cached.(map[string]stash.Quote), nil
	}

	addr := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.base, url.QueryEscape(batch))
	var jobj any
	if err := jwget(ctx, c.live, addr, &jobj); err != nil {
		return nil, fmt.Errorf("quote batch failed: %v: %w", err, stash.ErrQuoteUnavailable)
	}

	jval, err := jsonpath.Get("$.quoteResponse.result", jobj)
	if err != nil {
		return nil, fmt.Errorf("quote batch malformed: %v: %w", err, stash.ErrQuoteUnavailable)
	}
	jlist, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("quote batch malformed: result is not a list: %w", stash.ErrQuoteUnavailable)
	}

	quotes := make(map[string]stash.Quote, len(jlist))
	for _, item := range jlist {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := fields["symbol"].(string)
		code := strings.TrimSuffix(name, exchangeSuffix)
		price, ok := fields["regularMarketPrice"].(float64)
		if !ok {
			continue // no tradable price, treat as unavailable
		}
		previous, _ := fields["regularMarketPreviousClose"].(float64)
		change, _ := fields["regularMarketChangePercent"].(float64)
		quotes[code] = stash.Quote{
			Price:         stash.M(price),
			PreviousClose: stash.M(previous),
			ChangePercent: stash.Pct(change),
		}
	}

	c.quotes.Set(batch, quotes, gocache.DefaultExpiration)
	return quotes, nil
}

// History fetches the daily adjusted-close series of one security from the
// given date until today.
func (c *Client) History(ctx context.Context, code string, from stash.Date) (*stash.Series, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		c.base, url.PathEscape(symbol(code)), from.Unix(), time.Now().Unix())

	var jobj any
	if err := jwget(ctx, c.history, addr, &jobj); err != nil {
		return nil, fmt.Errorf("%s chart failed: %v: %w", code, err, stash.ErrQuoteUnavailable)
	}

	timestamps, err := floats(jobj, "$.chart.result[0].timestamp")
	if err != nil {
		return nil, fmt.Errorf("%s chart malformed: %v: %w", code, err, stash.ErrQuoteUnavailable)
	}
	closes, err := floats(jobj, "$.chart.result[0].indicators.adjclose[0].adjclose")
	if err != nil {
		return nil, fmt.Errorf("%s chart malformed: %v: %w", code, err, stash.ErrQuoteUnavailable)
	}
	if len(timestamps) != len(closes) {
		return nil, fmt.Errorf("%s chart malformed: %d timestamps for %d closes: %w",
			code, len(timestamps), len(closes), stash.ErrQuoteUnavailable)
	}

	series := &stash.Series{}
	for i, ts := range timestamps {
		if closes[i] == nil || ts == nil {
			continue // halted days come back as nulls
		}
		on := stash.NewDate(time.Unix(int64(*ts), 0).UTC().Date())
		series.Append(on, stash.M(*closes[i]))
	}
	return series, nil
}

// floats extracts a JSON array of numbers, keeping nulls as nils.
func floats(jobj any, path string) ([]*float64, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	jlist, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("%q: not a list", path)
	}
	values := make([]*float64, len(jlist))
	for i, item := range jlist {
		if f, ok := item.(float64); ok {
			values[i] = &f
		}
	}
	return values, nil
}
