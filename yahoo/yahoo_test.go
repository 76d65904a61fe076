package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	stash "github.com/SurferSamuel/Stash-sub000"
)

const quoteResponse = `{
  "quoteResponse": {
    "result": [
      {"symbol": "BHP.AX", "regularMarketPrice": 45.17, "regularMarketPreviousClose": 44.9, "regularMarketChangePercent": 0.6},
      {"symbol": "CBA.AX", "regularMarketPreviousClose": 110.0}
    ],
    "error": null
  }
}`

func chartResponse(ts1, ts2 int64) string {
	return fmt.Sprintf(`{
  "chart": {
    "result": [
      {
        "timestamp": [%d, %d, null],
        "indicators": {"adjclose": [{"adjclose": [44.5, null, 45.17]}]}
      }
    ],
    "error": null
  }
}`, ts1, ts2)
}

// testClient avoids the disk cache so each test request hits the server.
func testClient(base string) *Client {
	c := NewClientAt(base)
	c.history = http.DefaultClient
	return c
}

func TestQuote(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, quoteResponse)
	}))
	defer server.Close()

	quotes, err := testClient(server.URL).Quote(context.Background(), []string{"BHP", "CBA"})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if gotPath != "/v7/finance/quote" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotQuery, "BHP.AX") || !strings.Contains(gotQuery, "CBA.AX") {
		t.Errorf("query %q missing the suffixed symbols", gotQuery)
	}

	q, ok := quotes["BHP"]
	if !ok {
		t.Fatal("BHP missing from the batch")
	}
	if !q.Price.Equal(stash.M(45.17)) || !q.PreviousClose.Equal(stash.M(44.9)) {
		t.Errorf("BHP quote = %+v", q)
	}
	// CBA has no market price in the payload: treated as unavailable.
	if _, ok := quotes["CBA"]; ok {
		t.Error("CBA with no price should be absent")
	}
}

func TestQuoteBatchIsCached(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, quoteResponse)
	}))
	defer server.Close()

	client := testClient(server.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.Quote(context.Background(), []string{"BHP", "CBA"}); err != nil {
			t.Fatalf("Quote: %v", err)
		}
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want the batch served from cache", hits)
	}
}

func TestQuoteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Quote(context.Background(), []string{"BHP"})
	if !errors.Is(err, stash.ErrQuoteUnavailable) {
		t.Errorf("got %v, want ErrQuoteUnavailable", err)
	}
}

func TestHistory(t *testing.T) {
	day1 := stash.MustParseDate("2024-05-30")
	day2 := stash.MustParseDate("2024-05-31")

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, chartResponse(day1.Unix(), day2.Unix()))
	}))
	defer server.Close()

	series, err := testClient(server.URL).History(context.Background(), "BHP", stash.MustParseDate("2019-06-01"))
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if gotPath != "/v8/finance/chart/BHP.AX" {
		t.Errorf("path = %q", gotPath)
	}
	// Null timestamps and null closes are dropped, so one point survives.
	if series.Len() != 1 {
		t.Fatalf("series has %d points, want 1", series.Len())
	}
	if v, ok := series.Get(day1); !ok || !v.Equal(stash.M(44.5)) {
		t.Errorf("series[%s] = %v %v", day1, v, ok)
	}
}

func TestHistoryMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found"}}}`)
	}))
	defer server.Close()

	_, err := testClient(server.URL).History(context.Background(), "NXS", stash.Today())
	if !errors.Is(err, stash.ErrQuoteUnavailable) {
		t.Errorf("got %v, want ErrQuoteUnavailable", err)
	}
}
