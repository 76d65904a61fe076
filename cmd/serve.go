package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"

	stash "github.com/SurferSamuel/Stash-sub000"
)

// serveCmd exposes the portfolio over a local HTTP API for the desktop shell.
type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the local portfolio API" }
func (*serveCmd) Usage() string {
	return `serve [-addr <host:port>]

  Serves a JSON API over localhost for the desktop front end. Price
  histories are refreshed shortly after each ASX close while running.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", config().ListenAddr, "Listen address")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, err := openRepository()
	if err != nil {
		return fail(err)
	}
	server := &apiServer{repo: repo}

	// Refresh histories shortly after the ASX close, sydney time.
	scheduler := cron.New(cron.WithLocation(sydney()))
	if _, err := scheduler.AddFunc("15 16 * * MON-FRI", server.refresh); err != nil {
		return fail(err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "app://*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	router.Get("/api/snapshot", server.getSnapshot)
	router.Get("/api/securities", server.getSecurities)
	router.Get("/api/accounts", server.getAccounts)
	router.Get("/api/options", server.getOptions)
	router.Post("/api/trades", server.postTrade)

	log.Printf("serving portfolio API on http://%s", c.addr)
	if err := http.ListenAndServe(c.addr, router); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// sydney resolves the exchange timezone, falling back to UTC when the
// timezone database is unavailable.
func sydney() *time.Location {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		return time.UTC
	}
	return loc
}

type apiServer struct {
	repo *stash.Repository
}

func (s *apiServer) refresh() {
	valuator, ledger, err := newValuator(s.repo)
	if err != nil {
		log.Printf("scheduled refresh failed: %v", err)
		return
	}
	var codes []string
	for sec := range ledger.AllSecurities() {
		codes = append(codes, sec.Code)
	}
	valuator.RefreshHistories(context.Background(), codes, false)
	saveHistories(s.repo, valuator)
}

func respond(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("response encode failed: %v", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stash.ErrSecurityNotFound),
		errors.Is(err, stash.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, stash.ErrMissingAccount),
		errors.Is(err, stash.ErrNoHoldings),
		errors.Is(err, stash.ErrInsufficientQuantity),
		errors.Is(err, stash.ErrDuplicateName),
		errors.Is(err, stash.ErrDuplicateSecurity):
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
		log.Printf("response encode failed: %v", err)
	}
}

// getSnapshot computes the dashboard snapshot. Label filters come in as
// repeated label=<category>:<label> query parameters.
func (s *apiServer) getSnapshot(w http.ResponseWriter, r *http.Request) {
	valuator, ledger, err := newValuator(s.repo)
	if err != nil {
		respondError(w, err)
		return
	}

	filter := stash.SnapshotFilter{AccountID: r.URL.Query().Get("accountId")}
	if filter.AccountID != "" {
		if _, ok := ledger.Account(filter.AccountID); !ok {
			respondError(w, fmt.Errorf("account %q: %w", filter.AccountID, stash.ErrAccountNotFound))
			return
		}
	}
	for _, raw := range r.URL.Query()["label"] {
		category, label, ok := strings.Cut(raw, ":")
		if !ok || category == "" || label == "" {
			respondError(w, fmt.Errorf("bad label filter %q, want category:label", raw))
			return
		}
		if filter.Labels == nil {
			filter.Labels = make(map[string][]string)
		}
		filter.Labels[category] = append(filter.Labels[category], label)
	}

	snapshot, err := valuator.Snapshot(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	saveHistories(s.repo, valuator)
	respond(w, snapshot)
}

func (s *apiServer) getSecurities(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.repo.Ledger()
	if err != nil {
		respondError(w, err)
		return
	}
	securities := []*stash.Security{}
	for sec := range ledger.AllSecurities() {
		securities = append(securities, sec)
	}
	respond(w, securities)
}

func (s *apiServer) getAccounts(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.repo.Ledger()
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, ledger.Accounts())
}

func (s *apiServer) getOptions(w http.ResponseWriter, r *http.Request) {
	registry, err := s.repo.Registry()
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, registry.All())
}

// tradeRequest is the JSON body of POST /api/trades.
type tradeRequest struct {
	Type      string         `json:"type"` // "buy" or "sell"
	Security  string         `json:"security"`
	AccountID string         `json:"accountId"`
	Date      stash.Date     `json:"date"`
	Quantity  stash.Quantity `json:"quantity"`
	UnitPrice stash.Money    `json:"unitPrice"`
	Brokerage stash.Money    `json:"brokerage"`
}

func (s *apiServer) postTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("bad trade body: %v", err))
		return
	}

	ledger, err := s.repo.Ledger()
	if err != nil {
		respondError(w, err)
		return
	}
	settings, err := s.repo.Settings()
	if err != nil {
		respondError(w, err)
		return
	}
	account, ok := ledger.Account(req.AccountID)
	if !ok {
		respondError(w, fmt.Errorf("account %q: %w", req.AccountID, stash.ErrAccountNotFound))
		return
	}

	switch req.Type {
	case "buy":
		err = ledger.RecordBuy(req.Security, account, req.Date, req.Quantity, req.UnitPrice, req.Brokerage, settings.GSTRate)
	case "sell":
		err = ledger.RecordSell(req.Security, account, req.Date, req.Quantity, req.UnitPrice, req.Brokerage, settings.GSTRate)
	default:
		err = fmt.Errorf("unknown trade type %q", req.Type)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.repo.SaveLedger(ledger); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	respond(w, map[string]string{"status": "recorded"})
}
