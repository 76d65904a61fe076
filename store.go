package stash

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store is the flat key/value persistence boundary. Values are opaque JSON
// documents; Get reports absence without error.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
}

// Storage keys. One document per collection.
const (
	keySecurities = "securities"
	keyAccounts   = "accounts"
	keyHistories  = "histories"
	keyOptions    = "options"
	keySettings   = "settings"
)

// FileStore keeps each key as a pretty-printed JSON file under one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create data dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string { return filepath.Join(s.dir, key+".json") }

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	value, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("could not read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	// Write then rename so a crash never leaves a torn document.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return fmt.Errorf("could not write %q: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("could not write %q: %w", key, err)
	}
	return nil
}

//go:embed defaults.json
var defaultsJSON []byte

// defaults holds the factory content served for keys that have never been
// written: the initial label categories and settings.
type defaults struct {
	Options  map[string][]string `json:"options"`
	Settings Settings            `json:"settings"`
}

// Settings are the user-tunable application settings.
type Settings struct {
	GSTRate Percent `json:"gstRate"`
}

// Repository is the typed access layer over a Store. Each collection loads
// from its own key, falling back to embedded defaults when absent.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository { return &Repository{store: store} }

func (r *Repository) load(key string, out any) (bool, error) {
	value, ok, err := r.store.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(value, out); err != nil {
		return false, fmt.Errorf("corrupt %q document: %w", key, err)
	}
	return true, nil
}

func (r *Repository) save(key string, in any) error {
	value, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode %q document: %w", key, err)
	}
	return r.store.Set(key, value)
}

func (r *Repository) loadDefaults() (*defaults, error) {
	var d defaults
	if err := json.Unmarshal(defaultsJSON, &d); err != nil {
		return nil, fmt.Errorf("corrupt embedded defaults: %w", err)
	}
	return &d, nil
}

// Ledger loads the full ledger: the securities and accounts collections.
func (r *Repository) Ledger() (*Ledger, error) {
	var securities []*Security
	if _, err := r.load(keySecurities, &securities); err != nil {
		return nil, err
	}
	var accounts []Account
	if _, err := r.load(keyAccounts, &accounts); err != nil {
		return nil, err
	}
	return NewLedgerOf(securities, accounts), nil
}

// SaveLedger persists both ledger collections.
func (r *Repository) SaveLedger(l *Ledger) error {
	securities := make([]*Security, 0)
	for sec := range l.AllSecurities() {
		securities = append(securities, sec)
	}
	if err := r.save(keySecurities, securities); err != nil {
		return err
	}
	return r.save(keyAccounts, l.Accounts())
}

// Histories loads the cached price series, keyed by security code.
func (r *Repository) Histories() (map[string]*CachedHistory, error) {
	histories := make(map[string]*CachedHistory)
	if _, err := r.load(keyHistories, &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

func (r *Repository) SaveHistories(histories map[string]*CachedHistory) error {
	return r.save(keyHistories, histories)
}

// Registry loads the label option registry, seeding the factory categories
// on first use.
func (r *Repository) Registry() (*Registry, error) {
	var options map[string][]string
	ok, err := r.load(keyOptions, &options)
	if err != nil {
		return nil, err
	}
	if !ok {
		d, err := r.loadDefaults()
		if err != nil {
			return nil, err
		}
		options = d.Options
	}
	return NewRegistry(options), nil
}

func (r *Repository) SaveRegistry(reg *Registry) error {
	return r.save(keyOptions, reg.All())
}

// Settings loads the application settings, seeding defaults on first use.
func (r *Repository) Settings() (Settings, error) {
	var settings Settings
	ok, err := r.load(keySettings, &settings)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		d, err := r.loadDefaults()
		if err != nil {
			return Settings{}, err
		}
		settings = d.Settings
	}
	return settings, nil
}

func (r *Repository) SaveSettings(settings Settings) error {
	return r.save(keySettings, settings)
}
