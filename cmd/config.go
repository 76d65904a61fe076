package cmd

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once from the environment with
// an optional .env overlay.
type Config struct {
	// DataDir holds the JSON document store. Defaults to ~/.stash.
	DataDir string
	// ListenAddr is the local address of the serve command.
	ListenAddr string
	// YahooURL overrides the market data base URL, mainly for testing
	// against a stub server.
	YahooURL string
}

var loadConfig = sync.OnceValue(func() Config {
	// A missing .env is fine, the environment alone is enough.
	godotenv.Load()

	cfg := Config{
		DataDir:    os.Getenv("STASH_DATA_DIR"),
		ListenAddr: os.Getenv("STASH_LISTEN_ADDR"),
		YahooURL:   os.Getenv("STASH_YAHOO_URL"),
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.DataDir = filepath.Join(home, ".stash")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "localhost:3000"
	}
	return cfg
})

func config() Config { return loadConfig() }
