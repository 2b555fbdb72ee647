package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/sitescope/sitescope/internal/adapters/state"
	"github.com/sitescope/sitescope/internal/config"
	"github.com/sitescope/sitescope/internal/logging"
)

// loadConfig loads the unified configuration through the global viper
// instance so CLI flag bindings take precedence over file and env values.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	return loader.Load()
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

// openRunStore opens the run database, keeping the JSON snapshot next to
// the database file.
func openRunStore(cfg *config.Config) (*state.SQLiteRunStore, error) {
	snapshot := filepath.Join(filepath.Dir(cfg.State.DBPath), "latest.json")
	store, err := state.NewSQLiteRunStore(cfg.State.DBPath,
		state.WithSnapshotPath(snapshot))
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	return store, nil
}

// durationOr parses a duration string, falling back on empty or invalid
// input. Config validation reports bad values before commands run.
func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
