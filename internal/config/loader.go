package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "SITESCOPE",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "SITESCOPE",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (SITESCOPE_*)
// 3. Project config (.sitescope.yaml in current directory)
// 4. User config (~/.config/sitescope/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".sitescope")
		l.v.SetConfigType("yaml")

		// Project config takes precedence over user config.
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "sitescope"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("engine.agent_timeout", "5m")
	l.v.SetDefault("engine.cycle_ceiling", 3)
	l.v.SetDefault("engine.gates.min_findings_length", 100)
	l.v.SetDefault("engine.gates.min_score_items", 3)
	l.v.SetDefault("engine.gates.min_recommendations", 2)
	l.v.SetDefault("engine.gates.max_empty_notes", 2)

	l.v.SetDefault("analyzer.base_url", "https://openrouter.ai/api/v1")
	l.v.SetDefault("analyzer.model", "anthropic/claude-sonnet-4")
	l.v.SetDefault("analyzer.max_tokens", 4096)
	l.v.SetDefault("analyzer.temperature", 0.3)
	l.v.SetDefault("analyzer.timeout", "2m")

	l.v.SetDefault("collect.max_pages", 25)
	l.v.SetDefault("collect.page_timeout", "20s")
	l.v.SetDefault("collect.user_agent", "sitescope/1.0 (+https://github.com/sitescope/sitescope)")

	l.v.SetDefault("screenshot.enabled", true)
	l.v.SetDefault("screenshot.browser_path", "chromium")
	l.v.SetDefault("screenshot.dir", ".sitescope/screenshots")
	l.v.SetDefault("screenshot.timeout", "30s")

	l.v.SetDefault("state.db_path", ".sitescope/state/runs.db")

	l.v.SetDefault("output.dir", ".sitescope/reports")
	l.v.SetDefault("output.formats", []string{"html", "yaml"})

	l.v.SetDefault("server.addr", ":8799")
	l.v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}
