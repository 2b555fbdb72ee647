// Package config loads and validates application configuration from
// flags, environment variables, and YAML config files.
package config

import (
	"time"

	"github.com/sitescope/sitescope/internal/core"
)

// Config holds all application configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	Collect    CollectConfig    `mapstructure:"collect"`
	Screenshot ScreenshotConfig `mapstructure:"screenshot"`
	State      StateConfig      `mapstructure:"state"`
	Output     OutputConfig     `mapstructure:"output"`
	Server     ServerConfig     `mapstructure:"server"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuditConfig describes the audit subject.
type AuditConfig struct {
	Subject     string   `mapstructure:"subject"`
	Website     string   `mapstructure:"website"`
	Industry    string   `mapstructure:"industry"`
	Analyst     string   `mapstructure:"analyst"`
	AnalystOrg  string   `mapstructure:"analyst_org"`
	Competitors []string `mapstructure:"competitors"`
}

// EngineConfig configures scheduling and the revision loop.
type EngineConfig struct {
	AgentTimeout  string      `mapstructure:"agent_timeout"`
	CycleCeiling  int         `mapstructure:"cycle_ceiling"`
	Gates         GatesConfig `mapstructure:"gates"`
	DisabledUnits []string    `mapstructure:"disabled_units"`
}

// GatesConfig configures the quality gates applied to every analysis.
type GatesConfig struct {
	MinFindingsLength  int `mapstructure:"min_findings_length"`
	MinScoreItems      int `mapstructure:"min_score_items"`
	MinRecommendations int `mapstructure:"min_recommendations"`
	MaxEmptyNotes      int `mapstructure:"max_empty_notes"`
}

// AnalyzerConfig configures the LLM analysis backend.
type AnalyzerConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

// CollectConfig configures the website crawl.
type CollectConfig struct {
	MaxPages    int    `mapstructure:"max_pages"`
	PageTimeout string `mapstructure:"page_timeout"`
	UserAgent   string `mapstructure:"user_agent"`
}

// ScreenshotConfig configures page capture.
type ScreenshotConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BrowserPath string `mapstructure:"browser_path"`
	Dir         string `mapstructure:"dir"`
	Timeout     string `mapstructure:"timeout"`
}

// StateConfig configures run persistence.
type StateConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// OutputConfig configures report artifacts.
type OutputConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AgentTimeout parses the configured per-agent timeout, falling back to
// the default on a bad value. Load validation reports the error.
func (e EngineConfig) AgentTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.AgentTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// ToCore converts the audit section to the immutable run configuration.
func (c *Config) ToCore(auditDate string) core.AuditConfig {
	return core.AuditConfig{
		Subject:     c.Audit.Subject,
		Website:     c.Audit.Website,
		Industry:    c.Audit.Industry,
		AuditDate:   auditDate,
		Analyst:     c.Audit.Analyst,
		AnalystOrg:  c.Audit.AnalystOrg,
		Competitors: c.Audit.Competitors,
		MaxPages:    c.Collect.MaxPages,
	}
}
