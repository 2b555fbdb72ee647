package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration. Audit subject fields are
// only checked by ValidateForRun since status and serve commands work
// without them.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateEngine(&cfg.Engine)
	v.validateAnalyzer(&cfg.Analyzer)
	v.validateCollect(&cfg.Collect)
	v.validateScreenshot(&cfg.Screenshot)
	v.validateState(&cfg.State)
	v.validateOutput(&cfg.Output)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// ValidateForRun validates everything Validate does plus the audit
// subject fields a run cannot start without.
func (v *Validator) ValidateForRun(cfg *Config) error {
	v.validateAudit(&cfg.Audit)
	return v.Validate(cfg)
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateAudit(cfg *AuditConfig) {
	if strings.TrimSpace(cfg.Subject) == "" {
		v.addError("audit.subject", cfg.Subject, "subject required")
	}
	if cfg.Website == "" {
		v.addError("audit.website", cfg.Website, "website required")
	} else if u, err := url.Parse(cfg.Website); err != nil || u.Scheme == "" || u.Host == "" {
		v.addError("audit.website", cfg.Website, "must be an absolute URL")
	}
}

func (v *Validator) validateEngine(cfg *EngineConfig) {
	if _, err := time.ParseDuration(cfg.AgentTimeout); err != nil {
		v.addError("engine.agent_timeout", cfg.AgentTimeout, "invalid duration format")
	}

	if cfg.CycleCeiling < 1 || cfg.CycleCeiling > 10 {
		v.addError("engine.cycle_ceiling", cfg.CycleCeiling, "must be between 1 and 10")
	}

	if cfg.Gates.MinFindingsLength < 0 {
		v.addError("engine.gates.min_findings_length", cfg.Gates.MinFindingsLength, "must be non-negative")
	}
	if cfg.Gates.MinScoreItems < 0 {
		v.addError("engine.gates.min_score_items", cfg.Gates.MinScoreItems, "must be non-negative")
	}
	if cfg.Gates.MinRecommendations < 0 {
		v.addError("engine.gates.min_recommendations", cfg.Gates.MinRecommendations, "must be non-negative")
	}
	if cfg.Gates.MaxEmptyNotes < 0 {
		v.addError("engine.gates.max_empty_notes", cfg.Gates.MaxEmptyNotes, "must be non-negative")
	}
}

func (v *Validator) validateAnalyzer(cfg *AnalyzerConfig) {
	// An empty base URL disables the analyzer; agents fall back to
	// deterministic heuristics.
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			v.addError("analyzer.base_url", cfg.BaseURL, "must be an absolute URL")
		}
		if cfg.Model == "" {
			v.addError("analyzer.model", cfg.Model, "model required when analyzer enabled")
		}
	}

	if cfg.MaxTokens < 0 || cfg.MaxTokens > 200000 {
		v.addError("analyzer.max_tokens", cfg.MaxTokens, "must be between 0 and 200000")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		v.addError("analyzer.temperature", cfg.Temperature, "must be between 0 and 2")
	}
	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		v.addError("analyzer.timeout", cfg.Timeout, "invalid duration format")
	}
}

func (v *Validator) validateCollect(cfg *CollectConfig) {
	if cfg.MaxPages < 1 || cfg.MaxPages > 500 {
		v.addError("collect.max_pages", cfg.MaxPages, "must be between 1 and 500")
	}
	if _, err := time.ParseDuration(cfg.PageTimeout); err != nil {
		v.addError("collect.page_timeout", cfg.PageTimeout, "invalid duration format")
	}
}

func (v *Validator) validateScreenshot(cfg *ScreenshotConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.BrowserPath == "" {
		v.addError("screenshot.browser_path", cfg.BrowserPath, "browser path required when enabled")
	}
	if cfg.Dir == "" {
		v.addError("screenshot.dir", cfg.Dir, "directory required when enabled")
	}
	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		v.addError("screenshot.timeout", cfg.Timeout, "invalid duration format")
	}
}

func (v *Validator) validateState(cfg *StateConfig) {
	if cfg.DBPath == "" {
		v.addError("state.db_path", cfg.DBPath, "path required")
	}
}

func (v *Validator) validateOutput(cfg *OutputConfig) {
	if cfg.Dir == "" {
		v.addError("output.dir", cfg.Dir, "directory required")
	}
	validFormats := map[string]bool{"html": true, "yaml": true, "json": true}
	for _, f := range cfg.Formats {
		if !validFormats[f] {
			v.addError("output.formats", f, "must be one of: html, yaml, json")
		}
	}
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
