package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no project config is picked up.
	chdir(t, t.TempDir())

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want info", cfg.Log.Level)
	}
	if cfg.Engine.CycleCeiling != 3 {
		t.Errorf("engine.cycle_ceiling = %d, want 3", cfg.Engine.CycleCeiling)
	}
	if cfg.Engine.Gates.MinFindingsLength != 100 {
		t.Errorf("gates.min_findings_length = %d, want 100", cfg.Engine.Gates.MinFindingsLength)
	}
	if cfg.Engine.Gates.MinScoreItems != 3 {
		t.Errorf("gates.min_score_items = %d, want 3", cfg.Engine.Gates.MinScoreItems)
	}
	if cfg.Engine.Gates.MinRecommendations != 2 {
		t.Errorf("gates.min_recommendations = %d, want 2", cfg.Engine.Gates.MinRecommendations)
	}
	if cfg.Collect.MaxPages != 25 {
		t.Errorf("collect.max_pages = %d, want 25", cfg.Collect.MaxPages)
	}
	if !cfg.Screenshot.Enabled {
		t.Error("screenshot.enabled should default to true")
	}
	if cfg.State.DBPath == "" {
		t.Error("state.db_path should have a default")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
audit:
  subject: Acme Corp
  website: https://acme.example
  industry: manufacturing
  competitors:
    - https://rival.example
engine:
  cycle_ceiling: 2
  gates:
    min_findings_length: 50
collect:
  max_pages: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Audit.Subject != "Acme Corp" {
		t.Errorf("subject = %q", cfg.Audit.Subject)
	}
	if len(cfg.Audit.Competitors) != 1 {
		t.Errorf("competitors = %v", cfg.Audit.Competitors)
	}
	if cfg.Engine.CycleCeiling != 2 {
		t.Errorf("cycle_ceiling = %d, want override 2", cfg.Engine.CycleCeiling)
	}
	if cfg.Engine.Gates.MinFindingsLength != 50 {
		t.Errorf("min_findings_length = %d, want override 50", cfg.Engine.Gates.MinFindingsLength)
	}
	// Unset gate fields keep their defaults.
	if cfg.Engine.Gates.MinScoreItems != 3 {
		t.Errorf("min_score_items = %d, want default 3", cfg.Engine.Gates.MinScoreItems)
	}
	if cfg.Collect.MaxPages != 10 {
		t.Errorf("max_pages = %d, want override 10", cfg.Collect.MaxPages)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SITESCOPE_ANALYZER_API_KEY", "sk-test-key-from-env-1234567890")
	t.Setenv("SITESCOPE_LOG_LEVEL", "debug")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Analyzer.APIKey != "sk-test-key-from-env-1234567890" {
		t.Errorf("analyzer.api_key not read from env, got %q", cfg.Analyzer.APIKey)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want env override debug", cfg.Log.Level)
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("audit: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader().WithConfigFile(path).Load(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestToCore(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Audit.Subject = "Acme"
	cfg.Audit.Website = "https://acme.example"
	cfg.Collect.MaxPages = 7

	ac := cfg.ToCore("2026-08-31")
	if ac.Subject != "Acme" || ac.Website != "https://acme.example" {
		t.Errorf("core config = %+v", ac)
	}
	if ac.AuditDate != "2026-08-31" {
		t.Errorf("audit date = %q", ac.AuditDate)
	}
	if ac.MaxPages != 7 {
		t.Errorf("max pages = %d", ac.MaxPages)
	}
}

func TestAgentTimeoutDuration(t *testing.T) {
	e := EngineConfig{AgentTimeout: "30s"}
	if got := e.AgentTimeoutDuration().Seconds(); got != 30 {
		t.Errorf("timeout = %vs, want 30", got)
	}

	bad := EngineConfig{AgentTimeout: "nope"}
	if bad.AgentTimeoutDuration() <= 0 {
		t.Error("fallback timeout must be positive")
	}
}

// chdir switches the working directory for the duration of the test,
// restoring the original directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}
