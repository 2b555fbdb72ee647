//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitescope/sitescope/internal/adapters/collect"
	"github.com/sitescope/sitescope/internal/adapters/llm"
	"github.com/sitescope/sitescope/internal/adapters/render"
	"github.com/sitescope/sitescope/internal/adapters/state"
	"github.com/sitescope/sitescope/internal/agents"
	"github.com/sitescope/sitescope/internal/api"
	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/events"
	"github.com/sitescope/sitescope/internal/service"
)

// testSite serves a minimal but complete marketing site for the crawler.
func testSite() *httptest.Server {
	mux := http.NewServeMux()
	page := func(title, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><title>%s</title>
<meta name="description" content="Acme helps fintech teams cut onboarding time in half.">
</head><body>%s</body></html>`, title, body)
		}
	}
	mux.HandleFunc("/", page("Acme | Onboarding Automation", `
		<h1>Cut onboarding time in half for fintech teams</h1>
		<p>Acme automates customer onboarding so compliance teams spend their week on review, not data entry. Unlike legacy tooling, Acme connects directly to your KYC providers.</p>
		<a class="btn" href="/pricing">Get started</a>
		<a href="/product">Product</a>
		<a href="/about">About</a>
		<a href="https://linkedin.com/company/acme">LinkedIn</a>
		<blockquote>Acme cut our onboarding queue from days to hours. Finally a tool our analysts actually like using.</blockquote>`))
	mux.HandleFunc("/pricing", page("Pricing | Acme", `
		<h1>Simple pricing</h1>
		<p>Start free, upgrade when your team grows. Every plan includes unlimited workflows and SOC 2 compliant data handling.</p>
		<form action="/signup"><input type="email" name="email"><button type="submit">Start free trial</button></form>`))
	mux.HandleFunc("/product", page("Product | Acme", `
		<h1>The onboarding platform for regulated teams</h1>
		<p>Acme is the only platform that combines document collection, KYC checks, and approval routing in one place. Teams report 60% faster onboarding within the first month.</p>
		<a class="btn" href="/pricing">See pricing</a>`))
	mux.HandleFunc("/about", page("About | Acme", `
		<h1>About Acme</h1>
		<p>Founded in 2019, Acme serves over 200 financial institutions. We are SOC 2 Type II certified and GDPR compliant.</p>`))
	return httptest.NewServer(mux)
}

func newEngine(t *testing.T, dir string) (*service.Engine, *state.SQLiteRunStore) {
	t.Helper()

	analyzer := llm.New(llm.Config{}, nil) // unconfigured, heuristic paths only
	registry := service.NewRegistry()
	require.NoError(t, agents.RegisterAll(registry, analyzer, nil))

	renderer, err := render.New(filepath.Join(dir, "reports"), []string{"html", "yaml"}, nil)
	require.NoError(t, err)

	runStore, err := state.NewSQLiteRunStore(filepath.Join(dir, "runs.db"),
		state.WithSnapshotPath(filepath.Join(dir, "latest.json")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = runStore.Close() })

	opts := service.DefaultOptions()
	opts.Screenshots = false
	opts.AgentTimeout = 30 * time.Second

	return service.NewEngine(opts, service.EngineDeps{
		Registry:  registry,
		Collector: collect.New(nil, collect.WithPageTimeout(5*time.Second)),
		Renderer:  renderer,
		RunStore:  runStore,
		Bus:       events.New(64),
	}), runStore
}

func TestIntegration_FullAudit(t *testing.T) {
	site := testSite()
	defer site.Close()

	dir := t.TempDir()
	engine, runStore := newEngine(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := engine.Run(ctx, core.AuditConfig{
		Subject:   "Acme",
		Website:   site.URL,
		Industry:  "fintech",
		AuditDate: "2025-06-01",
		MaxPages:  10,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Report)

	report := result.Report
	assert.Equal(t, "Acme", report.Subject)
	assert.Equal(t, 4, report.PagesSeen)
	assert.Greater(t, report.OverallPercentage(), 0.0)
	assert.Len(t, report.Modules, 14, "every registered module should report")

	names := make(map[string]bool)
	for _, m := range report.Modules {
		names[m.AgentName] = true
		assert.True(t, m.Degraded, "module %s should be degraded without an analyzer", m.AgentName)
	}
	for _, want := range []string{"website", "seo", "positioning", "conversion", "top5_pages"} {
		assert.True(t, names[want], "missing module %s", want)
	}

	// The artifact is written atomically under the run directory.
	require.NotEmpty(t, result.ArtifactPath)
	info, err := os.Stat(result.ArtifactPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// The run round-trips through the store with its report intact.
	rec, err := runStore.LoadRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, rec.Status)
	require.NotNil(t, rec.Report)
	assert.InDelta(t, report.OverallPercentage(), rec.Report.OverallPercentage(), 0.01)

	// Terminal saves export the JSON snapshot.
	_, err = os.Stat(filepath.Join(dir, "latest.json"))
	assert.NoError(t, err)
}

func TestIntegration_APIOverCompletedRun(t *testing.T) {
	site := testSite()
	defer site.Close()

	dir := t.TempDir()
	engine, runStore := newEngine(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := engine.Run(ctx, core.AuditConfig{
		Subject:   "Acme",
		Website:   site.URL,
		AuditDate: "2025-06-01",
		MaxPages:  10,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewServer(runStore).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/runs/" + result.RunID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec core.RunRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, result.RunID, rec.ID)
	assert.Equal(t, core.RunStatusCompleted, rec.Status)

	resp, err = http.Get(srv.URL + "/api/v1/runs/" + result.RunID + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_UnreachableSiteFailsRun(t *testing.T) {
	dir := t.TempDir()
	engine, runStore := newEngine(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := engine.Run(ctx, core.AuditConfig{
		Subject:   "Ghost",
		Website:   "http://127.0.0.1:1/",
		AuditDate: "2025-06-01",
		MaxPages:  5,
	})
	require.Error(t, err)

	// The failed run is still persisted for the status surface.
	rec, err := runStore.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, rec.Status)
	assert.NotEmpty(t, rec.Error)
}
