package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sitescope/sitescope/internal/core"
)

type fakeRunStore struct {
	runs map[string]*core.RunRecord
	err  error
}

func (f *fakeRunStore) SaveRun(ctx context.Context, rec *core.RunRecord) error {
	return errors.New("read-only test store")
}

func (f *fakeRunStore) LoadRun(ctx context.Context, id string) (*core.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.runs[id]
	if !ok {
		return nil, core.ErrNotFound("run", id)
	}
	return rec, nil
}

func (f *fakeRunStore) LatestRun(ctx context.Context) (*core.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var latest *core.RunRecord
	for _, rec := range f.runs {
		if latest == nil || rec.StartedAt.After(latest.StartedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, core.ErrNotFound("run", "latest")
	}
	return latest, nil
}

func (f *fakeRunStore) ListRuns(ctx context.Context) ([]core.RunSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.RunSummary
	for _, rec := range f.runs {
		out = append(out, core.RunSummary{ID: rec.ID, Subject: rec.Subject, Status: rec.Status})
	}
	return out, nil
}

func (f *fakeRunStore) Close() error { return nil }

func testServerWith(runs ...*core.RunRecord) *httptest.Server {
	store := &fakeRunStore{runs: map[string]*core.RunRecord{}}
	for _, r := range runs {
		store.runs[r.ID] = r
	}
	return httptest.NewServer(NewServer(store).Handler())
}

func completedRun(id string) *core.RunRecord {
	done := time.Now()
	return &core.RunRecord{
		ID:          id,
		Subject:     "Acme",
		Website:     "https://acme.test",
		Status:      core.RunStatusCompleted,
		StartedAt:   time.Now().Add(-time.Minute),
		CompletedAt: &done,
		Report: &core.Report{
			RunID:   id,
			Subject: "Acme",
			Modules: []*core.AgentAnalysis{
				{AgentName: "seo", Title: "SEO Foundations", Weight: 1,
					Items: []core.ScoreItem{{Name: "Meta Tags", MaxPoints: 10, ActualPoints: 7}}},
			},
		},
	}
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if into != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := testServerWith()
	defer srv.Close()

	var body map[string]string
	if code := getJSON(t, srv.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestListRuns(t *testing.T) {
	srv := testServerWith(completedRun("run-1"), completedRun("run-2"))
	defer srv.Close()

	var runs []core.RunSummary
	if code := getJSON(t, srv.URL+"/api/v1/runs/", &runs); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(runs) != 2 {
		t.Errorf("runs = %d, want 2", len(runs))
	}
}

func TestListRunsEmptyIsArray(t *testing.T) {
	srv := testServerWith()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/runs/")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var runs []core.RunSummary
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatalf("empty list should decode as array: %v", err)
	}
}

func TestGetRunAndReport(t *testing.T) {
	srv := testServerWith(completedRun("run-1"))
	defer srv.Close()

	var rec core.RunRecord
	if code := getJSON(t, srv.URL+"/api/v1/runs/run-1/", &rec); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if rec.ID != "run-1" || rec.Report == nil {
		t.Errorf("record = %+v", rec)
	}

	var report core.Report
	if code := getJSON(t, srv.URL+"/api/v1/runs/run-1/report", &report); code != http.StatusOK {
		t.Fatalf("report status = %d", code)
	}
	if report.Module("seo") == nil {
		t.Error("report modules missing")
	}
}

func TestGetMissingRunIs404(t *testing.T) {
	srv := testServerWith()
	defer srv.Close()

	if code := getJSON(t, srv.URL+"/api/v1/runs/nope/", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
	if code := getJSON(t, srv.URL+"/api/v1/runs/latest", nil); code != http.StatusNotFound {
		t.Errorf("latest status = %d, want 404", code)
	}
}

func TestReportForRunningRunIsConflict(t *testing.T) {
	running := &core.RunRecord{
		ID: "run-1", Subject: "Acme", Status: core.RunStatusRunning, StartedAt: time.Now(),
	}
	srv := testServerWith(running)
	defer srv.Close()

	if code := getJSON(t, srv.URL+"/api/v1/runs/run-1/report", nil); code != http.StatusConflict {
		t.Errorf("status = %d, want 409", code)
	}
}

func TestLatestRun(t *testing.T) {
	old := completedRun("run-old")
	old.StartedAt = time.Now().Add(-time.Hour)
	srv := testServerWith(old, completedRun("run-new"))
	defer srv.Close()

	var rec core.RunRecord
	if code := getJSON(t, srv.URL+"/api/v1/runs/latest", &rec); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if rec.ID != "run-new" {
		t.Errorf("latest = %s, want run-new", rec.ID)
	}
}

func TestStoreFailureIs500(t *testing.T) {
	store := &fakeRunStore{err: errors.New("disk on fire")}
	srv := httptest.NewServer(NewServer(store).Handler())
	defer srv.Close()

	if code := getJSON(t, srv.URL+"/api/v1/runs/", nil); code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", code)
	}
}

func TestMutationsNotRouted(t *testing.T) {
	srv := testServerWith(completedRun("run-1"))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/runs/", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", resp.StatusCode)
	}
}
