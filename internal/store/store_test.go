package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sitescope/sitescope/internal/core"
)

func testConfig() core.AuditConfig {
	return core.AuditConfig{
		Subject:  "Acme Corp",
		Website:  "https://acme.example",
		Industry: "manufacturing",
		MaxPages: 25,
	}
}

func TestPutPageWriteOnce(t *testing.T) {
	s := New(testConfig())

	first := core.PageData{URL: "https://acme.example/pricing", Title: "Pricing"}
	if err := s.PutPage("collector", first); err != nil {
		t.Fatalf("first write: %v", err)
	}

	second := core.PageData{URL: "https://acme.example/pricing", Title: "Overwritten"}
	err := s.PutPage("rogue", second)
	if err == nil {
		t.Fatal("second write succeeded, want conflict")
	}

	var de *core.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("error type = %T, want *core.DomainError", err)
	}
	if de.Category != core.ErrCatConflict {
		t.Errorf("category = %q, want %q", de.Category, core.ErrCatConflict)
	}

	// The original value must survive the failed write.
	got, ok := s.Page("https://acme.example/pricing")
	if !ok || got.Title != "Pricing" {
		t.Errorf("stored page = %+v, want original", got)
	}
}

func TestPutScreenshotWriteOnce(t *testing.T) {
	s := New(testConfig())

	ref := core.ScreenshotRef{URL: "https://acme.example", Kind: core.ScreenshotFullPage, Path: "/tmp/a.png"}
	if err := s.PutScreenshot("capturer", ref); err != nil {
		t.Fatalf("first write: %v", err)
	}

	dup := core.ScreenshotRef{URL: "https://acme.example", Kind: core.ScreenshotFullPage, Path: "/tmp/b.png"}
	if err := s.PutScreenshot("capturer", dup); err == nil {
		t.Fatal("duplicate key accepted, want conflict")
	}

	got, _ := s.Screenshot(ref.Key())
	if got.Path != "/tmp/a.png" {
		t.Errorf("path = %q, want original", got.Path)
	}
}

func TestPutAnalysisOverwrites(t *testing.T) {
	s := New(testConfig())

	s.PutAnalysis("seo", &core.AgentAnalysis{AgentName: "seo", Findings: "draft"})
	s.PutAnalysis("seo", &core.AgentAnalysis{AgentName: "seo", Findings: "revised", RevisionCount: 1})

	got, ok := s.Analysis("seo")
	if !ok {
		t.Fatal("analysis missing")
	}
	if got.Findings != "revised" || got.RevisionCount != 1 {
		t.Errorf("analysis = %+v, want revised", got)
	}
}

func TestConcurrentWritersUnion(t *testing.T) {
	s := New(testConfig())

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			name := fmt.Sprintf("agent-%d", w)
			for i := 0; i < perWriter; i++ {
				url := fmt.Sprintf("https://acme.example/%d/%d", w, i)
				if err := s.PutPage(name, core.PageData{URL: url}); err != nil {
					t.Errorf("PutPage(%s): %v", url, err)
				}
				s.PutAnalysis(name, &core.AgentAnalysis{AgentName: name})
				s.UpdateFacts(name, func(f *core.Facts) {
					f.DiscoveredCompetitors = append(f.DiscoveredCompetitors, url)
				})
			}
		}(w)
	}
	wg.Wait()

	if got := len(s.Pages()); got != writers*perWriter {
		t.Errorf("pages = %d, want %d", got, writers*perWriter)
	}
	if got := len(s.Analyses()); got != writers {
		t.Errorf("analyses = %d, want %d", got, writers)
	}
	if got := len(s.Facts().DiscoveredCompetitors); got != writers*perWriter {
		t.Errorf("facts entries = %d, want %d", got, writers*perWriter)
	}
	if got := len(s.ChangeLog()); got != writers*perWriter*3 {
		t.Errorf("change log = %d records, want %d", got, writers*perWriter*3)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(testConfig())

	if err := s.PutPage("collector", core.PageData{URL: "https://acme.example/", Title: "Home"}); err != nil {
		t.Fatal(err)
	}
	s.PutAnalysis("seo", &core.AgentAnalysis{AgentName: "seo", Findings: "v1"})

	snap := s.Snapshot()

	// Writes after the snapshot must not leak into it.
	if err := s.PutPage("collector", core.PageData{URL: "https://acme.example/about"}); err != nil {
		t.Fatal(err)
	}
	s.PutAnalysis("seo", &core.AgentAnalysis{AgentName: "seo", Findings: "v2"})
	s.UpdateFacts("segmentation", func(f *core.Facts) { f.PrimarySegment = "smb" })

	if got := len(snap.Pages()); got != 1 {
		t.Errorf("snapshot pages = %d, want 1", got)
	}
	a, _ := snap.Analysis("seo")
	if a.Findings != "v1" {
		t.Errorf("snapshot analysis = %q, want v1", a.Findings)
	}
	if snap.Facts().PrimarySegment != "" {
		t.Error("snapshot facts observed a later write")
	}
}

func TestSnapshotSelectedDomains(t *testing.T) {
	s := New(testConfig())
	if err := s.PutPage("collector", core.PageData{URL: "https://acme.example/"}); err != nil {
		t.Fatal(err)
	}
	s.PutAnalysis("seo", &core.AgentAnalysis{AgentName: "seo"})

	snap := s.Snapshot(core.DomainPages)

	if got := len(snap.Pages()); got != 1 {
		t.Errorf("pages = %d, want 1", got)
	}
	if got := len(snap.Analyses()); got != 0 {
		t.Errorf("analyses = %d, want 0 for unselected domain", got)
	}
}

func TestHomepageMatchesRoot(t *testing.T) {
	s := New(testConfig())
	if err := s.PutPage("collector", core.PageData{URL: "https://acme.example/about", Title: "About"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutPage("collector", core.PageData{URL: "https://acme.example/", Title: "Home"}); err != nil {
		t.Fatal(err)
	}

	home, ok := s.Homepage()
	if !ok || home.Title != "Home" {
		t.Errorf("homepage = %+v, want trailing-slash root match", home)
	}
}

func TestChangeLogRecordsWriter(t *testing.T) {
	s := New(testConfig())
	if err := s.PutPage("collector", core.PageData{URL: "https://acme.example/"}); err != nil {
		t.Fatal(err)
	}

	log := s.ChangeLog()
	if len(log) != 1 {
		t.Fatalf("log length = %d, want 1", len(log))
	}
	rec := log[0]
	if rec.Domain != core.DomainPages || rec.Writer != "collector" || rec.Timestamp.IsZero() {
		t.Errorf("record = %+v", rec)
	}
}
