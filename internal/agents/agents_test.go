package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/service"
	"github.com/sitescope/sitescope/internal/store"
)

func testSite(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(core.AuditConfig{
		Subject:     "Acme Platform",
		Website:     "https://acme.test",
		Industry:    "workflow automation",
		Competitors: []string{"rival.test"},
		MaxPages:    25,
	})

	pages := []core.PageData{
		{
			URL:             "https://acme.test",
			Title:           "Acme | Workflow automation for fintech teams",
			MetaDescription: "Acme helps fintech operations teams automate onboarding workflows.",
			H1:              []string{"Cut onboarding time in half for fintech teams"},
			H2:              []string{"How does Acme work", "Trusted by operators"},
			Paragraphs:      []string{strings.Repeat("Acme automates the onboarding checks your analysts run by hand today. ", 4)},
			InternalLinks:   []string{"https://acme.test/pricing", "https://acme.test/product", "https://acme.test/about", "https://acme.test/contact", "https://acme.test/blog"},
			CTAs:            []core.CTA{{Text: "Start free trial", Href: "https://acme.test/signup"}, {Text: "Book a demo", Href: "https://acme.test/demo"}},
			SocialLinks:     map[string]string{"linkedin": "https://linkedin.com/company/acme", "twitter": "https://x.com/acme"},
			Testimonials:    []string{"Acme cut our onboarding queue by 60 percent."},
			HasSchema:       true,
			SchemaTypes:     []string{"Organization"},
			StatusCode:      200,
			LoadTime:        1.2,
			PageType:        core.PageTypeHome,
		},
		{
			URL:           "https://acme.test/pricing",
			Title:         "Pricing | Acme",
			MetaDescription: "Simple pricing for fintech teams of every size.",
			H1:            []string{"Pricing"},
			Paragraphs:    []string{strings.Repeat("Plans scale with the number of onboarding workflows you automate. ", 4)},
			InternalLinks: []string{"https://acme.test", "https://acme.test/contact"},
			CTAs:          []core.CTA{{Text: "Get started", Href: "https://acme.test/signup"}},
			Forms:         []core.Form{{Action: "/signup", Fields: []string{"email", "company"}}},
			StatusCode:    200,
			LoadTime:      1.0,
			PageType:      core.PageTypePricing,
		},
		{
			URL:           "https://acme.test/product",
			Title:         "Product | Acme",
			H1:            []string{"The Acme automation engine"},
			H2:            []string{"What can you automate", "Why teams switch"},
			Paragraphs:    []string{strings.Repeat("Only Acme runs compliance checks inline, unlike legacy review queues. Over 200 customers onboard 40% faster. ", 3)},
			InternalLinks: []string{"https://acme.test", "https://acme.test/pricing"},
			CTAs:          []core.CTA{{Text: "See it live", Href: "https://acme.test/demo"}},
			HasSchema:     true,
			SchemaTypes:   []string{"Product"},
			StatusCode:    200,
			LoadTime:      1.4,
			PageType:      core.PageTypeProduct,
		},
		{
			URL:           "https://acme.test/about",
			Title:         "About | Acme",
			H1:            []string{"About Acme"},
			Paragraphs:    []string{strings.Repeat("Founded by fintech operators, Acme is SOC 2 certified and GDPR compliant. ", 3)},
			InternalLinks: []string{"https://acme.test"},
			StatusCode:    200,
			LoadTime:      0.9,
			PageType:      core.PageTypeAbout,
		},
		{
			URL:           "https://acme.test/contact",
			Title:         "Contact | Acme",
			H1:            []string{"Talk to us"},
			Paragraphs:    []string{"Tell us about your onboarding volume and we will set up a walkthrough."},
			CTAs:          []core.CTA{{Text: "Request a call", Href: "https://acme.test/contact#form"}},
			Forms:         []core.Form{{Action: "/contact", Fields: []string{"email", "name", "volume"}}},
			Testimonials:  []string{"The rollout took a week."},
			StatusCode:    200,
			LoadTime:      0.8,
			PageType:      core.PageTypeContact,
		},
		{
			URL:           "https://acme.test/blog/faster-onboarding",
			Title:         "How fintech teams cut onboarding time | Acme Blog",
			H1:            []string{"How fintech teams cut onboarding time"},
			H2:            []string{"Why is onboarding slow", "What good looks like"},
			Paragraphs:    []string{strings.Repeat("Manual onboarding reviews stall growth for fintech teams everywhere. ", 8)},
			InternalLinks: []string{"https://acme.test", "https://acme.test/product"},
			StatusCode:    200,
			LoadTime:      1.1,
			PageType:      core.PageTypeBlog,
		},
		{
			URL:           "https://acme.test/resources/benchmark-ebook",
			Title:         "Onboarding benchmark ebook | Acme",
			H1:            []string{"The onboarding benchmark report"},
			Paragraphs:    []string{"Download the benchmark data from 200 fintech onboarding programs."},
			CTAs:          []core.CTA{{Text: "Download the report", Href: "#form"}},
			Forms:         []core.Form{{Action: "/download", Fields: []string{"email"}, Gated: true}},
			StatusCode:    200,
			LoadTime:      1.0,
			PageType:      core.PageTypeResources,
		},
		{
			URL:           "https://acme.test/acme-vs-rival",
			Title:         "Acme vs Rival: an honest comparison",
			H1:            []string{"Acme vs Rival"},
			Paragraphs:    []string{"Compared to Rival, Acme runs checks inline instead of batching them overnight."},
			ExternalLinks: []string{"https://www.rival.test/pricing", "https://otherco.test/features"},
			StatusCode:    200,
			LoadTime:      1.3,
			PageType:      core.PageTypeOther,
		},
	}
	for _, p := range pages {
		if err := st.PutPage("collector", p); err != nil {
			t.Fatalf("PutPage(%s): %v", p.URL, err)
		}
	}
	return st
}

func runAgent(t *testing.T, a core.Agent, st *store.Store) *core.AgentAnalysis {
	t.Helper()
	res, err := a.Execute(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("%s.Execute: %v", a.Name(), err)
	}
	return res
}

func TestWebsitePublishesFacts(t *testing.T) {
	st := testSite(t)
	res := runAgent(t, NewWebsite(nil, nil), st)

	if res.Weight != 0 {
		t.Fatalf("website weight = %v, want 0", res.Weight)
	}
	if len(res.Items) != 0 {
		t.Fatalf("website should carry no score items, got %d", len(res.Items))
	}
	facts := st.Facts()
	if facts.SocialLinks["linkedin"] == "" {
		t.Error("social links fact not published")
	}
	if len(facts.DiscoveredCompetitors) == 0 {
		t.Error("no competitors discovered from the vs page")
	}
	for _, d := range facts.DiscoveredCompetitors {
		if d == "rival.test" {
			return
		}
	}
	t.Errorf("rival.test not among discovered competitors: %v", facts.DiscoveredCompetitors)
}

func TestWebsiteFailsWithoutPages(t *testing.T) {
	st := store.New(core.AuditConfig{Website: "https://acme.test"})
	if _, err := NewWebsite(nil, nil).Execute(context.Background(), st, nil); err == nil {
		t.Fatal("expected error on empty crawl")
	}
}

func TestSEOScoresHealthySite(t *testing.T) {
	st := testSite(t)
	res := runAgent(t, NewSEO(nil, nil), st)

	if !res.Degraded {
		t.Error("no analyzer configured, analysis should be degraded")
	}
	if len(res.Items) != 8 {
		t.Fatalf("seo items = %d, want 8", len(res.Items))
	}
	byName := itemsByName(res)
	if got := byName["Page Speed"].ActualPoints; got != 20 {
		t.Errorf("fast site page speed = %d, want 20", got)
	}
	if got := byName["Internal Linking"].ActualPoints; got == 0 {
		t.Error("internal linking scored zero despite cross links")
	}
	if res.EmptyNoteCount() != 2 {
		t.Errorf("empty notes = %d, want 2 (mobile and images)", res.EmptyNoteCount())
	}
	if len(res.Findings) < 100 {
		t.Errorf("findings too short: %d chars", len(res.Findings))
	}
	if len(res.Recommendations) < 2 {
		t.Errorf("recommendations = %d, want >= 2", len(res.Recommendations))
	}
}

func TestSEOPenalizesSlowSite(t *testing.T) {
	st := store.New(core.AuditConfig{Website: "https://slow.test"})
	if err := st.PutPage("collector", core.PageData{
		URL: "https://slow.test", Title: "Slow", StatusCode: 200,
		LoadTime: 6.0, PageType: core.PageTypeHome,
	}); err != nil {
		t.Fatal(err)
	}
	res := runAgent(t, NewSEO(nil, nil), st)
	if got := itemsByName(res)["Page Speed"].ActualPoints; got != 4 {
		t.Errorf("slow site page speed = %d, want 4", got)
	}
}

func TestPositioningRewardsOutcomeHeadline(t *testing.T) {
	st := testSite(t)
	res := runAgent(t, NewPositioning(nil, nil), st)

	if res.Weight != 2.0 {
		t.Fatalf("positioning weight = %v, want 2.0", res.Weight)
	}
	byName := itemsByName(res)
	if got := byName["Value Proposition Clarity"].ActualPoints; got < 18 {
		t.Errorf("outcome headline clarity = %d, want >= 18", got)
	}
	if got := byName["Differentiation"].ActualPoints; got == 0 {
		t.Error("differentiation scored zero despite only/unlike claims")
	}
	if got := byName["Target Audience Clarity"].ActualPoints; got != 20 {
		t.Errorf("audience clarity = %d, want 20 (homepage names fintech teams)", got)
	}
}

func TestConversionCountsFormsAndPaths(t *testing.T) {
	st := testSite(t)
	res := runAgent(t, NewConversion(nil, nil), st)

	byName := itemsByName(res)
	if got := byName["Path Clarity"].ActualPoints; got != 15 {
		t.Errorf("path clarity = %d, want 15 (pricing and contact exist)", got)
	}
	if got := byName["Friction Reduction"].ActualPoints; got != 10 {
		t.Errorf("friction = %d, want 10 (all forms lean)", got)
	}
	if got := byName["CTA Copy"].ActualPoints; got == 0 {
		t.Error("cta copy scored zero despite action verbs")
	}
}

func TestTrustDetectsSignals(t *testing.T) {
	st := testSite(t)
	res := runAgent(t, NewTrust(nil, nil), st)

	byName := itemsByName(res)
	if got := byName["Testimonials"].ActualPoints; got != 20 {
		t.Errorf("testimonials = %d, want 20 (structured extraction)", got)
	}
	if got := byName["Security & Compliance"].ActualPoints; got == 0 {
		t.Error("SOC 2 and GDPR text not detected")
	}
	if got := byName["Team & About"].ActualPoints; got != 8 {
		t.Errorf("about page = %d, want 8", got)
	}
}

func TestSegmentationPublishesSegments(t *testing.T) {
	st := testSite(t)
	res := runAgent(t, NewSegmentation(nil, nil), st)

	facts := st.Facts()
	if len(facts.Segments) == 0 {
		t.Fatal("no segments published to facts")
	}
	if facts.PrimarySegment == "" {
		t.Error("primary segment not set")
	}
	if got := itemsByName(res)["Segment Definition"].ActualPoints; got == 0 {
		t.Error("segment definition scored zero despite fintech-teams phrasing")
	}
}

func TestDeepResearchWritesBrief(t *testing.T) {
	st := testSite(t)
	res := runAgent(t, NewDeepResearch(nil, nil), st)

	brief := st.Facts().ResearchBrief
	if brief == "" {
		t.Fatal("research brief not written to facts")
	}
	if !strings.Contains(brief, "Acme Platform") {
		t.Errorf("brief does not name the subject: %q", brief)
	}
	if res.Findings != brief {
		t.Error("findings should carry the brief")
	}
}

func TestPromptVisibilityReadsBrief(t *testing.T) {
	st := testSite(t)
	runAgent(t, NewDeepResearch(nil, nil), st)
	res := runAgent(t, NewPromptVisibility(nil, nil), st)

	byName := itemsByName(res)
	if got := byName["Entity Clarity"].ActualPoints; got == 0 {
		t.Error("entity clarity zero despite Organization schema")
	}
	if got := byName["Citable Facts"].ActualPoints; got == 0 {
		t.Error("citable facts zero despite quantified claims")
	}
	if got := byName["Question Coverage"].ActualPoints; got == 0 {
		t.Error("question coverage zero despite question headings")
	}
}

func TestResourceHubCataloguesGatedContent(t *testing.T) {
	st := testSite(t)
	runAgent(t, NewResourceHub(nil, nil), st)

	facts := st.Facts()
	if len(facts.GatedContent) != 1 {
		t.Fatalf("gated content = %d, want 1", len(facts.GatedContent))
	}
	if facts.GatedContent[0].Format != "ebook" {
		t.Errorf("gated format = %q, want ebook", facts.GatedContent[0].Format)
	}
	if len(facts.LandingPages) == 0 {
		t.Error("no landing pages catalogued")
	}
}

func TestTopPagesRanksHomeFirst(t *testing.T) {
	st := testSite(t)
	runAgent(t, NewTopPages(nil, nil), st)

	critical := st.Facts().CriticalPages
	if len(critical) != 5 {
		t.Fatalf("critical pages = %d, want 5", len(critical))
	}
	if critical[0].PageType != core.PageTypeHome {
		t.Errorf("top page = %s, want home", critical[0].PageType)
	}
	foundPricing := false
	for _, cp := range critical {
		if cp.PageType == core.PageTypePricing {
			foundPricing = true
		}
		if cp.MaxScore == 0 {
			t.Errorf("page %s has zero max score", cp.URL)
		}
	}
	if !foundPricing {
		t.Error("pricing missing from the critical set")
	}
}

func TestCompetitorUsesDiscoveredSet(t *testing.T) {
	st := testSite(t)
	runAgent(t, NewWebsite(nil, nil), st)
	res := runAgent(t, NewCompetitor(nil, nil), st)

	byName := itemsByName(res)
	if got := byName["Comparative Content"].ActualPoints; got == 0 {
		t.Error("comparative content zero despite the vs page")
	}
	if got := byName["Competitor Set Clarity"].ActualPoints; got == 0 {
		t.Error("competitor set zero despite configured and discovered entries")
	}
}

func TestSocialListeningDegradedBaseline(t *testing.T) {
	st := testSite(t)
	runAgent(t, NewWebsite(nil, nil), st)
	res := runAgent(t, NewSocialListening(nil, nil), st)

	if !res.Degraded {
		t.Error("no analyzer, expected degraded")
	}
	if len(res.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(res.Items))
	}
	if res.EmptyNoteCount() != 2 {
		t.Errorf("empty notes = %d, want 2", res.EmptyNoteCount())
	}
}

func TestDegradedRevisionGrowsFindings(t *testing.T) {
	st := testSite(t)
	agent := NewSEO(nil, nil)
	first := runAgent(t, agent, st)

	fb := &core.Feedback{
		Reason:     "quality gates",
		Violations: []string{"findings too short"},
	}
	revised, err := agent.Execute(context.Background(), st, fb)
	if err != nil {
		t.Fatal(err)
	}
	if len(revised.Findings) <= len(first.Findings) {
		t.Errorf("revision did not elaborate findings: %d vs %d chars",
			len(revised.Findings), len(first.Findings))
	}
}

func TestAnalyzerEnrichmentMergesResult(t *testing.T) {
	st := testSite(t)
	an := &stubAnalyzer{res: &core.AnalysisResult{
		Findings: strings.Repeat("The enriched narrative covers every criterion in depth. ", 10),
		Items: []core.ScoreItem{
			{Name: "Mobile Responsiveness", Note: "viewport meta present on all templates"},
		},
		Recommendations: []core.Recommendation{
			{Issue: "render-blocking scripts on the homepage", Action: "Defer third-party tags.", Impact: core.ImpactMedium, Effort: core.EffortLow},
		},
	}}
	res := runAgent(t, NewSEO(an, nil), st)

	if res.Degraded {
		t.Error("analyzer available, should not be degraded")
	}
	if got := itemsByName(res)["Mobile Responsiveness"].Note; got != "viewport meta present on all templates" {
		t.Errorf("analyzer note not merged: %q", got)
	}
	found := false
	for _, r := range res.Recommendations {
		if r.Issue == "render-blocking scripts on the homepage" {
			found = true
		}
	}
	if !found {
		t.Error("analyzer recommendation not appended")
	}
}

func TestRegisterAllBuildsValidPlan(t *testing.T) {
	reg := service.NewRegistry()
	if err := RegisterAll(reg, nil, nil); err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 14 {
		t.Fatalf("registered agents = %d, want 14", reg.Len())
	}

	plan, err := service.BuildPlan(reg)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range reg.Names() {
		agent, _ := reg.Get(name)
		for _, dep := range agent.Dependencies() {
			if plan.PhaseOf(dep) >= plan.PhaseOf(name) {
				t.Errorf("%s (phase %d) does not run after its dependency %s (phase %d)",
					name, plan.PhaseOf(name), dep, plan.PhaseOf(dep))
			}
		}
	}
	if plan.PhaseOf("website") != 0 {
		t.Errorf("website in phase %d, want 0", plan.PhaseOf("website"))
	}
	if plan.PhaseOf("social_listening") != 0 {
		t.Errorf("social_listening in phase %d, want 0", plan.PhaseOf("social_listening"))
	}
}

func TestRegisterAllSkipsDisabled(t *testing.T) {
	reg := service.NewRegistry()
	if err := RegisterAll(reg, nil, nil, "social_listening", "website"); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Get("social_listening"); ok {
		t.Error("disabled agent still registered")
	}
	if _, ok := reg.Get("website"); !ok {
		t.Error("website producer must not be disableable")
	}
}

func itemsByName(a *core.AgentAnalysis) map[string]core.ScoreItem {
	out := make(map[string]core.ScoreItem, len(a.Items))
	for _, it := range a.Items {
		out[it.Name] = it
	}
	return out
}

type stubAnalyzer struct {
	res *core.AnalysisResult
	err error
}

func (s *stubAnalyzer) Available() bool { return true }

func (s *stubAnalyzer) Analyze(ctx context.Context, req core.AnalysisRequest) (*core.AnalysisResult, error) {
	return s.res, s.err
}
