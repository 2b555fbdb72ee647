package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// ResourceHub catalogues the lead-generation machinery: landing pages,
// gated offers, and how resources hand traffic to conversion paths. It
// publishes the landing-page and gated-content catalogues to the facts
// and depends on the conversion agent's pass over forms and CTAs.
type ResourceHub struct {
	unit
}

func NewResourceHub(analyzer core.Analyzer, log *logging.Logger) *ResourceHub {
	return &ResourceHub{unit: newUnit(
		"resource_hub", "Resource & Lead Capture", []string{"website", "conversion"}, 1.0, analyzer, log,
	)}
}

func (r *ResourceHub) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages, core.DomainAnalyses)
	if len(view.Pages()) == 0 {
		return nil, core.ErrAgentExecution(r.name, "no pages to analyze")
	}

	landing, gated := r.catalogue(view)
	ac.UpdateFacts(r.name, func(f *core.Facts) {
		f.LandingPages = landing
		f.GatedContent = gated
	})

	resources := len(view.PagesByType(core.PageTypeResources))
	withForm := 0
	for _, lp := range landing {
		if lp.HasForm {
			withForm++
		}
	}

	a := r.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Resource Depth", MaxPoints: 20,
			ActualPoints: band(float64(resources), bandStep{5, 20}, bandStep{2, 13}, bandStep{1, 7}),
			Note:         fmt.Sprintf("%d resource pages in the crawl", resources),
		},
		{
			Name: "Landing Page Coverage", MaxPoints: 20,
			ActualPoints: band(float64(len(landing)), bandStep{3, 20}, bandStep{1, 12}),
			Note:         r.landingNote(landing),
		},
		{
			Name: "Gating Strategy", MaxPoints: 15,
			ActualPoints: r.gatingPoints(landing, gated),
			Note:         r.gatingNote(gated, withForm, len(landing)),
		},
	}

	a.Findings = fmt.Sprintf(
		"Resource and lead-capture review for %s. The site has %d resource pages, %d conversion landing pages "+
			"(%d with a capture form), and %d gated offers. The criteria earned %d of %d points. "+
			"Ungated resources build reach while gated offers build pipeline; a hub needs both, "+
			"with the gate placed after the value is evident.",
		view.Config().Website, resources, len(landing), withForm, len(gated),
		a.ActualPoints(), a.MaxPoints())

	a.Recommendations = r.recommend(resources, landing, gated)
	r.enrich(ctx, a, auditPreamble(view.Config(), "resource hub and lead capture"), r.prompt(view), fb)
	return r.finish(a), nil
}

// catalogue extracts landing pages and gated offers from the crawl.
// A landing page is a dedicated conversion page; a gated offer is a
// resource reachable only through a form.
func (r *ResourceHub) catalogue(view core.ContextView) ([]core.LandingPage, []core.GatedContent) {
	var landing []core.LandingPage
	var gated []core.GatedContent
	for url, p := range view.Pages() {
		isLanding := p.PageType == core.PageTypeLanding ||
			(len(p.Forms) > 0 && (p.PageType == core.PageTypeResources || p.PageType == core.PageTypeContact))
		if isLanding {
			landing = append(landing, core.LandingPage{
				URL:      url,
				Title:    p.Title,
				HasForm:  len(p.Forms) > 0,
				CTACount: len(p.CTAs),
			})
		}
		for _, f := range p.Forms {
			if f.Gated {
				gated = append(gated, core.GatedContent{
					URL:    url,
					Title:  p.Title,
					Format: gatedFormat(url, p.Title),
				})
				break
			}
		}
	}
	sort.Slice(landing, func(i, j int) bool { return landing[i].URL < landing[j].URL })
	sort.Slice(gated, func(i, j int) bool { return gated[i].URL < gated[j].URL })
	return landing, gated
}

func gatedFormat(url, title string) string {
	hay := strings.ToLower(url + " " + title)
	switch {
	case strings.Contains(hay, "ebook") || strings.Contains(hay, "e-book"):
		return "ebook"
	case strings.Contains(hay, "webinar"):
		return "webinar"
	case strings.Contains(hay, "whitepaper") || strings.Contains(hay, "white-paper"):
		return "whitepaper"
	default:
		return "other"
	}
}

func (r *ResourceHub) gatingPoints(landing []core.LandingPage, gated []core.GatedContent) int {
	if len(gated) == 0 && len(landing) == 0 {
		return 0
	}
	if len(gated) == 0 {
		return 6 // reach without pipeline
	}
	if len(landing) > len(gated) {
		return 15 // gated offers backed by ungated reach
	}
	return 10
}

func (r *ResourceHub) landingNote(landing []core.LandingPage) string {
	if len(landing) == 0 {
		return "no dedicated conversion landing pages found"
	}
	urls := make([]string, 0, min(len(landing), 3))
	for i, lp := range landing {
		if i >= 3 {
			break
		}
		urls = append(urls, lp.URL)
	}
	return fmt.Sprintf("%d landing pages, e.g. %s", len(landing), strings.Join(urls, ", "))
}

func (r *ResourceHub) gatingNote(gated []core.GatedContent, withForm, landing int) string {
	if len(gated) == 0 {
		return "nothing is gated; every resource is ungated reach"
	}
	return fmt.Sprintf("%d gated offers; %d of %d landing pages capture leads", len(gated), withForm, landing)
}

func (r *ResourceHub) recommend(resources int, landing []core.LandingPage, gated []core.GatedContent) []core.Recommendation {
	var recs []core.Recommendation
	if resources == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "no resource hub for buyers doing unassisted research",
			Action: "Build a resources section seeded with the three assets sales already shares in deals.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "resources",
		})
	}
	if len(gated) == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "no gated offer converts research traffic into pipeline",
			Action: "Gate one high-value asset (benchmark report or template pack) behind a two-field form.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "resources",
		})
	}
	if len(landing) == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "campaigns have no dedicated landing pages to point at",
			Action: "Create a landing page template with a single CTA and no site navigation.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "resources",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "resource performance is invisible to this audit",
			Action: "Track per-asset conversion so the next refresh invests in what actually generates leads.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "resources",
		})
	}
	return recs
}

func (r *ResourceHub) prompt(view core.ContextView) string {
	var b strings.Builder
	b.WriteString("Audit the resource hub and lead-capture strategy for these pages:\n")
	b.WriteString(pagesSummary(view, 15))
	return b.String()
}
