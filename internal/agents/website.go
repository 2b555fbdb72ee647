package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Website is the weight-0 data producer that runs first. It validates
// the collected pages, aggregates site-wide facts (social profiles,
// competitor mentions in outbound links), and publishes a structural
// summary other agents and the report lean on. It writes facts and
// contributes nothing to the aggregate score.
type Website struct {
	unit
}

func NewWebsite(analyzer core.Analyzer, log *logging.Logger) *Website {
	return &Website{unit: newUnit(
		"website", "Website Structure", nil, 0, analyzer, log,
	)}
}

func (w *Website) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages)
	pages := view.Pages()
	if len(pages) == 0 {
		return nil, core.ErrCollect("no pages available to the website agent")
	}

	social := make(map[string]string)
	byType := make(map[core.PageType]int)
	var broken []string
	for url, p := range pages {
		byType[p.PageType]++
		if p.StatusCode >= 400 {
			broken = append(broken, url)
		}
		for platform, href := range p.SocialLinks {
			if _, ok := social[platform]; !ok {
				social[platform] = href
			}
		}
	}
	sort.Strings(broken)

	competitors := discoverCompetitors(view)

	ac.UpdateFacts(w.name, func(f *core.Facts) {
		f.SocialLinks = social
		f.DiscoveredCompetitors = competitors
	})

	a := w.begin()
	a.Findings = w.describeStructure(view, byType, broken, social)
	// Weight-0 producer: no score items, exempt from the quality gates.
	if w.analyzer == nil || !w.analyzer.Available() {
		a.Degraded = true
	}
	_ = fb
	return w.finish(a), nil
}

func (w *Website) describeStructure(view core.ContextView, byType map[core.PageType]int, broken []string, social map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collected %d pages from %s.", len(view.Pages()), view.Config().Website)

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	b.WriteString(" Page mix:")
	for _, t := range types {
		fmt.Fprintf(&b, " %s=%d", t, byType[core.PageType(t)])
	}
	b.WriteString(".")

	for _, want := range []core.PageType{core.PageTypePricing, core.PageTypeAbout, core.PageTypeContact} {
		if byType[want] == 0 {
			fmt.Fprintf(&b, " No %s page was found in the crawl.", want)
		}
	}
	if len(broken) > 0 {
		fmt.Fprintf(&b, " %d pages returned error status codes: %s.", len(broken), strings.Join(broken, ", "))
	}
	if len(social) > 0 {
		platforms := make([]string, 0, len(social))
		for p := range social {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		fmt.Fprintf(&b, " Social profiles linked: %s.", strings.Join(platforms, ", "))
	} else {
		b.WriteString(" No social profiles are linked anywhere on the site.")
	}
	if home, ok := view.Homepage(); ok {
		fmt.Fprintf(&b, " Homepage title: %q with %d calls to action and %d forms.",
			home.Title, len(home.CTAs), len(home.Forms))
	}
	return b.String()
}

// discoverCompetitors pulls candidate competitor domains from outbound
// links on comparison-style pages ("vs", "alternative", "compare").
func discoverCompetitors(view core.ContextView) []string {
	seen := make(map[string]bool)
	var out []string
	for url, p := range view.Pages() {
		lower := strings.ToLower(url + " " + p.Title)
		if !strings.Contains(lower, "vs") && !strings.Contains(lower, "alternativ") && !strings.Contains(lower, "compar") {
			continue
		}
		for _, ext := range p.ExternalLinks {
			domain := domainOf(ext)
			if domain == "" || seen[domain] {
				continue
			}
			seen[domain] = true
			out = append(out, domain)
		}
	}
	sort.Strings(out)
	return out
}

func domainOf(rawURL string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}
