package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// TopPages ranks the five pages that matter most to the buying journey
// and grades each one individually. The ranking feeds the report's
// critical-pages section through the shared facts. It depends on
// positioning so the grade reflects the message those pages must carry.
type TopPages struct {
	unit
}

func NewTopPages(analyzer core.Analyzer, log *logging.Logger) *TopPages {
	return &TopPages{unit: newUnit(
		"top5_pages", "Critical Pages", []string{"website", "positioning"}, 1.5, analyzer, log,
	)}
}

// typeImportance ranks page types by their role in the buying journey.
var typeImportance = map[core.PageType]int{
	core.PageTypeHome:      100,
	core.PageTypePricing:   80,
	core.PageTypeProduct:   70,
	core.PageTypeSolutions: 55,
	core.PageTypeContact:   45,
	core.PageTypeAbout:     35,
	core.PageTypeLanding:   30,
	core.PageTypeResources: 20,
	core.PageTypeBlog:      10,
	core.PageTypeOther:     5,
}

func (t *TopPages) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages, core.DomainScreenshots, core.DomainAnalyses)
	pages := view.Pages()
	if len(pages) == 0 {
		return nil, core.ErrAgentExecution(t.name, "no pages to analyze")
	}

	critical := t.rank(view)
	ac.UpdateFacts(t.name, func(f *core.Facts) {
		f.CriticalPages = critical
	})

	a := t.begin()
	totalScore, totalMax := 0.0, 0.0
	for _, cp := range critical {
		totalScore += cp.Score
		totalMax += cp.MaxScore
		a.Items = append(a.Items, core.ScoreItem{
			Name:         fmt.Sprintf("Critical Page: %s", cp.PageType),
			MaxPoints:    int(cp.MaxScore),
			ActualPoints: int(cp.Score),
			Note:         t.pageNote(cp),
			PageURL:      cp.URL,
		})
	}

	hasPricing := false
	for _, cp := range critical {
		if cp.PageType == core.PageTypePricing {
			hasPricing = true
		}
	}
	a.Items = append(a.Items, core.ScoreItem{
		Name: "Journey Coverage", MaxPoints: 10,
		ActualPoints: t.journeyPoints(critical, hasPricing),
		Note:         t.journeyNote(critical, hasPricing),
	})

	a.Findings = fmt.Sprintf(
		"Critical-pages review for %s. The five highest-leverage pages scored %.0f of %.0f combined: %s. "+
			"These pages carry most first-visit traffic and every serious evaluation passes through them, "+
			"so fixing a weakness here outweighs the same fix anywhere else on the site. "+
			"In total the criteria earned %d of %d points.",
		view.Config().Website, totalScore, totalMax, t.digest(critical),
		a.ActualPoints(), a.MaxPoints())

	a.Recommendations = t.recommend(critical, hasPricing)
	t.enrich(ctx, a, auditPreamble(view.Config(), "critical pages"), t.prompt(view, critical), fb)
	return t.finish(a), nil
}

// rank orders pages by type importance plus internal in-degree and
// grades the top five.
func (t *TopPages) rank(view core.ContextView) []core.CriticalPage {
	inDegree := make(map[string]int)
	for _, p := range view.Pages() {
		for _, l := range p.InternalLinks {
			inDegree[strings.TrimSuffix(l, "/")]++
		}
	}

	type ranked struct {
		url  string
		page core.PageData
		rank int
	}
	var all []ranked
	for url, p := range view.Pages() {
		all = append(all, ranked{
			url:  url,
			page: p,
			rank: typeImportance[p.PageType] + inDegree[strings.TrimSuffix(url, "/")],
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].rank != all[j].rank {
			return all[i].rank > all[j].rank
		}
		return all[i].url < all[j].url
	})
	if len(all) > 5 {
		all = all[:5]
	}

	var out []core.CriticalPage
	for _, r := range all {
		cp := t.grade(r.url, r.page)
		if shot, ok := view.Screenshot(core.ScreenshotRef{URL: r.url, Kind: core.ScreenshotFullPage}.Key()); ok {
			cp.Screenshot = &shot
		}
		out = append(out, cp)
	}
	return out
}

// grade scores one page on the fundamentals every critical page needs.
func (t *TopPages) grade(url string, p core.PageData) core.CriticalPage {
	cp := core.CriticalPage{PageType: p.PageType, URL: url, MaxScore: 20}
	check := func(ok bool, points float64, strength, weakness string) {
		if ok {
			cp.Score += points
			cp.Strengths = append(cp.Strengths, strength)
		} else {
			cp.Weaknesses = append(cp.Weaknesses, weakness)
		}
	}
	check(p.Title != "" && p.MetaDescription != "", 4, "complete metadata", "missing title or meta description")
	check(len(p.H1) == 1, 3, "single clear H1", "zero or multiple H1 headings")
	check(len(p.CTAs) > 0, 5, "carries a call to action", "no call to action")
	check(wordCount(p) >= 150, 4, "substantive body copy", "thin body copy")
	check(p.LoadTime < 3.0, 4, "loads under three seconds", fmt.Sprintf("slow load (%.1fs)", p.LoadTime))
	return cp
}

func (t *TopPages) pageNote(cp core.CriticalPage) string {
	if len(cp.Weaknesses) == 0 {
		return "all fundamentals in place: " + strings.Join(cp.Strengths, ", ")
	}
	return "weak on: " + strings.Join(cp.Weaknesses, ", ")
}

func (t *TopPages) journeyPoints(critical []core.CriticalPage, hasPricing bool) int {
	types := make(map[core.PageType]bool)
	for _, cp := range critical {
		types[cp.PageType] = true
	}
	score := 0
	if types[core.PageTypeHome] {
		score += 4
	}
	if hasPricing {
		score += 4
	}
	if types[core.PageTypeProduct] || types[core.PageTypeSolutions] {
		score += 2
	}
	return score
}

func (t *TopPages) journeyNote(critical []core.CriticalPage, hasPricing bool) string {
	if !hasPricing {
		return "the money path is incomplete: pricing is not among the top pages"
	}
	return "home, evaluation, and pricing are all represented in the top five"
}

func (t *TopPages) digest(critical []core.CriticalPage) string {
	parts := make([]string, len(critical))
	for i, cp := range critical {
		parts[i] = fmt.Sprintf("%s %.0f/%.0f", cp.PageType, cp.Score, cp.MaxScore)
	}
	return strings.Join(parts, ", ")
}

func (t *TopPages) recommend(critical []core.CriticalPage, hasPricing bool) []core.Recommendation {
	var recs []core.Recommendation
	for _, cp := range critical {
		if len(cp.Weaknesses) == 0 {
			continue
		}
		recs = append(recs, core.Recommendation{
			Issue:   fmt.Sprintf("the %s page is %s", cp.PageType, strings.Join(cp.Weaknesses, " and ")),
			Action:  fmt.Sprintf("Fix the %s page first; it outranks every other page in journey impact.", cp.PageType),
			Impact:  core.ImpactHigh,
			Effort:  core.EffortLow,
			Category: "critical-pages",
			PageURL: cp.URL,
		})
		if len(recs) >= 3 {
			break
		}
	}
	if !hasPricing {
		recs = append(recs, core.Recommendation{
			Issue:  "no pricing page reaches the critical set",
			Action: "Publish pricing and link it from the primary navigation.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "critical-pages",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "critical pages are strong but unmonitored",
			Action: "Add uptime and performance alerts scoped to these five URLs.",
			Impact: core.ImpactLow, Effort: core.EffortLow, Category: "critical-pages",
		})
	}
	return recs
}

func (t *TopPages) prompt(view core.ContextView, critical []core.CriticalPage) string {
	var b strings.Builder
	b.WriteString("Grade the five highest-leverage pages of the site:\n")
	for _, cp := range critical {
		fmt.Fprintf(&b, "- [%s] %s scored %.0f/%.0f; weaknesses: %s\n",
			cp.PageType, cp.URL, cp.Score, cp.MaxScore, strings.Join(cp.Weaknesses, ", "))
	}
	return b.String()
}
