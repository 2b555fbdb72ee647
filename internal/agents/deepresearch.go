package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// DeepResearch assembles a company research brief from the crawl and
// publishes it to the shared facts. The prompt-visibility agent builds
// on the brief, so this agent runs in the phase right after collection.
type DeepResearch struct {
	unit
}

func NewDeepResearch(analyzer core.Analyzer, log *logging.Logger) *DeepResearch {
	return &DeepResearch{unit: newUnit(
		"deep_research", "Company Research", []string{"website"}, 1.0, analyzer, log,
	)}
}

func (d *DeepResearch) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages, core.DomainFacts)
	home, ok := view.Homepage()
	if !ok {
		return nil, core.ErrAgentExecution(d.name, "homepage missing from crawl")
	}

	brief := d.buildBrief(ctx, view, home, fb)
	ac.UpdateFacts(d.name, func(f *core.Facts) {
		f.ResearchBrief = brief
	})

	about := view.PagesByType(core.PageTypeAbout)
	products := len(view.PagesByType(core.PageTypeProduct))
	competitors := append([]string{}, view.Config().Competitors...)
	competitors = append(competitors, view.Facts().DiscoveredCompetitors...)

	a := d.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Company Profile", MaxPoints: 10,
			ActualPoints: d.profilePoints(home, about),
			Note:         d.profileNote(home, about),
		},
		{
			Name: "Offering Clarity", MaxPoints: 10,
			ActualPoints: band(float64(products), bandStep{2, 10}, bandStep{1, 7}, bandStep{0, 3}),
			Note:         fmt.Sprintf("%d product pages describe the offering", products),
		},
		{
			Name: "Competitive Landscape", MaxPoints: 10,
			ActualPoints: band(float64(len(competitors)), bandStep{3, 10}, bandStep{1, 6}),
			Note:         d.competitorNote(competitors),
		},
	}

	a.Findings = brief
	a.Recommendations = []core.Recommendation{
		{
			Issue:  "the research brief is assembled from the site alone",
			Action: "Validate the competitive set and market claims against analyst coverage and win/loss notes.",
			Impact: core.ImpactMedium, Effort: core.EffortMedium, Category: "research",
		},
		{
			Issue:  "company facts (size, funding, founding) are not stated on the site",
			Action: "Add a concise company-facts block to the about page; it also feeds AI-search answers.",
			Impact: core.ImpactLow, Effort: core.EffortLow, Category: "research",
		},
	}
	if d.analyzer == nil || !d.analyzer.Available() {
		a.Degraded = true
		if fb != nil {
			d.elaborate(a)
			a.Findings += "\n\n" + brief
		}
	}
	return d.finish(a), nil
}

// buildBrief composes the research brief, preferring the analyzer's
// synthesis and falling back to a structured digest of the crawl.
func (d *DeepResearch) buildBrief(ctx context.Context, view core.ContextView, home core.PageData, fb *core.Feedback) string {
	cfg := view.Config()
	heuristic := d.heuristicBrief(view, home)

	if d.analyzer != nil && d.analyzer.Available() {
		prompt := fmt.Sprintf(
			"Write a research brief for %s (%s), industry %q. Cover: what the company does, "+
				"who it sells to, how it positions itself, and the visible competitive set.\nSite digest:\n%s",
			cfg.Subject, cfg.Website, cfg.Industry, pagesSummary(view, 15))
		res, err := d.analyzer.Analyze(ctx, core.AnalysisRequest{
			System: auditPreamble(cfg, "company research"),
			Prompt: foldFeedback(prompt, fb),
		})
		if err == nil && len(res.Findings) > len(heuristic) {
			return res.Findings
		}
		if err != nil {
			d.log.Warn("analyzer failed, using heuristic brief", "error", err)
		}
	}
	return heuristic
}

func (d *DeepResearch) heuristicBrief(view core.ContextView, home core.PageData) string {
	cfg := view.Config()
	var b strings.Builder
	fmt.Fprintf(&b, "Research brief for %s (%s)", cfg.Subject, cfg.Website)
	if cfg.Industry != "" {
		fmt.Fprintf(&b, ", operating in %s", cfg.Industry)
	}
	b.WriteString(". ")
	if len(home.H1) > 0 {
		fmt.Fprintf(&b, "The homepage leads with %q", home.H1[0])
		if home.MetaDescription != "" {
			fmt.Fprintf(&b, " and describes itself as: %q", home.MetaDescription)
		}
		b.WriteString(". ")
	}
	fmt.Fprintf(&b, "The crawl covers %d pages: %d product, %d solutions, %d pricing, %d blog.",
		len(view.Pages()),
		len(view.PagesByType(core.PageTypeProduct)),
		len(view.PagesByType(core.PageTypeSolutions)),
		len(view.PagesByType(core.PageTypePricing)),
		len(view.PagesByType(core.PageTypeBlog)))
	all := append([]string{}, cfg.Competitors...)
	all = append(all, view.Facts().DiscoveredCompetitors...)
	if len(all) > 0 {
		fmt.Fprintf(&b, " Known or discovered competitors: %s.", strings.Join(dedupe(all), ", "))
	} else {
		b.WriteString(" No competitors were configured or discoverable from the site.")
	}
	return b.String()
}

func (d *DeepResearch) profilePoints(home core.PageData, about []core.PageData) int {
	score := 0
	if home.MetaDescription != "" {
		score += 4
	}
	if len(about) > 0 {
		score += 4
	}
	if len(home.H1) > 0 {
		score += 2
	}
	return score
}

func (d *DeepResearch) profileNote(home core.PageData, about []core.PageData) string {
	if len(about) == 0 {
		return "no about page to draw company facts from"
	}
	if home.MetaDescription == "" {
		return "about page exists but the homepage lacks a self-description"
	}
	return "homepage and about page give a workable company profile"
}

func (d *DeepResearch) competitorNote(competitors []string) string {
	if len(competitors) == 0 {
		return "no competitive set is visible from the site or the run configuration"
	}
	return fmt.Sprintf("competitive set of %d: %s", len(competitors), strings.Join(dedupe(competitors), ", "))
}
