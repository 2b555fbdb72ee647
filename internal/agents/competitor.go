package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Competitor audits how the site handles its competitive context: is
// the competitive set visible, does any page do the comparison work
// for the buyer, and does the positioning hold up against the named
// alternatives. It reads the competitor set the website agent
// discovered plus any configured by the operator.
type Competitor struct {
	unit
}

func NewCompetitor(analyzer core.Analyzer, log *logging.Logger) *Competitor {
	return &Competitor{unit: newUnit(
		"competitor", "Competitive Coverage", []string{"website", "positioning"}, 1.0, analyzer, log,
	)}
}

func (c *Competitor) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages, core.DomainFacts, core.DomainAnalyses)
	if len(view.Pages()) == 0 {
		return nil, core.ErrAgentExecution(c.name, "no pages to analyze")
	}

	configured := view.Config().Competitors
	discovered := view.Facts().DiscoveredCompetitors
	all := dedupe(append(append([]string{}, configured...), discovered...))

	comparisonPages := matchPagesSubstr(view, "/vs", "-vs-", "alternative", "compare", "comparison")
	namedOnSite := 0
	site := siteText(view)
	for _, comp := range all {
		name := comp
		if i := strings.Index(name, "."); i > 0 {
			name = name[:i]
		}
		if len(name) > 2 && strings.Contains(site, strings.ToLower(name)) {
			namedOnSite++
		}
	}

	posDiff := c.positioningDifferentiation(view)

	a := c.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Competitor Set Clarity", MaxPoints: 15,
			ActualPoints: band(float64(len(all)), bandStep{3, 15}, bandStep{1, 9}),
			Note:         c.setNote(configured, discovered),
		},
		{
			Name: "Comparative Content", MaxPoints: 20,
			ActualPoints: band(float64(comparisonPages), bandStep{3, 20}, bandStep{1, 12}),
			Note:         fmt.Sprintf("%d comparison or alternatives pages in the crawl", comparisonPages),
		},
		{
			Name: "Competitive Differentiation", MaxPoints: 20,
			ActualPoints: posDiff,
			Note:         c.diffNote(posDiff),
		},
		{
			Name: "Named Alternatives", MaxPoints: 10,
			ActualPoints: band(pctOf(namedOnSite, max(len(all), 1)), bandStep{50, 10}, bandStep{1, 5}),
			Note:         fmt.Sprintf("%d of %d known competitors are named somewhere on the site", namedOnSite, len(all)),
		},
	}

	a.Findings = fmt.Sprintf(
		"Competitive coverage review for %s. The known competitive set has %d entries (%d configured, %d discovered "+
			"from outbound comparison links). The site offers %d comparison pages and names %d competitors directly. "+
			"Buyers run the comparison with or without the vendor; a site that does the work frames the criteria. "+
			"The criteria earned %d of %d points.",
		view.Config().Website, len(all), len(configured), len(discovered),
		comparisonPages, namedOnSite, a.ActualPoints(), a.MaxPoints())

	a.Recommendations = c.recommend(all, comparisonPages)
	c.enrich(ctx, a, auditPreamble(view.Config(), "competitive coverage"), c.prompt(view, all), fb)
	return c.finish(a), nil
}

// positioningDifferentiation reuses the positioning agent's
// differentiation grade, scaled to this module's 20-point criterion.
func (c *Competitor) positioningDifferentiation(view core.ContextView) int {
	pos, ok := view.Analysis("positioning")
	if !ok {
		return 8
	}
	for _, it := range pos.Items {
		if it.Name == "Differentiation" && it.MaxPoints > 0 {
			return it.ActualPoints * 20 / it.MaxPoints
		}
	}
	return 8
}

func (c *Competitor) setNote(configured, discovered []string) string {
	if len(configured) == 0 && len(discovered) == 0 {
		return "no competitors configured and none discoverable from the site"
	}
	return fmt.Sprintf("configured: %s; discovered: %s",
		orNone(configured), orNone(discovered))
}

func orNone(list []string) string {
	if len(list) == 0 {
		return "none"
	}
	return strings.Join(list, ", ")
}

func (c *Competitor) diffNote(points int) string {
	if points >= 15 {
		return "positioning carries explicit differentiation claims"
	}
	return "differentiation inherited from positioning review is weak"
}

func (c *Competitor) recommend(all []string, comparisonPages int) []core.Recommendation {
	var recs []core.Recommendation
	if comparisonPages == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "no comparison pages; buyers assemble the shortlist elsewhere",
			Action: "Publish an honest \"vs\" page for the competitor most often seen in deals.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "competitive",
		})
	}
	if len(all) == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "the competitive set is unknown to this audit",
			Action: "Configure the top three competitors so future runs can track comparative coverage.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "competitive",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "competitive claims age quickly",
			Action: "Re-verify comparison page claims quarterly against competitor release notes.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "competitive",
		})
	}
	return recs
}

func (c *Competitor) prompt(view core.ContextView, all []string) string {
	return fmt.Sprintf(
		"Assess how %s handles its competitive context. Known competitors: %s.\nPages:\n%s",
		view.Config().Subject, orNone(all), pagesSummary(view, 12))
}
