package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Conversion audits the path from visit to lead: call-to-action
// coverage and copy, form friction, and whether trust signals sit next
// to the conversion points that need them.
type Conversion struct {
	unit
}

func NewConversion(analyzer core.Analyzer, log *logging.Logger) *Conversion {
	return &Conversion{unit: newUnit(
		"conversion", "Conversion Readiness", []string{"website"}, 1.0, analyzer, log,
	)}
}

var actionVerbCTA = regexp.MustCompile(`(?i)\b(get|start|try|book|request|schedule|download|see|watch|talk|join)\b`)

func (c *Conversion) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages)
	pages := view.Pages()
	if len(pages) == 0 {
		return nil, core.ErrAgentExecution(c.name, "no pages to analyze")
	}

	total := len(pages)
	pagesWithCTA, actionCTAs, totalCTAs := 0, 0, 0
	formCount, leanForms, formsNearProof := 0, 0, 0
	targets := make(map[string]bool)
	for _, p := range pages {
		if len(p.CTAs) > 0 {
			pagesWithCTA++
		}
		for _, cta := range p.CTAs {
			totalCTAs++
			if actionVerbCTA.MatchString(cta.Text) {
				actionCTAs++
			}
			if cta.Href != "" {
				targets[cta.Href] = true
			}
		}
		for _, f := range p.Forms {
			formCount++
			if len(f.Fields) > 0 && len(f.Fields) <= 4 {
				leanForms++
			}
			if len(p.Testimonials) > 0 {
				formsNearProof++
			}
		}
	}

	ctaCoverage := pctOf(pagesWithCTA, total)
	hasPricing := len(view.PagesByType(core.PageTypePricing)) > 0
	hasContact := len(view.PagesByType(core.PageTypeContact)) > 0

	a := c.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "CTA Visibility", MaxPoints: 20,
			ActualPoints: band(ctaCoverage, bandStep{90, 20}, bandStep{70, 15}, bandStep{40, 10}, bandStep{1, 5}),
			Note:         fmt.Sprintf("%d/%d pages carry at least one call to action", pagesWithCTA, total),
		},
		{
			Name: "CTA Copy", MaxPoints: 15,
			ActualPoints: band(pctOf(actionCTAs, totalCTAs), bandStep{80, 15}, bandStep{50, 10}, bandStep{1, 6}),
			Note:         fmt.Sprintf("%d/%d CTAs open with an action verb", actionCTAs, totalCTAs),
		},
		{
			Name: "Form Optimization", MaxPoints: 15,
			ActualPoints: c.formPoints(formCount, leanForms),
			Note:         c.formNote(formCount, leanForms),
		},
		{
			Name: "Trust Signals Near Conversion", MaxPoints: 15,
			ActualPoints: band(pctOf(formsNearProof, formCount), bandStep{75, 15}, bandStep{40, 10}, bandStep{1, 5}),
			Note:         fmt.Sprintf("%d/%d forms sit on pages with social proof", formsNearProof, formCount),
		},
		{
			Name: "Path Clarity", MaxPoints: 15,
			ActualPoints: c.pathPoints(hasPricing, hasContact),
			Note:         c.pathNote(hasPricing, hasContact),
		},
		{
			Name: "Multiple Entry Points", MaxPoints: 10,
			ActualPoints: band(float64(len(targets)), bandStep{3, 10}, bandStep{2, 7}, bandStep{1, 4}),
			Note:         fmt.Sprintf("%d distinct conversion destinations across all CTAs", len(targets)),
		},
		{
			Name: "Friction Reduction", MaxPoints: 10,
			ActualPoints: band(pctOf(leanForms, formCount), bandStep{80, 10}, bandStep{50, 6}, bandStep{1, 3}),
			Note:         fmt.Sprintf("%d/%d forms keep to four fields or fewer", leanForms, formCount),
		},
	}

	a.Findings = fmt.Sprintf(
		"Conversion audit of %d pages. CTA coverage is %.0f%% with %d of %d CTAs using action-verb copy, "+
			"pointing at %d distinct destinations. The site has %d lead forms, %d of them lean enough to convert cold traffic, "+
			"and %d sit alongside social proof. Pricing page present: %t; contact page present: %t. "+
			"The conversion criteria earned %d of %d points.",
		total, ctaCoverage, actionCTAs, totalCTAs, len(targets),
		formCount, leanForms, formsNearProof, hasPricing, hasContact,
		a.ActualPoints(), a.MaxPoints())

	a.Recommendations = c.recommend(ctaCoverage, formCount, leanForms, hasPricing)
	c.enrich(ctx, a, auditPreamble(view.Config(), "conversion optimization"), c.prompt(view), fb)
	return c.finish(a), nil
}

func (c *Conversion) formPoints(formCount, leanForms int) int {
	if formCount == 0 {
		return 0
	}
	return band(pctOf(leanForms, formCount), bandStep{80, 15}, bandStep{50, 10}, bandStep{0, 6})
}

func (c *Conversion) formNote(formCount, leanForms int) string {
	if formCount == 0 {
		return "no lead-capture forms anywhere in the crawl"
	}
	return fmt.Sprintf("%d forms found, %d with a lean field count", formCount, leanForms)
}

func (c *Conversion) pathPoints(hasPricing, hasContact bool) int {
	switch {
	case hasPricing && hasContact:
		return 15
	case hasPricing || hasContact:
		return 9
	default:
		return 3
	}
}

func (c *Conversion) pathNote(hasPricing, hasContact bool) string {
	if hasPricing && hasContact {
		return "both pricing and contact paths exist"
	}
	if hasPricing {
		return "pricing exists but there is no contact page"
	}
	if hasContact {
		return "contact exists but pricing is hidden"
	}
	return "neither pricing nor contact is reachable from the crawl"
}

func (c *Conversion) recommend(ctaCoverage float64, formCount, leanForms int, hasPricing bool) []core.Recommendation {
	var recs []core.Recommendation
	if ctaCoverage < 70 {
		recs = append(recs, core.Recommendation{
			Issue:  fmt.Sprintf("only %.0f%% of pages carry a call to action", ctaCoverage),
			Action: "Add a persistent primary CTA to every template, including blog and resource pages.",
			Impact: core.ImpactHigh, Effort: core.EffortLow, Category: "conversion",
		})
	}
	if formCount == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "the site captures no leads",
			Action: "Add a short demo-request form to the pricing and product pages.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "conversion",
		})
	} else if leanForms < formCount {
		recs = append(recs, core.Recommendation{
			Issue:  "long forms are adding friction at the point of conversion",
			Action: "Cut every form to four fields or fewer and defer qualification to the follow-up.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "conversion",
		})
	}
	if !hasPricing {
		recs = append(recs, core.Recommendation{
			Issue:  "no public pricing page",
			Action: "Publish pricing, or at minimum a \"how pricing works\" page, to qualify traffic earlier.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "conversion",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "conversion paths are unmeasured",
			Action: "Instrument CTA clicks and form abandonment so the next audit runs on funnel data.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "conversion",
		})
	}
	return recs
}

func (c *Conversion) prompt(view core.ContextView) string {
	var b strings.Builder
	b.WriteString("Evaluate the conversion readiness of these pages. Focus on CTA placement, copy, and form friction:\n")
	b.WriteString(pagesSummary(view, 15))
	return b.String()
}
