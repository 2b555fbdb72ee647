package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Content grades the editorial layer: variety of formats, depth of the
// individual pieces, readability, and structural discipline. Freshness
// and thought-leadership judgment need editorial review and stay as
// placeholders in degraded mode.
type Content struct {
	unit
}

func NewContent(analyzer core.Analyzer, log *logging.Logger) *Content {
	return &Content{unit: newUnit(
		"content", "Content Quality", []string{"website"}, 1.0, analyzer, log,
	)}
}

func (c *Content) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages)
	pages := view.Pages()
	if len(pages) == 0 {
		return nil, core.ErrAgentExecution(c.name, "no pages to analyze")
	}

	blogPages := len(view.PagesByType(core.PageTypeBlog))
	resourcePages := len(view.PagesByType(core.PageTypeResources))
	caseStudies := matchPagesSubstr(view, "case-stud", "case stud", "customer-stor", "success-stor")

	variety := 5
	if blogPages > 0 {
		variety += 4
	}
	if resourcePages > 0 {
		variety += 3
	}
	if caseStudies > 0 {
		variety += 3
	}

	totalWords, structured := 0, 0
	longAvgParas := 0
	for _, p := range pages {
		totalWords += wordCount(p)
		if len(p.H2) >= 2 {
			structured++
		}
		if avgParagraphWords(p) > 80 {
			longAvgParas++
		}
	}
	avgWords := totalWords / len(pages)
	depth := band(float64(avgWords), bandStep{600, 20}, bandStep{300, 14}, bandStep{100, 8}, bandStep{1, 4})
	structure := band(pctOf(structured, len(pages)), bandStep{80, 15}, bandStep{50, 10}, bandStep{1, 5})
	readability := band(pctOf(len(pages)-longAvgParas, len(pages)), bandStep{80, 15}, bandStep{50, 10}, bandStep{0, 5})

	a := c.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Content Variety", MaxPoints: 15, ActualPoints: variety,
			Note: fmt.Sprintf("blog pages: %d, resource pages: %d, case studies: %d", blogPages, resourcePages, caseStudies),
		},
		{
			Name: "Content Depth", MaxPoints: 20, ActualPoints: depth,
			Note: fmt.Sprintf("average of %d words per page", avgWords),
		},
		{
			Name: "Readability", MaxPoints: 15, ActualPoints: readability,
			Note: fmt.Sprintf("%d/%d pages keep paragraphs scannable", len(pages)-longAvgParas, len(pages)),
		},
		{
			Name: "Content Structure", MaxPoints: 15, ActualPoints: structure,
			Note: fmt.Sprintf("%d/%d pages use subheadings to break up the body", structured, len(pages)),
		},
		{
			Name: "Freshness", MaxPoints: 15, ActualPoints: 7, Note: core.PlaceholderNote,
		},
		{
			Name: "Thought Leadership", MaxPoints: 20, ActualPoints: 10, Note: core.PlaceholderNote,
		},
	}

	a.Findings = fmt.Sprintf(
		"Content review of %d pages on %s. The site publishes %d blog pages, %d resource pages, and %d case studies. "+
			"Pages average %d words, %d of %d use subheadings, and %d keep paragraphs at a scannable length. "+
			"The measurable content criteria earned %d of %d points; publish cadence and editorial authority need a manual pass.",
		len(pages), view.Config().Website, blogPages, resourcePages, caseStudies,
		avgWords, structured, len(pages), len(pages)-longAvgParas,
		a.ActualPoints(), a.MaxPoints())

	a.Recommendations = c.recommend(caseStudies, blogPages, avgWords)
	c.enrich(ctx, a, auditPreamble(view.Config(), "content quality"), c.prompt(view), fb)
	return c.finish(a), nil
}

func avgParagraphWords(p core.PageData) int {
	if len(p.Paragraphs) == 0 {
		return 0
	}
	total := 0
	for _, para := range p.Paragraphs {
		total += len(strings.Fields(para))
	}
	return total / len(p.Paragraphs)
}

// matchPagesSubstr counts pages whose URL or title contains any of the
// given fragments.
func matchPagesSubstr(view core.ContextView, fragments ...string) int {
	n := 0
	for url, p := range view.Pages() {
		hay := strings.ToLower(url + " " + p.Title)
		for _, f := range fragments {
			if strings.Contains(hay, f) {
				n++
				break
			}
		}
	}
	return n
}

func (c *Content) recommend(caseStudies, blogPages, avgWords int) []core.Recommendation {
	var recs []core.Recommendation
	if caseStudies == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "no case studies anywhere in the crawl",
			Action: "Publish two customer case studies with named metrics before the next quarter.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "content",
		})
	}
	if blogPages == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "no blog or editorial surface",
			Action: "Stand up a blog targeting the three questions buyers ask before shortlisting.",
			Impact: core.ImpactMedium, Effort: core.EffortHigh, Category: "content",
		})
	}
	if avgWords < 300 {
		recs = append(recs, core.Recommendation{
			Issue:  fmt.Sprintf("thin pages averaging %d words", avgWords),
			Action: "Expand the core product and solution pages with use cases and objection handling.",
			Impact: core.ImpactMedium, Effort: core.EffortMedium, Category: "content",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "publish dates are not visible to this crawl",
			Action: "Surface last-updated dates on editorial pages so freshness can be verified.",
			Impact: core.ImpactLow, Effort: core.EffortLow, Category: "content",
		})
	}
	return recs
}

func (c *Content) prompt(view core.ContextView) string {
	var b strings.Builder
	b.WriteString("Assess content quality, depth, and editorial authority for these pages:\n")
	b.WriteString(pagesSummary(view, 15))
	return b.String()
}
